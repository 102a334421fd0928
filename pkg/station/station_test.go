package station_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/itohio/bottlesort/pkg/classify"
	"github.com/itohio/bottlesort/pkg/feedback"
	"github.com/itohio/bottlesort/pkg/gate"
	"github.com/itohio/bottlesort/pkg/liquid"
	"github.com/itohio/bottlesort/pkg/ranging"
	"github.com/itohio/bottlesort/pkg/sim"
	"github.com/itohio/bottlesort/pkg/station"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1700000000, 0)

type fixture struct {
	clock *sim.Clock
	bench *sim.Bench
	out   *bytes.Buffer
	st    *station.Station
	logs  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: sim.NewClock(epoch),
		out:   &bytes.Buffer{},
	}
	station.SetLogger(func(format string, v ...interface{}) {
		f.logs = append(f.logs, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { station.SetLogger(log.Printf) })

	f.bench = sim.NewBench(f.clock)
	f.st = station.New(f.bench.Peripherals(), f.clock, f.out)
	return f
}

// stepFor steps the station until d of virtual time has passed.
func (f *fixture) stepFor(d time.Duration) {
	deadline := f.clock.Now().Add(d)
	for f.clock.Now().Before(deadline) {
		f.st.Step()
	}
}

func (f *fixture) lines() []string {
	s := strings.TrimSuffix(f.out.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	f.st.Start()

	assert.Equal(t, station.Idle, f.st.State())
	assert.Equal(t, epoch.Add(250*time.Millisecond), f.clock.Now(), "startup tone")
	assert.Equal(t, []sim.Step{{At: epoch, Angle: gate.Closed}}, f.bench.Servo.History())
	assert.Equal(t, [sim.Rows]string{feedback.Header, "Waiting for bottle"}, f.bench.Display.Lines())
	assert.False(t, f.bench.Green.Get())
	assert.False(t, f.bench.Red.Get())
	assert.Len(t, f.bench.Buzzer.History(), 4)
	assert.Empty(t, f.out.String())
	assert.Equal(t, []string{"Station ready"}, f.logs)
}

func TestIdle_noBottle(t *testing.T) {
	f := newFixture(t)
	f.st.Start()
	f.bench.Servo.Reset()

	f.stepFor(10 * time.Second)
	assert.Equal(t, station.Idle, f.st.State())
	assert.Empty(t, f.out.String())
	assert.Empty(t, f.bench.Servo.History())
	assert.Zero(t, f.bench.Echo.Pings())
	_, ok := f.st.Last()
	assert.False(t, ok)
}

func TestInspection_acceptedSmall(t *testing.T) {
	f := newFixture(t)
	f.st.Start()
	f.bench.Servo.Reset()

	placed := f.clock.Now()
	f.bench.PlaceBottle(sim.Bottle{Height: 10})

	var during sim.Snapshot
	f.clock.AfterFunc(3*time.Second, func() { during = f.bench.Snapshot() })
	f.clock.AfterFunc(10*time.Second, f.bench.RemoveBottle)

	var seen []station.Inspection
	f.st.OnInspection(func(i station.Inspection) { seen = append(seen, i) })

	var atCooldown sim.Snapshot
	f.clock.AfterFunc(11*time.Second, func() { atCooldown = f.bench.Snapshot() })

	f.stepFor(13 * time.Second)

	assert.Equal(t, []string{"Height: 10.00cm | Size: Small | Water: No | Status: ACCEPTED"}, f.lines())
	require.Len(t, seen, 1)
	insp := seen[0]
	assert.Equal(t, placed.Add(51*time.Millisecond), insp.At, "debounced detection")
	assert.InDelta(t, 10, insp.Height, 0.01)
	assert.Equal(t, classify.Small, insp.Size)
	assert.False(t, insp.Water)
	assert.True(t, insp.Accepted)
	assert.False(t, insp.NoEcho)

	last, ok := f.st.Last()
	require.True(t, ok)
	assert.Equal(t, insp, last)

	// Gate timeline: open right after measuring, hold, then close.
	openStart := insp.At.Add(12*time.Microsecond + sim.RoundTrip(30) + liquid.Samples*liquid.Spacing)
	closeStart := openStart.Add(91*gate.StepDelay + 500*time.Millisecond + station.AcceptHold)
	var want []sim.Step
	for i := 0; i <= 90; i++ {
		want = append(want, sim.Step{At: openStart.Add(time.Duration(i) * gate.StepDelay), Angle: 2 * i})
	}
	for i := 0; i <= 90; i++ {
		want = append(want, sim.Step{At: closeStart.Add(time.Duration(i) * gate.StepDelay), Angle: 180 - 2*i})
	}
	if diff := cmp.Diff(want, f.bench.Servo.History()); diff != "" {
		t.Errorf("servo timeline mismatch (-want +got):\n%s", diff)
	}

	// Mid inspection: gate open, green on, result shown.
	assert.Equal(t, gate.Opened, during.Angle)
	assert.True(t, during.Green)
	assert.False(t, during.Red)
	assert.Equal(t, [sim.Rows]string{feedback.Header, "H:10.0cm Small", "Water:Absent", "Status:ACCEPTED"}, during.Lines)

	// Cooldown keeps the result on screen and the LED lit.
	assert.Equal(t, gate.Closed, atCooldown.Angle)
	assert.True(t, atCooldown.Green)
	assert.Equal(t, "Status:ACCEPTED", atCooldown.Lines[3])

	// Back to idle.
	assert.Equal(t, station.Idle, f.st.State())
	assert.False(t, f.bench.Green.Get())
	assert.False(t, f.bench.Red.Get())
	assert.Equal(t, [sim.Rows]string{feedback.Header, "Waiting for bottle"}, f.bench.Display.Lines())
}

func TestInspection_rejectedWet(t *testing.T) {
	f := newFixture(t)
	f.st.Start()
	f.bench.Servo.Reset()
	f.bench.Buzzer.Reset()

	f.bench.PlaceBottle(sim.Bottle{Height: 30, Water: true})
	f.clock.AfterFunc(3*time.Second, f.bench.RemoveBottle)

	var during sim.Snapshot
	f.clock.AfterFunc(2*time.Second, func() { during = f.bench.Snapshot() })

	f.stepFor(6 * time.Second)

	assert.Equal(t, []string{"Height: 30.00cm | Size: Large | Water: Yes | Status: REJECTED"}, f.lines())
	assert.Empty(t, f.bench.Servo.History(), "gate never moves on reject")

	insp, ok := f.st.Last()
	require.True(t, ok)
	assert.False(t, insp.Accepted)
	assert.True(t, insp.Water)

	// One long beep.
	edges := f.bench.Buzzer.History()
	require.Len(t, edges, 2)
	assert.Equal(t, time.Second, edges[1].At.Sub(edges[0].At))

	assert.True(t, during.Red)
	assert.False(t, during.Green)
	assert.Equal(t, [sim.Rows]string{feedback.Header, "H:30.0cm Large", "Water:Present", "Status:REJECTED"}, during.Lines)

	assert.Equal(t, station.Idle, f.st.State())
	assert.False(t, f.bench.Red.Get())
}

func TestInspection_sizes(t *testing.T) {
	tests := []struct {
		height float32
		water  bool
		want   string
	}{
		{height: 12, want: "Height: 12.00cm | Size: Small | Water: No | Status: ACCEPTED"},
		{height: 24, want: "Height: 24.00cm | Size: Medium | Water: No | Status: ACCEPTED"},
		{height: 28, want: "Height: 28.00cm | Size: Large | Water: No | Status: ACCEPTED"},
		{height: 5, water: true, want: "Height: 5.00cm | Size: Small | Water: Yes | Status: REJECTED"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t)
			f.st.Start()
			f.bench.PlaceBottle(sim.Bottle{Height: tt.height, Water: tt.water})
			f.clock.AfterFunc(12*time.Second, f.bench.RemoveBottle)
			f.stepFor(15 * time.Second)
			assert.Equal(t, []string{tt.want}, f.lines())
		})
	}
}

func TestInspection_noEcho(t *testing.T) {
	f := newFixture(t)
	f.st.Start()

	f.bench.PlaceBottle(sim.Bottle{Height: 10})
	f.bench.Echo.Silence()
	f.clock.AfterFunc(12*time.Second, f.bench.RemoveBottle)
	f.stepFor(15 * time.Second)

	assert.Equal(t, []string{"Height: 40.00cm | Size: Large | Water: No | Status: ACCEPTED"}, f.lines())
	insp, ok := f.st.Last()
	require.True(t, ok)
	assert.True(t, insp.NoEcho)
	assert.Equal(t, ranging.MountingHeight, insp.Height)

	require.Len(t, f.logs, 2)
	assert.Contains(t, f.logs[1], ranging.ErrNoEcho.Error())
}

func TestInspection_oncePerBottle(t *testing.T) {
	f := newFixture(t)
	f.st.Start()

	// The bottle stays for a long time; it is inspected once.
	f.bench.PlaceBottle(sim.Bottle{Height: 10, Water: true})
	f.stepFor(30 * time.Second)
	assert.Len(t, f.lines(), 1)
	assert.Equal(t, station.ClearWait, f.st.State())

	// A new bottle arrives during the cooldown and is inspected after it.
	f.bench.RemoveBottle()
	f.clock.AfterFunc(500*time.Millisecond, func() {
		f.bench.PlaceBottle(sim.Bottle{Height: 22, Water: false})
	})
	f.stepFor(station.CooldownHold)
	assert.Len(t, f.lines(), 1, "not inspected during cooldown")
	assert.Equal(t, station.Idle, f.st.State())

	f.stepFor(12 * time.Second)
	assert.Equal(t, []string{
		"Height: 10.00cm | Size: Small | Water: Yes | Status: REJECTED",
		"Height: 22.00cm | Size: Medium | Water: No | Status: ACCEPTED",
	}, f.lines())
}

func TestInspection_shortBlipIgnored(t *testing.T) {
	f := newFixture(t)
	f.st.Start()

	f.bench.Beam.Set(false)
	f.clock.AfterFunc(30*time.Millisecond, func() { f.bench.Beam.Set(true) })
	f.stepFor(time.Second)

	assert.Empty(t, f.lines())
	assert.Equal(t, station.Idle, f.st.State())
	assert.Zero(t, f.bench.Echo.Pings())
}

func TestRun_cancel(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	f.bench.PlaceBottle(sim.Bottle{Height: 10})
	f.clock.AfterFunc(12*time.Second, f.bench.RemoveBottle)
	f.clock.AfterFunc(20*time.Second, cancel)

	err := f.st.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.lines(), 1)
	assert.Equal(t, station.Idle, f.st.State())
}

func TestRun_cancelledBeforeStart(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.st.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, [sim.Rows]string{feedback.Header, "Waiting for bottle"}, f.bench.Display.Lines())
}

// deadDisplay fails every call.
type deadDisplay struct{}

func (deadDisplay) Clear() error { return errors.New("lcd: i2c write: nack") }
func (deadDisplay) SetCursor(col, row int) error { return errors.New("lcd: i2c write: nack") }
func (deadDisplay) Print(s string) error { return errors.New("lcd: i2c write: nack") }

// withDeadDisplay rebuilds the fixture station without a working display.
func (f *fixture) withDeadDisplay() {
	p := f.bench.Peripherals()
	p.Display = deadDisplay{}
	f.st = station.New(p, f.clock, f.out)
}

func TestSetLogger_nil(t *testing.T) {
	f := newFixture(t)
	f.withDeadDisplay()
	station.SetLogger(nil)

	assert.NotPanics(t, func() { f.st.Start() })
	assert.Empty(t, f.logs)
}

func TestSetLogger_displayErrors(t *testing.T) {
	f := newFixture(t)
	f.withDeadDisplay()

	f.st.Start()
	f.bench.PlaceBottle(sim.Bottle{Height: 20, Water: true})
	f.clock.AfterFunc(3*time.Second, f.bench.RemoveBottle)
	f.stepFor(6 * time.Second)

	// The inspection completes without a display.
	assert.Equal(t, []string{"Height: 20.00cm | Size: Medium | Water: Yes | Status: REJECTED"}, f.lines())
	assert.Contains(t, f.logs, "Display clear failed: lcd: i2c write: nack")
	assert.Contains(t, f.logs, "Display cursor failed: lcd: i2c write: nack")
}

func TestAccept(t *testing.T) {
	assert.True(t, station.Accept(false))
	assert.False(t, station.Accept(true))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Idle", station.Idle.String())
	assert.Equal(t, "Inspecting", station.Inspecting.String())
	assert.Equal(t, "ClearWait", station.ClearWait.String())
	assert.Equal(t, "CooldownDisplay", station.CooldownDisplay.String())
	assert.Equal(t, "State(9)", station.State(9).String())
}
