package ranging_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/itohio/bottlesort/pkg/ranging"
	"github.com/itohio/bottlesort/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeight(t *testing.T) {
	tests := []struct {
		name     string
		distance float32
		want     float32
	}{
		{name: "empty belt", distance: 40, want: 0},
		{name: "small bottle", distance: 30, want: 10},
		{name: "at sensor", distance: 0, want: 40},
		{name: "beyond belt clamps", distance: 55, want: 0},
		{name: "fractional", distance: 17.5, want: 22.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ranging.Height(tt.distance)
			assert.InDelta(t, tt.want, got, 1e-4)
			assert.GreaterOrEqual(t, got, float32(0))
			assert.LessOrEqual(t, got, ranging.MountingHeight)
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		echo time.Duration
		want float32
	}{
		{echo: 0, want: 0},
		{echo: 1000 * time.Microsecond, want: 17.15},
		{echo: 2332 * time.Microsecond, want: 39.9938},
		{echo: 1500 * time.Nanosecond, want: 0.025725},
	}

	for _, tt := range tests {
		t.Run(tt.echo.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, ranging.Distance(tt.echo), 1e-3)
		})
	}
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name     string
		distance float32
		height   float32
	}{
		{name: "small", distance: 30, height: 10},
		{name: "medium", distance: 20, height: 20},
		{name: "large", distance: 8, height: 32},
		{name: "nothing", distance: 40, height: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := sim.NewClock(time.Unix(0, 0))
			trigger := sim.NewPin(clock, false)
			echo := sim.NewEcho(clock)
			echo.SetDistance(tt.distance)

			m := ranging.New(trigger, echo, clock).Measure()
			assert.False(t, m.NoEcho)
			assert.InDelta(t, tt.distance, m.Distance, 0.01)
			assert.InDelta(t, tt.height, m.Height, 0.01)
			assert.Equal(t, sim.RoundTrip(tt.distance), m.Echo)
			assert.Equal(t, 1, echo.Pings())
			assert.NoError(t, m.Err())
		})
	}
}

func TestMeasure_triggerPulse(t *testing.T) {
	start := time.Unix(0, 0)
	clock := sim.NewClock(start)
	trigger := sim.NewPin(clock, false)
	echo := sim.NewEcho(clock)
	echo.SetDistance(30)

	s := ranging.New(trigger, echo, clock)
	s.Measure()

	want := []sim.Edge{
		{At: start.Add(2 * time.Microsecond), High: true},
		{At: start.Add(12 * time.Microsecond), High: false},
	}
	if diff := cmp.Diff(want, trigger.History()); diff != "" {
		t.Errorf("trigger edges mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, start.Add(12*time.Microsecond+sim.RoundTrip(30)), clock.Now())
}

func TestMeasure_noEcho(t *testing.T) {
	start := time.Unix(0, 0)
	clock := sim.NewClock(start)
	trigger := sim.NewPin(clock, false)
	echo := sim.NewEcho(clock)
	echo.Silence()

	m := ranging.New(trigger, echo, clock).Measure()
	require.True(t, m.NoEcho)
	assert.ErrorIs(t, m.Err(), ranging.ErrNoEcho)
	assert.Zero(t, m.Echo)
	assert.Zero(t, m.Distance)
	assert.Equal(t, ranging.MountingHeight, m.Height)
	assert.Equal(t, start.Add(12*time.Microsecond+ranging.EchoTimeout), clock.Now())
}
