// Package station runs the inspection control loop: wait for a bottle,
// measure it, decide, actuate, then wait for it to leave.
//
// The loop is single threaded and fully blocking. Every delay goes through
// the station clock, and an inspection, once started, always runs to the end.
package station

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/bottlesort/pkg/classify"
	"github.com/itohio/bottlesort/pkg/diag"
	"github.com/itohio/bottlesort/pkg/feedback"
	"github.com/itohio/bottlesort/pkg/gate"
	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/liquid"
	"github.com/itohio/bottlesort/pkg/presence"
	"github.com/itohio/bottlesort/pkg/ranging"
)

// Loop timing.
const (
	IdlePoll     = time.Millisecond
	ClearPoll    = 10 * time.Millisecond
	AcceptHold   = 5000 * time.Millisecond
	CooldownHold = 2000 * time.Millisecond
)

// Logf is the station's diagnostic logger. Replace it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf and the display error logger. Passing nil mutes
// the station.
func SetLogger(f func(format string, v ...interface{})) {
	feedback.SetLogger(f)
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// State of the control loop.
type State int

const (
	Idle State = iota
	Inspecting
	ClearWait
	CooldownDisplay
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Inspecting:
		return "Inspecting"
	case ClearWait:
		return "ClearWait"
	case CooldownDisplay:
		return "CooldownDisplay"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Inspection is the outcome of one bottle.
type Inspection struct {
	At       time.Time
	Height   float32
	Size     classify.Category
	Water    bool
	Accepted bool
	NoEcho   bool
}

// Record converts the inspection into a diagnostic record.
func (i Inspection) Record() diag.Record {
	return diag.Record{Height: i.Height, Size: i.Size, Water: i.Water, Accepted: i.Accepted}
}

// Accept is the sorting policy: only empty bottles pass.
func Accept(water bool) bool {
	return !water
}

// Station is one inspection station.
type Station struct {
	clock    hw.Clock
	out      io.Writer
	presence *presence.Detector
	ranger   *ranging.Sampler
	liquid   *liquid.Sampler
	gate     *gate.Actuator
	feedback *feedback.Emitter

	mu        sync.Mutex
	state     State
	last      Inspection
	hasLast   bool
	callbacks []func(Inspection)
}

// New wires the components of a station onto its peripherals. Diagnostic
// lines are written to out, which may be nil.
func New(p hw.Peripherals, clock hw.Clock, out io.Writer) *Station {
	if out == nil {
		out = io.Discard
	}
	return &Station{
		clock:    clock,
		out:      out,
		presence: presence.New(p.Beam, clock),
		ranger:   ranging.New(p.Trigger, p.Echo, clock),
		liquid:   liquid.New(p.Probe, clock),
		gate:     gate.New(p.Servo, clock),
		feedback: feedback.New(p.Green, p.Red, p.Buzzer, p.Display, clock),
	}
}

// OnInspection registers a callback run after every completed inspection,
// on the control loop.
func (s *Station) OnInspection(fn func(Inspection)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// State returns the current state. It is safe to call from any goroutine.
func (s *Station) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Station) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Last returns the most recent inspection.
func (s *Station) Last() (Inspection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasLast
}

// Gate exposes the gate actuator for maintenance sweeps.
func (s *Station) Gate() *gate.Actuator {
	return s.gate
}

// Start puts the outputs into a known state and announces readiness.
func (s *Station) Start() {
	s.feedback.Idle()
	s.gate.Home()
	s.feedback.Clear()
	s.feedback.ShowReady()
	s.feedback.Play(feedback.StartupTone)
	s.feedback.ShowWaiting()
	s.setState(Idle)
	Logf("Station ready")
}

// Run starts the station and steps it until ctx is cancelled.
func (s *Station) Run(ctx context.Context) error {
	s.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Step()
	}
}

// Step advances the state machine by one poll or one whole phase.
func (s *Station) Step() {
	switch s.State() {
	case Idle:
		if s.presence.Detect() {
			s.setState(Inspecting)
			return
		}
		s.clock.Sleep(IdlePoll)

	case Inspecting:
		s.Inspect()
		s.setState(ClearWait)

	case ClearWait:
		if s.presence.Present() {
			s.clock.Sleep(ClearPoll)
			return
		}
		s.setState(CooldownDisplay)

	case CooldownDisplay:
		s.clock.Sleep(CooldownHold)
		s.feedback.Clear()
		s.feedback.Idle()
		s.feedback.ShowWaiting()
		s.setState(Idle)
	}
}

// Inspect runs the whole measure-decide-actuate pipeline for the bottle
// currently at the station.
func (s *Station) Inspect() Inspection {
	at := s.clock.Now()

	m := s.ranger.Measure()
	if err := m.Err(); err != nil {
		Logf("Rangefinder: %v, reporting height %.1fcm", err, m.Height)
	}
	size := classify.Classify(m.Height)
	water := s.liquid.Sample()
	accepted := Accept(water)

	insp := Inspection{
		At:       at,
		Height:   m.Height,
		Size:     size,
		Water:    water,
		Accepted: accepted,
		NoEcho:   m.NoEcho,
	}

	s.feedback.ShowResult(insp.Height, insp.Size, insp.Water, insp.Accepted)
	if accepted {
		s.feedback.Accept()
		s.gate.Open()
		s.feedback.Play(feedback.AcceptTone)
		s.clock.Sleep(AcceptHold)
		s.gate.Close()
	} else {
		s.feedback.Reject()
		s.feedback.Play(feedback.RejectTone)
	}

	if _, err := fmt.Fprintln(s.out, insp.Record()); err != nil {
		Logf("Diagnostic write failed: %v", err)
	}

	s.mu.Lock()
	s.last = insp
	s.hasLast = true
	callbacks := append(([]func(Inspection))(nil), s.callbacks...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(insp)
	}

	return insp
}
