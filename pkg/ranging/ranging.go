// Package ranging measures bottle height with an HC-SR04 style ultrasonic
// rangefinder mounted above the belt and looking down.
package ranging

import (
	"errors"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/bottlesort/pkg/hw"
)

const (
	// MountingHeight is the distance from the sensor face to the belt, in cm.
	MountingHeight float32 = 40.0
	// SpeedOfSound in cm per microsecond.
	SpeedOfSound = 0.0343

	// TriggerPulse is how long the trigger line is held high.
	TriggerPulse = 10 * time.Microsecond
	// EchoTimeout bounds the wait for the echo pulse.
	EchoTimeout = time.Second

	triggerSettle = 2 * time.Microsecond
)

// ErrNoEcho is returned by Measurement.Err when the echo never came back.
// Such a measurement still reports a height (the full mounting height).
var ErrNoEcho = errors.New("no echo received")

// Measurement is the result of one ranging cycle.
type Measurement struct {
	Echo     time.Duration // round trip, 0 if no echo
	Distance float32       // sensor to top of bottle, cm
	Height   float32       // bottle height, cm
	NoEcho   bool
}

// Err returns ErrNoEcho for a measurement without an echo, nil otherwise.
func (m Measurement) Err() error {
	if m.NoEcho {
		return ErrNoEcho
	}
	return nil
}

// Sampler drives the trigger line and times the echo.
type Sampler struct {
	trigger hw.OutputPin
	echo    hw.PulseInput
	clock   hw.Clock
}

// New creates a Sampler.
func New(trigger hw.OutputPin, echo hw.PulseInput, clock hw.Clock) *Sampler {
	trigger.Set(false)
	return &Sampler{trigger: trigger, echo: echo, clock: clock}
}

// Measure fires one ping and converts the echo into a height.
func (s *Sampler) Measure() Measurement {
	s.trigger.Set(false)
	s.clock.Sleep(triggerSettle)
	s.trigger.Set(true)
	s.clock.Sleep(TriggerPulse)
	s.trigger.Set(false)

	echo := s.echo.PulseWidth(EchoTimeout)
	distance := Distance(echo)
	return Measurement{
		Echo:     echo,
		Distance: distance,
		Height:   Height(distance),
		NoEcho:   echo == 0,
	}
}

// Distance converts an echo round trip into a one-way distance in cm.
func Distance(echo time.Duration) float32 {
	us := float32(echo) / float32(time.Microsecond)
	return us * SpeedOfSound / 2
}

// Height converts a measured distance into a bottle height. Distances
// beyond the mounting height clamp to zero.
func Height(distance float32) float32 {
	return math32.Max(MountingHeight-distance, 0)
}
