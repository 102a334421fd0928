// Package gate drives the servo that diverts accepted bottles.
package gate

import (
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
)

const (
	// Closed and Opened are the two resting angles.
	Closed = 0
	Opened = 180

	// Step is the angle change per write during a sweep.
	Step = 2
	// StepDelay is the pause after each write.
	StepDelay = 20 * time.Millisecond
)

// Actuator owns the gate servo. It has no position feedback and trusts the
// last angle it commanded.
type Actuator struct {
	servo hw.Servo
	clock hw.Clock
	angle int
}

// New creates an Actuator. The gate is assumed closed; call Home to make sure.
// A nil servo (one that failed to initialize) keeps the sweep timing but
// drives nothing.
func New(servo hw.Servo, clock hw.Clock) *Actuator {
	if servo == nil {
		servo = nopServo{}
	}
	return &Actuator{servo: servo, clock: clock, angle: Closed}
}

type nopServo struct{}

func (nopServo) SetAngle(int) {}

// Home commands the closed position directly, without a sweep.
func (a *Actuator) Home() {
	a.servo.SetAngle(Closed)
	a.angle = Closed
}

// Open sweeps to Opened.
func (a *Actuator) Open() {
	a.sweep(Opened)
}

// Close sweeps to Closed.
func (a *Actuator) Close() {
	a.sweep(Closed)
}

// Angle returns the last commanded angle.
func (a *Actuator) Angle() int {
	return a.angle
}

// IsOpen reports whether the gate was last commanded open.
func (a *Actuator) IsOpen() bool {
	return a.angle == Opened
}

// sweep writes every Step degrees from the current angle to target,
// both ends included, pausing StepDelay after each write.
func (a *Actuator) sweep(target int) {
	if a.angle == target {
		return
	}
	dir := Step
	if target < a.angle {
		dir = -Step
	}
	for pos := a.angle; ; pos += dir {
		if (dir > 0 && pos > target) || (dir < 0 && pos < target) {
			pos = target
		}
		a.servo.SetAngle(pos)
		a.angle = pos
		a.clock.Sleep(StepDelay)
		if pos == target {
			return
		}
	}
}
