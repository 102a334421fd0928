// Package presence debounces the active-low break-beam sensor that signals a
// bottle at the inspection point.
package presence

import (
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
)

// DebounceWindow is how long the raw level must hold before it is trusted.
const DebounceWindow = 50 * time.Millisecond

// Detector tracks the last raw level and when it last changed.
type Detector struct {
	pin   hw.InputPin
	clock hw.Clock

	lastLevel  bool
	lastChange time.Time
	reported   time.Time // lastChange of the interval already reported by Detect
}

// New creates a detector. The beam is assumed clear (HIGH) at construction.
func New(pin hw.InputPin, clock hw.Clock) *Detector {
	return &Detector{
		pin:        pin,
		clock:      clock,
		lastLevel:  true,
		lastChange: clock.Now(),
	}
}

// Present samples the pin and reports whether the beam has been broken
// (LOW) for longer than DebounceWindow.
func (d *Detector) Present() bool {
	now := d.clock.Now()
	level := d.pin.Get()
	if level != d.lastLevel {
		d.lastLevel = level
		d.lastChange = now
	}
	return !level && now.Sub(d.lastChange) > DebounceWindow
}

// Detect is like Present but reports each stable LOW interval only once.
// Any raw level change starts a new interval.
func (d *Detector) Detect() bool {
	if !d.Present() {
		return false
	}
	if d.reported.Equal(d.lastChange) {
		return false
	}
	d.reported = d.lastChange
	return true
}
