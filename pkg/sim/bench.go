package sim

import (
	"sync"

	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/ranging"
)

// Probe levels on the 0-1023 scale.
const (
	DryLevel uint16 = 100
	WetLevel uint16 = 520
)

// Bottle describes a simulated bottle.
type Bottle struct {
	Height float32 // cm
	Water  bool
}

// Bench is a complete simulated station: sensors, actuators and display.
type Bench struct {
	Clock   hw.Clock
	Beam    *Pin
	Trigger *Pin
	Echo    *Echo
	Probe   *ADC
	Servo   *Servo
	Green   *Pin
	Red     *Pin
	Buzzer  *Pin
	Display *Display

	mu     sync.RWMutex
	bottle *Bottle
}

// NewBench creates an empty bench running on clock.
func NewBench(clock hw.Clock) *Bench {
	return &Bench{
		Clock:   clock,
		Beam:    NewPin(clock, true),
		Trigger: NewPin(clock, false),
		Echo:    NewEcho(clock),
		Probe:   NewADC(DryLevel),
		Servo:   NewServo(clock),
		Green:   NewPin(clock, false),
		Red:     NewPin(clock, false),
		Buzzer:  NewPin(clock, false),
		Display: NewDisplay(),
	}
}

// Peripherals returns the bench as station peripherals.
func (b *Bench) Peripherals() hw.Peripherals {
	return hw.Peripherals{
		Beam:    b.Beam,
		Trigger: b.Trigger,
		Echo:    b.Echo,
		Probe:   b.Probe,
		Servo:   b.Servo,
		Green:   b.Green,
		Red:     b.Red,
		Buzzer:  b.Buzzer,
		Display: b.Display,
	}
}

// PlaceBottle puts a bottle under the sensors and breaks the beam.
func (b *Bench) PlaceBottle(bottle Bottle) {
	b.mu.Lock()
	b.bottle = &bottle
	b.mu.Unlock()

	b.Echo.SetDistance(ranging.MountingHeight - bottle.Height)
	if bottle.Water {
		b.Probe.SetReadings(WetLevel)
	} else {
		b.Probe.SetReadings(DryLevel)
	}
	b.Beam.Set(false)
}

// RemoveBottle clears the beam and leaves the belt empty.
func (b *Bench) RemoveBottle() {
	b.mu.Lock()
	b.bottle = nil
	b.mu.Unlock()

	b.Beam.Set(true)
	b.Echo.SetDistance(ranging.MountingHeight)
	b.Probe.SetReadings(DryLevel)
}

// Bottle returns the bottle on the belt, if any.
func (b *Bench) Bottle() (Bottle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bottle == nil {
		return Bottle{}, false
	}
	return *b.bottle, true
}

// Snapshot is a copy of everything an observer of the bench can see.
type Snapshot struct {
	Lines   [Rows]string
	Green   bool
	Red     bool
	Buzzer  bool
	Angle   int
	Bottle  Bottle
	Present bool
}

// Snapshot captures the current bench outputs.
func (b *Bench) Snapshot() Snapshot {
	bottle, present := b.Bottle()
	return Snapshot{
		Lines:   b.Display.Lines(),
		Green:   b.Green.Get(),
		Red:     b.Red.Get(),
		Buzzer:  b.Buzzer.Get(),
		Angle:   b.Servo.Angle(),
		Bottle:  bottle,
		Present: present,
	}
}
