package hw

import "time"

// InputPin is a digital input. machine.Pin satisfies it on TinyGo targets.
type InputPin interface {
	Get() bool
}

// OutputPin is a digital output. machine.Pin satisfies it on TinyGo targets.
type OutputPin interface {
	Set(high bool)
}

// PulseInput measures the width of the next HIGH pulse on a pin.
// It returns 0 if no complete pulse arrives within timeout.
type PulseInput interface {
	PulseWidth(timeout time.Duration) time.Duration
}

// ADC is a single analog channel scaled to 0-1023.
type ADC interface {
	Get() uint16
}

// Servo is an angle-addressable rotational actuator (0-180 degrees).
type Servo interface {
	SetAngle(degrees int)
}

// Display is a character display with row/column addressing.
type Display interface {
	Clear() error
	SetCursor(col, row int) error
	Print(s string) error
}

// Clock is the time source of the control loop. All blocking delays go
// through Sleep so the loop can run on simulated time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Peripherals bundles the handles owned by one station.
type Peripherals struct {
	Beam    InputPin // active-low break-beam
	Trigger OutputPin
	Echo    PulseInput
	Probe   ADC // capacitive liquid probe
	Servo   Servo
	Green   OutputPin
	Red     OutputPin
	Buzzer  OutputPin
	Display Display
}

// SystemClock is the wall clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
