package rpi

import (
	"log"
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

var (
	_ hw.InputPin   = (*Input)(nil)
	_ hw.OutputPin  = (*Output)(nil)
	_ hw.OutputPin  = (*Buzzer)(nil)
	_ hw.PulseInput = (*Echo)(nil)
	_ hw.Servo      = (*Servo)(nil)
)

// Input is a pulled-up digital input.
type Input struct {
	pin gpio.PinIO
}

// NewInput configures pin as an input with pull-up.
func NewInput(pin gpio.PinIO) (*Input, error) {
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &Input{pin: pin}, nil
}

// Get returns true when the line is high.
func (i *Input) Get() bool {
	return i.pin.Read() == gpio.High
}

// Output is a push-pull digital output.
type Output struct {
	pin gpio.PinIO
}

// NewOutput configures pin as an output driven low.
func NewOutput(pin gpio.PinIO) (*Output, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &Output{pin: pin}, nil
}

// Set drives the pin.
func (o *Output) Set(high bool) {
	if err := o.pin.Out(gpio.Level(high)); err != nil {
		log.Printf("Failed to drive %s: %v", o.pin.Name(), err)
	}
}

// Buzzer drives a passive buzzer with a square wave while on.
type Buzzer struct {
	pin  gpio.PinIO
	freq physic.Frequency
}

// NewBuzzer configures pin for a buzzer driven at hz.
func NewBuzzer(pin gpio.PinIO, hz int) (*Buzzer, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &Buzzer{pin: pin, freq: physic.Frequency(hz) * physic.Hertz}, nil
}

// Set starts or stops the tone.
func (b *Buzzer) Set(on bool) {
	var err error
	if on {
		err = b.pin.PWM(gpio.DutyHalf, b.freq)
	} else {
		err = b.pin.Out(gpio.Low)
	}
	if err != nil {
		log.Printf("Failed to drive buzzer on %s: %v", b.pin.Name(), err)
	}
}

// Echo times the echo line of an ultrasonic rangefinder.
type Echo struct {
	pin gpio.PinIO
}

// NewEcho configures pin as a pulled-down input with edge detection.
func NewEcho(pin gpio.PinIO) (*Echo, error) {
	if err := pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, err
	}
	return &Echo{pin: pin}, nil
}

// PulseWidth waits for the echo to rise and fall. It returns 0 if either
// edge does not arrive within timeout.
func (e *Echo) PulseWidth(timeout time.Duration) time.Duration {
	var start time.Time
	if e.pin.Read() == gpio.High {
		start = time.Now()
	} else {
		if err := e.pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			log.Printf("Echo: %v", err)
			return 0
		}
		if !e.pin.WaitForEdge(timeout) {
			return 0
		}
		start = time.Now()
	}

	if err := e.pin.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		log.Printf("Echo: %v", err)
		return 0
	}
	if !e.pin.WaitForEdge(timeout) {
		return 0
	}
	return time.Since(start)
}

// ServoPeriod is the frame period of a hobby servo.
const ServoPeriod = 20 * time.Millisecond

// Servo drives a hobby servo with 50Hz PWM.
type Servo struct {
	pin      gpio.PinIO
	minPulse time.Duration
	maxPulse time.Duration
}

// NewServo creates a servo on pin with the pulse range for 0 and 180 degrees.
func NewServo(pin gpio.PinIO, minPulse, maxPulse time.Duration) *Servo {
	return &Servo{pin: pin, minPulse: minPulse, maxPulse: maxPulse}
}

// SetAngle commands an angle, clamped to 0-180.
func (s *Servo) SetAngle(degrees int) {
	duty := ServoDuty(degrees, s.minPulse, s.maxPulse)
	if err := s.pin.PWM(duty, physic.Frequency(time.Second/ServoPeriod)*physic.Hertz); err != nil {
		log.Printf("Failed to drive servo on %s: %v", s.pin.Name(), err)
	}
}

// ServoPulse maps an angle to a pulse width.
func ServoPulse(degrees int, minPulse, maxPulse time.Duration) time.Duration {
	degrees = min(max(degrees, 0), 180)
	return minPulse + (maxPulse-minPulse)*time.Duration(degrees)/180
}

// ServoDuty maps an angle to a PWM duty cycle at ServoPeriod.
func ServoDuty(degrees int, minPulse, maxPulse time.Duration) gpio.Duty {
	pulse := ServoPulse(degrees, minPulse, maxPulse)
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(ServoPeriod))
}
