//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/lcd"
	"github.com/itohio/bottlesort/pkg/station"
	"tinygo.org/x/drivers/servo"
)

func main() {
	// Digital outputs
	for _, pin := range []machine.Pin{PIN_TRIGGER, PIN_GREEN, PIN_RED, PIN_BUZZER} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	// Digital inputs
	PIN_BEAM.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_ECHO.Configure(machine.PinConfig{Mode: machine.PinInput})

	// Liquid probe
	machine.InitADC()
	probe := machine.ADC{Pin: PIN_PROBE}
	probe.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	machine.Serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	// Gate servo
	var gate hw.Servo // nil runs the station without a gate
	if s, err := servo.New(SERVO_PWM, PIN_SERVO); err != nil {
		println("servo init failed:", err.Error())
	} else {
		gate = gateServo{s}
	}

	// Display
	if err := machine.I2C0.Configure(machine.I2CConfig{}); err != nil {
		println("i2c init failed:", err.Error())
	}
	display := lcd.New(i2cDevice{bus: machine.I2C0, addr: LCD_ADDRESS}, hw.SystemClock{}, 20, 4)
	if err := display.Init(); err != nil {
		println("lcd init failed:", err.Error())
	}

	st := station.New(hw.Peripherals{
		Beam:    PIN_BEAM,
		Trigger: PIN_TRIGGER,
		Echo:    echoPin(PIN_ECHO),
		Probe:   adc10{probe},
		Servo:   gate,
		Green:   PIN_GREEN,
		Red:     PIN_RED,
		Buzzer:  PIN_BUZZER,
		Display: display,
	}, hw.SystemClock{}, machine.Serial)

	st.Start()
	for {
		st.Step()
	}
}

// echoPin measures the width of the echo pulse by polling.
type echoPin machine.Pin

func (e echoPin) PulseWidth(timeout time.Duration) time.Duration {
	pin := machine.Pin(e)
	deadline := time.Now().Add(timeout)
	for !pin.Get() {
		if time.Now().After(deadline) {
			return 0
		}
	}
	start := time.Now()
	for pin.Get() {
		if time.Now().After(deadline) {
			return 0
		}
	}
	return time.Since(start)
}

// adc10 reduces the 16-bit normalized machine.ADC reading to 0-1023.
type adc10 struct {
	machine.ADC
}

func (a adc10) Get() uint16 {
	return a.ADC.Get() >> 6
}

type gateServo struct {
	servo.Servo
}

func (g gateServo) SetAngle(degrees int) {
	degrees = min(max(degrees, 0), 180)
	g.SetMicroseconds(int16(SERVO_MIN_US + (SERVO_MAX_US-SERVO_MIN_US)*degrees/180))
}

// i2cDevice binds the shared bus to the LCD backpack address.
type i2cDevice struct {
	bus  *machine.I2C
	addr uint16
}

func (d i2cDevice) Tx(w, r []byte) error {
	return d.bus.Tx(d.addr, w, r)
}
