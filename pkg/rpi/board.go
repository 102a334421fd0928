// Package rpi binds the station to a Linux single board computer through
// periph.io: GPIO for the beam, rangefinder, LEDs, buzzer and servo, and
// I2C for the LCD backpack and an ADS1115 reading the capacitive probe.
package rpi

import (
	"fmt"
	"log"

	"github.com/itohio/bottlesort/pkg/config"
	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/lcd"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/devices/ads1x15"
	"periph.io/x/periph/host"
)

var _ hw.ADC = (*Probe)(nil)

// Probe reads one ADS1115 channel scaled to 0-1023.
type Probe struct {
	pin ads1x15.PinADC
}

// Get returns the latest reading, or 0 if the conversion failed.
func (p *Probe) Get() uint16 {
	r, err := p.pin.Read()
	if err != nil {
		log.Printf("Probe read failed: %v", err)
		return 0
	}
	return ScaleADS1115(r.Raw)
}

// ScaleADS1115 maps a single-ended 15-bit conversion onto 0-1023.
func ScaleADS1115(raw int32) uint16 {
	if raw <= 0 {
		return 0
	}
	if raw > 0x7FFF {
		raw = 0x7FFF
	}
	return uint16(raw >> 5)
}

// Board holds every opened peripheral.
type Board struct {
	bus         i2c.BusCloser
	peripherals hw.Peripherals
	display     *lcd.Device
}

// Open initializes periph and opens every peripheral named in cfg.
func Open(cfg *config.Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	pin := func(role, name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no GPIO pin named %q for %s", name, role)
		}
		return p, nil
	}

	var (
		b   Board
		err error
	)
	p := &b.peripherals

	gp, err := pin("beam", cfg.Pins.Beam)
	if err != nil {
		return nil, err
	}
	if p.Beam, err = NewInput(gp); err != nil {
		return nil, fmt.Errorf("beam: %w", err)
	}

	if gp, err = pin("trigger", cfg.Pins.Trigger); err != nil {
		return nil, err
	}
	if p.Trigger, err = NewOutput(gp); err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}

	if gp, err = pin("echo", cfg.Pins.Echo); err != nil {
		return nil, err
	}
	if p.Echo, err = NewEcho(gp); err != nil {
		return nil, fmt.Errorf("echo: %w", err)
	}

	if gp, err = pin("servo", cfg.Pins.Servo); err != nil {
		return nil, err
	}
	p.Servo = NewServo(gp, cfg.Servo.MinPulse, cfg.Servo.MaxPulse)

	if gp, err = pin("green", cfg.Pins.Green); err != nil {
		return nil, err
	}
	if p.Green, err = NewOutput(gp); err != nil {
		return nil, fmt.Errorf("green led: %w", err)
	}

	if gp, err = pin("red", cfg.Pins.Red); err != nil {
		return nil, err
	}
	if p.Red, err = NewOutput(gp); err != nil {
		return nil, fmt.Errorf("red led: %w", err)
	}

	if gp, err = pin("buzzer", cfg.Pins.Buzzer); err != nil {
		return nil, err
	}
	if p.Buzzer, err = NewBuzzer(gp, cfg.Buzzer.Frequency); err != nil {
		return nil, fmt.Errorf("buzzer: %w", err)
	}

	b.bus, err = i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", cfg.I2C.Bus, err)
	}

	b.display = lcd.New(&i2c.Dev{Addr: cfg.I2C.LCDAddress, Bus: b.bus}, hw.SystemClock{}, 20, 4)
	if err := b.display.Init(); err != nil {
		// The station runs without a display; writes stay fire-and-forget.
		log.Printf("LCD init failed: %v", err)
	}
	p.Display = b.display

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = cfg.I2C.ADCAddress
	adc, err := ads1x15.NewADS1115(b.bus, &opts)
	if err != nil {
		b.bus.Close()
		return nil, fmt.Errorf("failed to open ADS1115: %w", err)
	}
	channels := []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	probe, err := adc.PinForChannel(channels[cfg.I2C.ADCChannel], 5*physic.Volt, 860*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		b.bus.Close()
		return nil, fmt.Errorf("failed to open probe channel: %w", err)
	}
	p.Probe = &Probe{pin: probe}

	return &b, nil
}

// Peripherals returns the opened peripherals.
func (b *Board) Peripherals() hw.Peripherals {
	return b.peripherals
}

// Close releases the I2C bus. GPIO lines are left as they are.
func (b *Board) Close() error {
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}
