// Package lcd drives an HD44780 character LCD through a PCF8574 I2C
// backpack in 4-bit mode.
//
// Expander bit layout: P0=RS, P1=RW, P2=EN, P3=backlight, P4..P7=D4..D7.
package lcd

import (
	"fmt"
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
)

// DefaultAddress is the usual PCF8574 backpack address.
const DefaultAddress = 0x27

const (
	bitRS        = 0x01
	bitEN        = 0x04
	bitBacklight = 0x08

	cmdClear       = 0x01
	cmdEntryMode   = 0x04
	cmdDisplayCtrl = 0x08
	cmdFunctionSet = 0x20
	cmdSetDDRAM    = 0x80

	entryIncrement = 0x02
	displayOn      = 0x04
	twoLine        = 0x08
)

// rowOffsets are the DDRAM addresses of each row on a 20x4 panel.
var rowOffsets = [4]byte{0x00, 0x40, 0x14, 0x54}

// Bus is a write/read transaction with a device already bound to its
// address. periph.io i2c.Dev satisfies it.
type Bus interface {
	Tx(w, r []byte) error
}

// Device is a 20x4 LCD.
type Device struct {
	bus       Bus
	clock     hw.Clock
	cols      int
	rows      int
	backlight byte
}

var _ hw.Display = (*Device)(nil)

// New creates a Device for a cols x rows panel. Call Init before use.
func New(bus Bus, clock hw.Clock, cols, rows int) *Device {
	if cols <= 0 {
		cols = 20
	}
	if rows <= 0 || rows > len(rowOffsets) {
		rows = 4
	}
	return &Device{bus: bus, clock: clock, cols: cols, rows: rows, backlight: bitBacklight}
}

// Init runs the power-on sequence that forces the controller into 4-bit mode.
func (d *Device) Init() error {
	d.clock.Sleep(50 * time.Millisecond)
	if err := d.expander(d.backlight); err != nil {
		return fmt.Errorf("lcd: backpack not responding: %w", err)
	}

	for _, wait := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := d.nibble(0x30, 0); err != nil {
			return err
		}
		d.clock.Sleep(wait)
	}
	if err := d.nibble(0x20, 0); err != nil {
		return err
	}

	for _, cmd := range []byte{
		cmdFunctionSet | twoLine,
		cmdDisplayCtrl | displayOn,
		cmdEntryMode | entryIncrement,
	} {
		if err := d.command(cmd); err != nil {
			return err
		}
	}
	return d.Clear()
}

// Clear blanks the display and homes the cursor.
func (d *Device) Clear() error {
	if err := d.command(cmdClear); err != nil {
		return err
	}
	d.clock.Sleep(2 * time.Millisecond)
	return nil
}

// SetCursor moves the cursor to col, row.
func (d *Device) SetCursor(col, row int) error {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return fmt.Errorf("lcd: cursor %d,%d outside %dx%d", col, row, d.cols, d.rows)
	}
	return d.command(cmdSetDDRAM | (rowOffsets[row] + byte(col)))
}

// Print writes s at the cursor.
func (d *Device) Print(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.send(s[i], bitRS); err != nil {
			return err
		}
	}
	return nil
}

// Backlight switches the backlight bit.
func (d *Device) Backlight(on bool) error {
	if on {
		d.backlight = bitBacklight
	} else {
		d.backlight = 0
	}
	return d.expander(0)
}

func (d *Device) command(cmd byte) error {
	return d.send(cmd, 0)
}

func (d *Device) send(b byte, mode byte) error {
	if err := d.nibble(b&0xF0, mode); err != nil {
		return err
	}
	return d.nibble(b<<4, mode)
}

// nibble clocks the high four bits of v into the controller.
func (d *Device) nibble(v byte, mode byte) error {
	data := v&0xF0 | mode
	if err := d.expander(data | bitEN); err != nil {
		return err
	}
	if err := d.expander(data); err != nil {
		return err
	}
	d.clock.Sleep(50 * time.Microsecond)
	return nil
}

func (d *Device) expander(v byte) error {
	if err := d.bus.Tx([]byte{v | d.backlight}, nil); err != nil {
		return fmt.Errorf("lcd: i2c write: %w", err)
	}
	return nil
}
