// Package feedback drives the operator-facing outputs of the station: the
// accept/reject LEDs, the buzzer and the 20x4 status display.
package feedback

import (
	"fmt"
	"log"
	"time"

	"github.com/itohio/bottlesort/pkg/classify"
	"github.com/itohio/bottlesort/pkg/hw"
)

// Display geometry.
const (
	Cols = 20
	Rows = 4
)

// Header is shown on the first display row.
const Header = "== BOTTLE SORTER =="

// Logf reports display errors. Replace it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil mutes display errors.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Beep is one buzzer on period followed by a silent period.
type Beep struct {
	On  time.Duration
	Off time.Duration
}

// Tone patterns.
var (
	StartupTone = []Beep{{On: 100 * time.Millisecond, Off: 50 * time.Millisecond}, {On: 100 * time.Millisecond}}
	AcceptTone  = []Beep{{On: 200 * time.Millisecond, Off: 100 * time.Millisecond}, {On: 200 * time.Millisecond}}
	RejectTone  = []Beep{{On: 1000 * time.Millisecond}}
)

// Emitter owns the LEDs, buzzer and display.
type Emitter struct {
	green   hw.OutputPin
	red     hw.OutputPin
	buzzer  hw.OutputPin
	display hw.Display
	clock   hw.Clock
}

// New creates an Emitter.
func New(green, red, buzzer hw.OutputPin, display hw.Display, clock hw.Clock) *Emitter {
	return &Emitter{green: green, red: red, buzzer: buzzer, display: display, clock: clock}
}

// Play sounds a pattern and blocks until it is finished.
func (e *Emitter) Play(pattern []Beep) {
	for _, b := range pattern {
		e.buzzer.Set(true)
		e.clock.Sleep(b.On)
		e.buzzer.Set(false)
		if b.Off > 0 {
			e.clock.Sleep(b.Off)
		}
	}
}

// Accept lights the green LED only.
func (e *Emitter) Accept() {
	e.green.Set(true)
	e.red.Set(false)
}

// Reject lights the red LED only.
func (e *Emitter) Reject() {
	e.red.Set(true)
	e.green.Set(false)
}

// Idle turns both LEDs off.
func (e *Emitter) Idle() {
	e.green.Set(false)
	e.red.Set(false)
}

// ShowReady shows the startup screen.
func (e *Emitter) ShowReady() {
	e.show(Header, "System Ready")
}

// ShowWaiting shows the idle screen.
func (e *Emitter) ShowWaiting() {
	e.show(Header, "Waiting for bottle")
}

// ShowResult shows the outcome of one inspection.
func (e *Emitter) ShowResult(height float32, size classify.Category, water, accepted bool) {
	e.show(ResultLines(height, size, water, accepted)...)
}

// Clear blanks the display.
func (e *Emitter) Clear() {
	if err := e.display.Clear(); err != nil {
		Logf("Display clear failed: %v", err)
	}
}

// ResultLines renders the four result rows.
func ResultLines(height float32, size classify.Category, water, accepted bool) []string {
	waterText := "Absent"
	if water {
		waterText = "Present"
	}
	status := "REJECTED"
	if accepted {
		status = "ACCEPTED"
	}
	return []string{
		Header,
		fmt.Sprintf("H:%.1fcm %s", height, size),
		"Water:" + waterText,
		"Status:" + status,
	}
}

// Pad returns s cut or space-padded to exactly Cols characters.
func Pad(s string) string {
	if len(s) >= Cols {
		return s[:Cols]
	}
	return fmt.Sprintf("%-*s", Cols, s)
}

// show writes every row, blanking rows past the given lines, so nothing
// from the previous screen survives.
func (e *Emitter) show(lines ...string) {
	for row := 0; row < Rows; row++ {
		text := ""
		if row < len(lines) {
			text = lines[row]
		}
		if err := e.display.SetCursor(0, row); err != nil {
			Logf("Display cursor failed: %v", err)
			continue
		}
		if err := e.display.Print(Pad(text)); err != nil {
			Logf("Display write failed: %v", err)
		}
	}
}
