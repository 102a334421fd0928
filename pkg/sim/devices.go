package sim

import (
	"strings"
	"sync"
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/ranging"
)

var (
	_ hw.InputPin   = (*Pin)(nil)
	_ hw.OutputPin  = (*Pin)(nil)
	_ hw.PulseInput = (*Echo)(nil)
	_ hw.ADC        = (*ADC)(nil)
	_ hw.Servo      = (*Servo)(nil)
	_ hw.Display    = (*Display)(nil)
)

// Edge is a recorded level change of a simulated pin.
type Edge struct {
	At   time.Time
	High bool
}

// Pin is a simulated digital pin. Writes are recorded only when the level
// actually changes.
type Pin struct {
	mu      sync.RWMutex
	clock   hw.Clock
	level   bool
	history []Edge
}

// NewPin creates a pin at the given initial level.
func NewPin(clock hw.Clock, level bool) *Pin {
	return &Pin{clock: clock, level: level}
}

// Get returns the current level.
func (p *Pin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

// Set drives the pin.
func (p *Pin) Set(high bool) {
	now := p.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.level == high {
		return
	}
	p.level = high
	p.history = append(p.history, Edge{At: now, High: high})
}

// History returns a copy of all recorded level changes.
func (p *Pin) History() []Edge {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Edge(nil), p.history...)
}

// Reset forgets the recorded history.
func (p *Pin) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
}

// Echo simulates the echo line of an ultrasonic rangefinder looking down at
// a target distance cm away.
type Echo struct {
	mu       sync.RWMutex
	clock    hw.Clock
	distance float32
	silent   bool
	pings    int
}

// NewEcho creates an echo line that reports the empty belt.
func NewEcho(clock hw.Clock) *Echo {
	return &Echo{clock: clock, distance: ranging.MountingHeight}
}

// SetDistance sets the distance to the reflecting surface.
func (e *Echo) SetDistance(cm float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.distance = cm
	e.silent = false
}

// Silence makes the rangefinder return no echo at all.
func (e *Echo) Silence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.silent = true
}

// Pings returns how many pulses were measured.
func (e *Echo) Pings() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pings
}

// PulseWidth blocks for the round trip and returns it, or blocks for the
// whole timeout and returns 0 when silenced.
func (e *Echo) PulseWidth(timeout time.Duration) time.Duration {
	e.mu.Lock()
	e.pings++
	silent := e.silent
	width := RoundTrip(e.distance)
	e.mu.Unlock()

	if silent || width > timeout {
		e.clock.Sleep(timeout)
		return 0
	}
	e.clock.Sleep(width)
	return width
}

// RoundTrip converts a distance in cm to the echo pulse width.
func RoundTrip(cm float32) time.Duration {
	us := float64(cm) * 2 / ranging.SpeedOfSound
	return time.Duration(us * float64(time.Microsecond))
}

// ADC simulates an analog channel. Readings are consumed in order; the last
// one repeats once the list is exhausted.
type ADC struct {
	mu       sync.Mutex
	readings []uint16
	next     int
	reads    int
}

// NewADC creates a channel that always reads level.
func NewADC(level uint16) *ADC {
	return &ADC{readings: []uint16{level}}
}

// SetReadings replaces the reading sequence.
func (a *ADC) SetReadings(readings ...uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(readings) == 0 {
		readings = []uint16{0}
	}
	a.readings = append([]uint16(nil), readings...)
	a.next = 0
}

// Reads returns how many times the channel was sampled.
func (a *ADC) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// Get returns the next reading.
func (a *ADC) Get() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.readings[a.next]
	if a.next < len(a.readings)-1 {
		a.next++
	}
	a.reads++
	return v
}

// Step is one recorded servo command.
type Step struct {
	At    time.Time
	Angle int
}

// Servo records every commanded angle.
type Servo struct {
	mu      sync.RWMutex
	clock   hw.Clock
	angle   int
	history []Step
}

// NewServo creates a servo resting at 0 degrees.
func NewServo(clock hw.Clock) *Servo {
	return &Servo{clock: clock}
}

// SetAngle commands a new angle.
func (s *Servo) SetAngle(degrees int) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle = degrees
	s.history = append(s.history, Step{At: now, Angle: degrees})
}

// Angle returns the last commanded angle.
func (s *Servo) Angle() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.angle
}

// History returns a copy of all commands.
func (s *Servo) History() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Step(nil), s.history...)
}

// Reset forgets the recorded commands.
func (s *Servo) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Display size.
const (
	Cols = 20
	Rows = 4
)

// Display is a simulated 20x4 character LCD.
type Display struct {
	mu       sync.RWMutex
	cells    [Rows][Cols]byte
	col, row int
	writes   int
}

// NewDisplay creates a blank display.
func NewDisplay() *Display {
	d := &Display{}
	d.clear()
	return d
}

func (d *Display) clear() {
	for r := range d.cells {
		for c := range d.cells[r] {
			d.cells[r][c] = ' '
		}
	}
	d.col, d.row = 0, 0
}

// Clear blanks the display and homes the cursor.
func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clear()
	return nil
}

// SetCursor moves the cursor. Out of range positions are clamped.
func (d *Display) SetCursor(col, row int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.col = min(max(col, 0), Cols-1)
	d.row = min(max(row, 0), Rows-1)
	return nil
}

// Print writes s at the cursor. Characters past the last column are dropped.
func (d *Display) Print(s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	for i := 0; i < len(s) && d.col < Cols; i++ {
		d.cells[d.row][d.col] = s[i]
		d.col++
	}
	return nil
}

// Lines returns the visible rows with trailing spaces trimmed.
func (d *Display) Lines() [Rows]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out [Rows]string
	for r := range d.cells {
		out[r] = strings.TrimRight(string(d.cells[r][:]), " ")
	}
	return out
}

// Writes returns how many Print calls were made.
func (d *Display) Writes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes
}
