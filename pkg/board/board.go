// Package board is a Fyne widget that draws a simulated inspection
// station: the 20x4 display, the status LEDs, the buzzer and the gate.
package board

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/bottlesort/pkg/sim"
)

// BoardWidget renders sim.Snapshot values.
type BoardWidget struct {
	widget.BaseWidget

	mu   sync.RWMutex
	snap sim.Snapshot
}

// New creates an empty board.
func New() *BoardWidget {
	b := &BoardWidget{}
	b.ExtendBaseWidget(b)
	return b
}

// Update replaces the displayed snapshot. Call it on the Fyne thread
// (fyne.Do) when updating from the station goroutine.
func (b *BoardWidget) Update(s sim.Snapshot) {
	b.mu.Lock()
	changed := s != b.snap
	b.snap = s
	b.mu.Unlock()

	if changed {
		b.Refresh()
	}
}

// Snapshot returns the snapshot currently shown.
func (b *BoardWidget) Snapshot() sim.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}

// CreateRenderer creates the widget renderer.
func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(b)
}
