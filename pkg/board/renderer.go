package board

import (
	"fmt"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/bottlesort/pkg/ranging"
	"github.com/itohio/bottlesort/pkg/sim"
)

var (
	colorBackground = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colorLCD        = color.RGBA{R: 30, G: 60, B: 160, A: 255}
	colorLCDText    = color.RGBA{R: 230, G: 240, B: 255, A: 255}
	colorGreenOn    = color.RGBA{R: 40, G: 220, B: 60, A: 255}
	colorRedOn      = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	colorLEDOff     = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	colorBelt       = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	colorGate       = color.RGBA{R: 250, G: 200, B: 40, A: 255}
	colorBottle     = color.RGBA{R: 140, G: 200, B: 230, A: 180}
	colorWater      = color.RGBA{R: 40, G: 90, B: 220, A: 220}
	colorLabel      = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// boardRenderer renders the board widget.
type boardRenderer struct {
	board *BoardWidget

	background *canvas.Rectangle
	lcd        *canvas.Rectangle
	rows       [sim.Rows]*canvas.Text
	green      *canvas.Circle
	red        *canvas.Circle
	buzzer     *canvas.Text
	belt       *canvas.Line
	gate       *canvas.Line
	bottle     *canvas.Rectangle
	water      *canvas.Rectangle
	angle      *canvas.Text

	objects []fyne.CanvasObject
}

func newRenderer(b *BoardWidget) *boardRenderer {
	r := &boardRenderer{
		board:      b,
		background: canvas.NewRectangle(colorBackground),
		lcd:        canvas.NewRectangle(colorLCD),
		green:      canvas.NewCircle(colorLEDOff),
		red:        canvas.NewCircle(colorLEDOff),
		buzzer:     canvas.NewText("", colorLabel),
		belt:       canvas.NewLine(colorBelt),
		gate:       canvas.NewLine(colorGate),
		bottle:     canvas.NewRectangle(colorBottle),
		water:      canvas.NewRectangle(colorWater),
		angle:      canvas.NewText("", colorLabel),
	}
	r.belt.StrokeWidth = 4
	r.gate.StrokeWidth = 6

	r.objects = []fyne.CanvasObject{r.background, r.lcd}
	for i := range r.rows {
		t := canvas.NewText("", colorLCDText)
		t.TextStyle = fyne.TextStyle{Monospace: true}
		r.rows[i] = t
		r.objects = append(r.objects, t)
	}
	r.objects = append(r.objects, r.green, r.red, r.buzzer, r.belt, r.bottle, r.water, r.gate, r.angle)

	r.Refresh()
	return r
}

// MinSize returns the minimum size of the widget.
func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(520, 420)
}

// Layout arranges the static parts. Moving parts are placed in Refresh.
func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.Refresh()
}

// Refresh redraws the board from the current snapshot.
func (r *boardRenderer) Refresh() {
	snap := r.board.Snapshot()
	size := r.board.Size()
	if size.Width == 0 || size.Height == 0 {
		size = r.MinSize()
	}

	const pad = 16
	textSize := float32(16)

	// Display panel
	charW := fyne.MeasureText("M", textSize, fyne.TextStyle{Monospace: true}).Width
	lineH := textSize * 1.4
	r.lcd.Move(fyne.NewPos(pad, pad))
	r.lcd.Resize(fyne.NewSize(charW*sim.Cols+2*pad, lineH*sim.Rows+pad))
	for i, t := range r.rows {
		t.Text = snap.Lines[i]
		t.TextSize = textSize
		t.Move(fyne.NewPos(2*pad, pad+pad/2+float32(i)*lineH))
		t.Refresh()
	}

	// LEDs and buzzer
	ledY := pad*2 + lineH*sim.Rows + pad
	const ledD = 24
	r.green.FillColor = colorLEDOff
	if snap.Green {
		r.green.FillColor = colorGreenOn
	}
	r.red.FillColor = colorLEDOff
	if snap.Red {
		r.red.FillColor = colorRedOn
	}
	r.green.Move(fyne.NewPos(pad, ledY))
	r.green.Resize(fyne.NewSize(ledD, ledD))
	r.red.Move(fyne.NewPos(pad+ledD*2, ledY))
	r.red.Resize(fyne.NewSize(ledD, ledD))
	r.green.Refresh()
	r.red.Refresh()

	r.buzzer.Text = ""
	if snap.Buzzer {
		r.buzzer.Text = "BEEP"
	}
	r.buzzer.Move(fyne.NewPos(pad+ledD*4, ledY))
	r.buzzer.Refresh()

	// Belt with the bottle on it, seen from the side
	beltY := size.Height - pad*2
	beltX0 := float32(pad)
	beltX1 := size.Width - pad
	r.belt.Position1 = fyne.NewPos(beltX0, beltY)
	r.belt.Position2 = fyne.NewPos(beltX1, beltY)
	r.belt.Refresh()

	maxH := beltY - ledY - ledD - pad*2
	scale := maxH / ranging.MountingHeight
	bottleW := float32(50)
	bottleX := (beltX0+beltX1)/2 - bottleW - pad
	if snap.Present {
		h := snap.Bottle.Height * scale
		r.bottle.Move(fyne.NewPos(bottleX, beltY-h))
		r.bottle.Resize(fyne.NewSize(bottleW, h))
		r.bottle.Show()
		if snap.Bottle.Water {
			r.water.Move(fyne.NewPos(bottleX, beltY-h/3))
			r.water.Resize(fyne.NewSize(bottleW, h/3))
			r.water.Show()
		} else {
			r.water.Hide()
		}
	} else {
		r.bottle.Hide()
		r.water.Hide()
	}

	// Gate: pivots on the belt, lies along it when closed and stands up
	// across the lane when open.
	pivot := fyne.NewPos((beltX0+beltX1)/2+pad, beltY)
	length := float64(maxH) * 0.6
	rad := float64(snap.Angle) * math.Pi / 360 // 180 degrees of servo = 90 degrees of arm
	r.gate.Position1 = pivot
	r.gate.Position2 = fyne.NewPos(pivot.X+float32(length*math.Cos(rad)), pivot.Y-float32(length*math.Sin(rad)))
	r.gate.Refresh()

	r.angle.Text = fmt.Sprintf("gate %d°", snap.Angle)
	r.angle.Move(fyne.NewPos(pivot.X, beltY+4))
	r.angle.Refresh()

	r.bottle.Refresh()
	r.water.Refresh()
}

// Objects returns all canvas objects.
func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy releases resources.
func (r *boardRenderer) Destroy() {}
