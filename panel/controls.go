package main

import (
	"context"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/bottlesort/pkg/classify"
	"github.com/itohio/bottlesort/pkg/ranging"
	"github.com/itohio/bottlesort/pkg/sim"
)

const maxHistory = 50

// createControls builds the right-hand column: bottle controls, the
// automatic feeder toggle and the inspection history.
func createControls(ctx context.Context, state *appState) fyne.CanvasObject {
	heightLabel := widget.NewLabel("")
	heightSlider := widget.NewSlider(1, float64(ranging.MountingHeight))
	heightSlider.Step = 0.5
	heightSlider.OnChanged = func(v float64) {
		heightLabel.SetText(fmt.Sprintf("Height: %.1fcm (%s)", v, classify.Classify(float32(v))))
	}
	heightSlider.SetValue(10)

	waterCheck := widget.NewCheck("Contains water", nil)

	placeBtn := widget.NewButtonWithIcon("Place", theme.ContentAddIcon(), func() {
		b := sim.Bottle{Height: float32(heightSlider.Value), Water: waterCheck.Checked}
		state.bench.PlaceBottle(b)
		log.Printf("Placed bottle %.1fcm water=%t", b.Height, b.Water)
	})
	removeBtn := widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), func() {
		state.bench.RemoveBottle()
	})

	var stopFeeder context.CancelFunc
	feederCheck := widget.NewCheck("Automatic feeder", func(on bool) {
		if stopFeeder != nil {
			stopFeeder()
			stopFeeder = nil
		}
		if on {
			var feederCtx context.Context
			feederCtx, stopFeeder = context.WithCancel(ctx)
			go sim.NewFeeder(&state.cfg.Mock, state.bench).Run(feederCtx)
			placeBtn.Disable()
			removeBtn.Disable()
		} else {
			placeBtn.Enable()
			removeBtn.Enable()
		}
	})

	state.stateLabel = widget.NewLabel("")
	state.tallyLabel = widget.NewLabel("")
	state.historyList = widget.NewList(
		state.historyLen,
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			return l
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(state.historyAt(i))
		},
	)

	top := container.NewVBox(
		widget.NewLabelWithStyle("Bottle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		heightLabel,
		heightSlider,
		waterCheck,
		container.NewGridWithColumns(2, placeBtn, removeBtn),
		feederCheck,
		widget.NewSeparator(),
		state.stateLabel,
		state.tallyLabel,
	)

	c := container.NewBorder(top, nil, nil, nil, state.historyList)
	return container.NewGridWrap(fyne.NewSize(380, 540), c)
}
