package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/bottlesort/pkg/board"
	"github.com/itohio/bottlesort/pkg/config"
	"github.com/itohio/bottlesort/pkg/diag"
	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/sim"
	"github.com/itohio/bottlesort/pkg/station"
)

// refreshInterval throttles board redraws to ~30 FPS.
const refreshInterval = 33 * time.Millisecond

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		quietFlag  = flag.Bool("quiet", false, "Do not print the diagnostic stream to stdout")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application := app.NewWithID("com.itohio.bottlesort")
	window := application.NewWindow("Bottle Sorter")
	window.Resize(fyne.NewSize(900, 560))
	window.CenterOnScreen()

	out := io.Writer(os.Stdout)
	if *quietFlag {
		out = io.Discard
	}

	state := &appState{
		cfg:    cfg,
		bench:  sim.NewBench(hw.SystemClock{}),
		board:  board.New(),
		window: window,
	}
	state.station = station.New(state.bench.Peripherals(), hw.SystemClock{}, out)
	state.station.OnInspection(state.handleInspection)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := state.station.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Station stopped: %v", err)
		}
	}()
	go state.refreshLoop(ctx)

	window.SetContent(container.NewBorder(
		nil,
		nil,
		nil,
		createControls(ctx, state),
		state.board,
	))
	window.SetOnClosed(cancel)
	window.ShowAndRun()
}

// appState holds the panel state.
type appState struct {
	cfg     *config.Config
	bench   *sim.Bench
	station *station.Station
	board   *board.BoardWidget
	window  fyne.Window

	historyList *widget.List
	tallyLabel  *widget.Label
	stateLabel  *widget.Label

	mu      sync.Mutex
	history []string
	tally   diag.Tally
}

// refreshLoop copies the bench outputs into the board widget until ctx ends.
func (s *appState) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := s.bench.Snapshot()
		st := s.station.State().String()
		fyne.Do(func() {
			s.board.Update(snap)
			if s.stateLabel != nil {
				s.stateLabel.SetText(st)
			}
		})
	}
}

// handleInspection runs on the station goroutine.
func (s *appState) handleInspection(insp station.Inspection) {
	rec := insp.Record()

	s.mu.Lock()
	s.tally.Add(rec)
	s.history = append([]string{rec.String()}, s.history...)
	if len(s.history) > maxHistory {
		s.history = s.history[:maxHistory]
	}
	tally := s.tally.String()
	s.mu.Unlock()

	fyne.Do(func() {
		if s.historyList != nil {
			s.historyList.Refresh()
		}
		if s.tallyLabel != nil {
			s.tallyLabel.SetText(tally)
		}
	})
}

func (s *appState) historyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *appState) historyAt(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.history) {
		return ""
	}
	return s.history[i]
}
