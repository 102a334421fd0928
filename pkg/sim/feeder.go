package sim

import (
	"context"
	"time"

	"github.com/itohio/bottlesort/pkg/config"
)

// Feeder places the configured bottles on a bench one after another, in
// real time, cycling through the list until ctx is cancelled.
type Feeder struct {
	cfg   *config.MockConfig
	bench *Bench
}

// NewFeeder creates a feeder. A nil cfg uses the default mock settings.
func NewFeeder(cfg *config.MockConfig, bench *Bench) *Feeder {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}
	return &Feeder{cfg: cfg, bench: bench}
}

// Run blocks until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context) {
	if len(f.cfg.Bottles) == 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(f.cfg.Period)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		b := f.cfg.Bottles[i%len(f.cfg.Bottles)]
		f.bench.PlaceBottle(Bottle{Height: b.Height, Water: b.Water})

		select {
		case <-ctx.Done():
			f.bench.RemoveBottle()
			return
		case <-time.After(f.cfg.Dwell):
		}
		f.bench.RemoveBottle()
	}
}
