package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/bottlesort/pkg/config"
	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/link"
	"github.com/itohio/bottlesort/pkg/rpi"
	"github.com/itohio/bottlesort/pkg/sim"
	"github.com/itohio/bottlesort/pkg/station"
	"github.com/spf13/cobra"
)

var (
	runMock     bool
	runDiagPort string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the inspection loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runMock {
			cfg.Backend = config.BackendMock
		}
		if runDiagPort != "" {
			cfg.Diagnostics.Port = runDiagPort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := io.Writer(os.Stdout)
		if cfg.Diagnostics.Port != "" {
			stream := link.New(cfg.Diagnostics.Port, cfg.Diagnostics.Baud, 0)
			if err := stream.Connect(); err != nil {
				return err
			}
			defer stream.Close()
			out = io.MultiWriter(os.Stdout, stream)
			log.Printf("Copying diagnostics to %s", cfg.Diagnostics.Port)
		}

		var p hw.Peripherals
		switch cfg.Backend {
		case config.BackendMock:
			bench := sim.NewBench(hw.SystemClock{})
			go sim.NewFeeder(&cfg.Mock, bench).Run(ctx)
			p = bench.Peripherals()
			log.Printf("Using simulated bench")
		default:
			board, err := rpi.Open(cfg)
			if err != nil {
				return err
			}
			defer board.Close()
			p = board.Peripherals()
		}

		err := station.New(p, hw.SystemClock{}, out).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runMock, "mock", false, "use the simulated bench instead of GPIO hardware")
	runCmd.Flags().StringVarP(&runDiagPort, "port", "p", "", "serial port that receives a copy of the diagnostic stream")
}
