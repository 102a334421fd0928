package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/bottlesort/pkg/diag"
	"github.com/itohio/bottlesort/pkg/hw"
	"github.com/itohio/bottlesort/pkg/link"
	"github.com/itohio/bottlesort/pkg/rpi"
	"github.com/itohio/bottlesort/pkg/station"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := link.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return nil
	},
}

var (
	monitorPort string
	monitorBaud int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Read the diagnostic stream of a firmware station over serial",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := monitorPort
		if port == "" {
			port = cfg.Diagnostics.Port
		}
		if port == "" {
			return fmt.Errorf("no serial port given (use --port or diagnostics.port)")
		}

		stream := link.New(port, monitorBaud, 0)
		if err := stream.Connect(); err != nil {
			return err
		}
		if err := stream.Listen(); err != nil {
			stream.Close()
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			stream.Close()
		}()

		var tally diag.Tally
		for r := range stream.Records() {
			tally.Add(r)
			fmt.Println(r)
		}
		fmt.Println(tally)
		if ctx.Err() != nil {
			return nil
		}
		return stream.Err()
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Open and close the gate once",
	RunE: func(cmd *cobra.Command, args []string) error {
		board, err := rpi.Open(cfg)
		if err != nil {
			return err
		}
		defer board.Close()

		g := station.New(board.Peripherals(), hw.SystemClock{}, nil).Gate()
		g.Home()
		g.Open()
		g.Close()
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorPort, "port", "p", "", "serial port of the firmware station")
	monitorCmd.Flags().IntVar(&monitorBaud, "baud", link.DefaultBaudRate, "baud rate")
}
