// Package link carries the diagnostic stream over a serial port.
package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/itohio/bottlesort/pkg/diag"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the firmware UART.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size of the records channel.
	DefaultBufferSize = 100
)

// ErrDisconnected is reported by Err when the port reached end of file.
var ErrDisconnected = errors.New("serial port disconnected")

// Port is a serial port found on the host.
type Port struct {
	Name        string
	Description string
}

// Ports returns the serial ports available on the host.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial is a diagnostic stream carried over a serial port. A host-side
// station writes lines to it; a monitor reads and parses lines from a
// firmware station.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      io.ReadWriteCloser
	records   chan diag.Record
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	reading   bool
	err       error
}

var _ io.WriteCloser = (*Serial)(nil)

// New creates a Serial for port. Zero baudRate or bufSize pick the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		records:  make(chan diag.Record, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect opens the serial port.
func (s *Serial) Connect() error {
	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}
	if err := s.attach(port); err != nil {
		port.Close()
		return err
	}
	return nil
}

func (s *Serial) attach(conn io.ReadWriteCloser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}
	s.conn = conn
	s.connected = true
	return nil
}

// Listen starts parsing incoming lines into Records.
func (s *Serial) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return fmt.Errorf("not connected")
	}
	if s.reading {
		return nil
	}
	s.reading = true
	go s.readRecords(s.conn)
	return nil
}

// Records returns the channel of parsed records. It is closed by Close.
func (s *Serial) Records() <-chan diag.Record {
	return s.records
}

// Write sends raw bytes to the port.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return 0, fmt.Errorf("not connected")
	}
	n, err := s.conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write diagnostic line: %w", err)
	}
	return n, nil
}

// IsConnected reports whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Err returns the error that ended reading, or nil if the stream is still
// open or was closed with Close.
func (s *Serial) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close closes the port and the records channel.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.connected {
		return nil
	}
	s.disconnect()
	return nil
}

// disconnect releases the port and closes the records channel. The caller
// holds mu and has checked connected, so the channel is closed once.
func (s *Serial) disconnect() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		s.conn = nil
	}
	s.connected = false
	close(s.records)
}

// readRecords reads lines until the port closes, skipping lines that are
// not diagnostic records (boot messages, warnings). If the port ends on its
// own, the stream is disconnected and Err reports why.
func (s *Serial) readRecords(r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readRecords: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, err := diag.Parse(line)
		if err != nil {
			log.Printf("Skipping line %q: %v", line, err)
			continue
		}

		s.mu.RLock()
		if !s.connected {
			s.mu.RUnlock()
			return
		}
		select {
		case s.records <- record:
		case <-s.ctx.Done():
			s.mu.RUnlock()
			return
		default:
			log.Printf("Records channel full, dropping record")
		}
		s.mu.RUnlock()
	}

	err := scanner.Err()
	if err == nil {
		err = ErrDisconnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		// Closed by Close.
		return
	}
	log.Printf("Serial port %s stopped: %v", s.port, err)
	s.err = err
	s.disconnect()
}
