// Package liquid decides whether a bottle still holds liquid by averaging a
// capacitive probe.
package liquid

import (
	"time"

	"github.com/itohio/bottlesort/pkg/hw"
)

const (
	// Samples taken per decision.
	Samples = 5
	// Spacing between samples.
	Spacing = 10 * time.Millisecond
	// Threshold on the 0-1023 scale. The average must be strictly above it.
	Threshold = 500
)

// Sampler reads the probe.
type Sampler struct {
	adc   hw.ADC
	clock hw.Clock
}

// New creates a Sampler.
func New(adc hw.ADC, clock hw.Clock) *Sampler {
	return &Sampler{adc: adc, clock: clock}
}

// Sample takes Samples readings Spacing apart and reports liquid presence.
// It blocks for about Samples*Spacing.
func (s *Sampler) Sample() bool {
	var readings [Samples]uint16
	for i := range readings {
		readings[i] = s.adc.Get()
		s.clock.Sleep(Spacing)
	}
	return Detect(Average(readings[:]))
}

// Average returns the integer-truncated mean of readings.
func Average(readings []uint16) uint16 {
	if len(readings) == 0 {
		return 0
	}
	var sum uint32
	for _, r := range readings {
		sum += uint32(r)
	}
	return uint16(sum / uint32(len(readings)))
}

// Detect applies the threshold to an averaged reading.
func Detect(avg uint16) bool {
	return avg > Threshold
}
