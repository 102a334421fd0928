package rpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
	"periph.io/x/periph/conn/physic"
)

const (
	minPulse = 544 * time.Microsecond
	maxPulse = 2400 * time.Microsecond
)

func TestServoPulse(t *testing.T) {
	tests := []struct {
		degrees int
		want    time.Duration
	}{
		{degrees: 0, want: 544 * time.Microsecond},
		{degrees: 90, want: 1472 * time.Microsecond},
		{degrees: 180, want: 2400 * time.Microsecond},
		{degrees: -10, want: 544 * time.Microsecond},
		{degrees: 200, want: 2400 * time.Microsecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ServoPulse(tt.degrees, minPulse, maxPulse), "%d degrees", tt.degrees)
	}
}

func TestServoDuty(t *testing.T) {
	assert.Equal(t, gpio.Duty(456340), ServoDuty(0, minPulse, maxPulse))
	assert.Equal(t, gpio.Duty(1234803), ServoDuty(90, minPulse, maxPulse))
	assert.Equal(t, gpio.Duty(2013265), ServoDuty(180, minPulse, maxPulse))
}

func TestScaleADS1115(t *testing.T) {
	tests := []struct {
		raw  int32
		want uint16
	}{
		{raw: -100, want: 0},
		{raw: 0, want: 0},
		{raw: 16000, want: 500},
		{raw: 16032, want: 501},
		{raw: 32767, want: 1023},
		{raw: 40000, want: 1023},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleADS1115(tt.raw), "raw %d", tt.raw)
	}
}

func TestInput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17"}
	in, err := NewInput(pin)
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, pin.P)

	pin.L = gpio.Low
	assert.False(t, in.Get())
	pin.L = gpio.High
	assert.True(t, in.Get())
}

func TestOutput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO5", L: gpio.High}
	out, err := NewOutput(pin)
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, pin.L, "driven low on setup")

	out.Set(true)
	assert.Equal(t, gpio.High, pin.L)
	out.Set(false)
	assert.Equal(t, gpio.Low, pin.L)
}

func TestBuzzer(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO13"}
	b, err := NewBuzzer(pin, 2000)
	require.NoError(t, err)

	b.Set(true)
	assert.Equal(t, gpio.DutyHalf, pin.D)
	assert.Equal(t, 2*physic.KiloHertz, pin.F)

	b.Set(false)
	assert.Equal(t, gpio.Low, pin.L)
}

func TestServo(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO18"}
	s := NewServo(pin, minPulse, maxPulse)

	s.SetAngle(180)
	assert.Equal(t, ServoDuty(180, minPulse, maxPulse), pin.D)
	assert.Equal(t, 50*physic.Hertz, pin.F)
}

func newEchoPin(t *testing.T) (*Echo, *gpiotest.Pin) {
	t.Helper()
	pin := &gpiotest.Pin{N: "GPIO24", EdgesChan: make(chan gpio.Level)}
	e, err := NewEcho(pin)
	require.NoError(t, err)
	return e, pin
}

func TestNewEcho_needsEdges(t *testing.T) {
	_, err := NewEcho(&gpiotest.Pin{N: "GPIO24"})
	assert.Error(t, err)
}

func TestEcho_PulseWidth(t *testing.T) {
	e, pin := newEchoPin(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		pin.EdgesChan <- gpio.High
		time.Sleep(20 * time.Millisecond)
		pin.EdgesChan <- gpio.Low
	}()

	w := e.PulseWidth(time.Second)
	assert.GreaterOrEqual(t, w, 15*time.Millisecond)
	assert.Less(t, w, time.Second)
}

func TestEcho_PulseWidth_noRise(t *testing.T) {
	e, _ := newEchoPin(t)

	start := time.Now()
	assert.Zero(t, e.PulseWidth(10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestEcho_PulseWidth_noFall(t *testing.T) {
	e, pin := newEchoPin(t)

	go func() {
		time.Sleep(5 * time.Millisecond)
		pin.EdgesChan <- gpio.High
	}()

	assert.Zero(t, e.PulseWidth(50*time.Millisecond))
}
