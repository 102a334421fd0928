package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backends.
const (
	BackendRPi  = "rpi"
	BackendMock = "mock"
)

// Config describes how a host station is wired. Inspection thresholds and
// timings are fixed in code and are not configurable.
type Config struct {
	Backend     string            `yaml:"backend"`
	Pins        PinsConfig        `yaml:"pins"`
	I2C         I2CConfig         `yaml:"i2c"`
	Servo       ServoConfig       `yaml:"servo"`
	Buzzer      BuzzerConfig      `yaml:"buzzer"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Mock        MockConfig        `yaml:"mock"`
}

// PinsConfig names the GPIO lines, as understood by periph's gpioreg.
type PinsConfig struct {
	Beam    string `yaml:"beam"`
	Trigger string `yaml:"trigger"`
	Echo    string `yaml:"echo"`
	Servo   string `yaml:"servo"`
	Green   string `yaml:"green"`
	Red     string `yaml:"red"`
	Buzzer  string `yaml:"buzzer"`
}

// I2CConfig contains the display and ADC bus settings.
type I2CConfig struct {
	Bus        string `yaml:"bus"` // empty selects the first bus
	LCDAddress uint16 `yaml:"lcd_address"`
	ADCAddress uint16 `yaml:"adc_address"`
	ADCChannel int    `yaml:"adc_channel"`
}

// ServoConfig contains the servo pulse range for 0 and 180 degrees.
type ServoConfig struct {
	MinPulse time.Duration `yaml:"min_pulse"`
	MaxPulse time.Duration `yaml:"max_pulse"`
}

// BuzzerConfig contains the drive frequency of a passive buzzer.
type BuzzerConfig struct {
	Frequency int `yaml:"frequency"` // Hz
}

// DiagnosticsConfig selects an optional serial port that receives a copy of
// the diagnostic stream.
type DiagnosticsConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// MockConfig drives the simulated bench.
type MockConfig struct {
	Period  time.Duration `yaml:"period"` // time between bottle arrivals
	Dwell   time.Duration `yaml:"dwell"`  // how long a bottle blocks the beam
	Bottles []MockBottle  `yaml:"bottles"`
}

// MockBottle is one simulated bottle.
type MockBottle struct {
	Height float32 `yaml:"height"` // cm
	Water  bool    `yaml:"water"`
}

// Default returns the wiring of the reference build.
func Default() *Config {
	return &Config{
		Backend: BackendRPi,
		Pins: PinsConfig{
			Beam:    "GPIO17",
			Trigger: "GPIO23",
			Echo:    "GPIO24",
			Servo:   "GPIO18",
			Green:   "GPIO5",
			Red:     "GPIO6",
			Buzzer:  "GPIO13",
		},
		I2C: I2CConfig{
			Bus:        "",
			LCDAddress: 0x27,
			ADCAddress: 0x48,
			ADCChannel: 0,
		},
		Servo: ServoConfig{
			MinPulse: 544 * time.Microsecond,
			MaxPulse: 2400 * time.Microsecond,
		},
		Buzzer: BuzzerConfig{
			Frequency: 2000,
		},
		Diagnostics: DiagnosticsConfig{
			Port: "", // stdout only
			Baud: 9600,
		},
		Mock: MockConfig{
			Period: 12 * time.Second,
			Dwell:  1500 * time.Millisecond,
			Bottles: []MockBottle{
				{Height: 10, Water: false},
				{Height: 30, Water: true},
				{Height: 20, Water: false},
			},
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRPi, BackendMock:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendRPi, BackendMock)
	}
	if c.Servo.MinPulse >= c.Servo.MaxPulse {
		return fmt.Errorf("servo min_pulse %v must be below max_pulse %v", c.Servo.MinPulse, c.Servo.MaxPulse)
	}
	if c.I2C.ADCChannel < 0 || c.I2C.ADCChannel > 3 {
		return fmt.Errorf("adc_channel %d out of range 0-3", c.I2C.ADCChannel)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Backend == "" {
		c.Backend = def.Backend
	}

	pins := []struct {
		v *string
		d string
	}{
		{&c.Pins.Beam, def.Pins.Beam},
		{&c.Pins.Trigger, def.Pins.Trigger},
		{&c.Pins.Echo, def.Pins.Echo},
		{&c.Pins.Servo, def.Pins.Servo},
		{&c.Pins.Green, def.Pins.Green},
		{&c.Pins.Red, def.Pins.Red},
		{&c.Pins.Buzzer, def.Pins.Buzzer},
	}
	for _, p := range pins {
		if *p.v == "" {
			*p.v = p.d
		}
	}

	if c.I2C.LCDAddress == 0 {
		c.I2C.LCDAddress = def.I2C.LCDAddress
	}
	if c.I2C.ADCAddress == 0 {
		c.I2C.ADCAddress = def.I2C.ADCAddress
	}

	if c.Servo.MinPulse == 0 {
		c.Servo.MinPulse = def.Servo.MinPulse
	}
	if c.Servo.MaxPulse == 0 {
		c.Servo.MaxPulse = def.Servo.MaxPulse
	}

	if c.Buzzer.Frequency == 0 {
		c.Buzzer.Frequency = def.Buzzer.Frequency
	}

	if c.Diagnostics.Baud == 0 {
		c.Diagnostics.Baud = def.Diagnostics.Baud
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.Dwell == 0 {
		c.Mock.Dwell = def.Mock.Dwell
	}
	if len(c.Mock.Bottles) == 0 {
		c.Mock.Bottles = def.Mock.Bottles
	}
}
