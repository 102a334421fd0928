//go:build tinygo

package main

import "machine"

const (
	// Presence sensor (active low)
	PIN_BEAM = machine.D1

	// Ultrasonic rangefinder
	PIN_TRIGGER = machine.D2
	PIN_ECHO    = machine.D3

	// Gate servo
	PIN_SERVO = machine.D6

	// Status outputs
	PIN_GREEN  = machine.D7
	PIN_RED    = machine.D8
	PIN_BUZZER = machine.D9

	// Capacitive liquid probe
	PIN_PROBE = machine.A0

	// ADC configuration
	ADC_REFERENCE_MV = 3300
	ADC_RESOLUTION   = 10 // 0-1023, the scale the liquid threshold is defined on

	// LCD backpack (SDA=D4, SCL=D5)
	LCD_ADDRESS = 0x27

	// Servo pulse range for 0 and 180 degrees, in microseconds
	SERVO_MIN_US = 544
	SERVO_MAX_US = 2400

	// Diagnostic stream UART
	UART_BAUD_RATE = 9600
)

// SERVO_PWM is the timer peripheral that can drive PIN_SERVO.
var SERVO_PWM = machine.TCC0
