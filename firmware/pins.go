//go:build tinygo

package main

import "machine"

const (
	// Servo pins. Both sit on PWM slice 0: GP16 drives channel A (high
	// half of the pattern), GP17 drives channel B (low half).
	PIN_SERVO_A = machine.GP16
	PIN_SERVO_B = machine.GP17

	// Serial configuration
	// Requests are short terminated lines (1000 bytes max) and replies are
	// one CSV line per event. 9600 baud moves ~960 bytes/sec, plenty for a
	// display that holds each character for seconds.
	UART_BAUD_RATE = 9600
)
