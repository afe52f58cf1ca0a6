//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/servo"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/command"
	"github.com/itohio/gobraille/pkg/render"
)

var (
	uart = machine.Serial

	parser *command.Parser
	ctrl   *render.Controller
	state  render.State
)

// servoDriver maps the two actuator channels onto PWM-driven servos.
type servoDriver struct {
	a servo.Servo
	b servo.Servo
}

func (d *servoDriver) SetPulse(ch actuator.Channel, p actuator.PulseWidth) error {
	s := d.a
	if ch == actuator.ChannelB {
		s = d.b
	}
	s.SetMicroseconds(int16(p))
	return nil
}

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Both servos share one PWM slice.
	array, err := servo.NewArray(machine.PWM0)
	if err != nil {
		panic(err)
	}
	servoA, err := array.Add(PIN_SERVO_A)
	if err != nil {
		panic(err)
	}
	servoB, err := array.Add(PIN_SERVO_B)
	if err != nil {
		panic(err)
	}

	nt := render.NewLineNotifier(uart, false)
	parser = command.NewParser(command.DefaultMaxLine, command.OverflowTruncate)
	ctrl = render.New(&servoDriver{a: servoA, b: servoB}, nt, nil)
	state = render.DefaultState()

	// Park the actuators before announcing readiness.
	ctrl.Home()
	nt.Ready()

	// Main loop
	for {
		// Check for serial input (non-blocking)
		processSerial()

		// Small delay to prevent a tight loop
		time.Sleep(100 * time.Microsecond)
	}
}

func processSerial() {
	// Read available bytes from serial
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if cmd, ok := parser.Push(data); ok {
			state = ctrl.Handle(state, cmd)
		}
	}
}
