package render

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/braille"
	"github.com/itohio/gobraille/pkg/command"
)

// Driver moves the physical actuator channels.
type Driver interface {
	SetPulse(ch actuator.Channel, p actuator.PulseWidth) error
}

// State carries the render settings between commands. Handle takes the
// current state and returns the next one; there is no hidden mode flag.
type State struct {
	Dual       bool
	CharDelay  time.Duration
	ServoDelay time.Duration
	Debug      bool
}

// StateOf builds render settings from a parameter document.
func StateOf(p command.Params) State {
	return State{
		Dual:       p.DualServo,
		CharDelay:  p.CharInterval(),
		ServoDelay: p.ServoSettle(),
		Debug:      p.DebugMode,
	}
}

// DefaultState is the cell's boot state.
func DefaultState() State {
	return StateOf(command.DefaultParams())
}

// Controller walks classified commands through the encode, split, map,
// drive pipeline.
type Controller struct {
	drv   Driver
	nt    Notifier
	clock clockwork.Clock
}

// New builds a controller. A nil clock uses the real one.
func New(drv Driver, nt Notifier, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		drv:   drv,
		nt:    nt,
		clock: clock,
	}
}

// Handle applies one command under the given settings and returns the
// settings for the next command. Callers drive Handle from a single
// goroutine; a text render blocks the caller for its full settle schedule
// and cannot be interrupted.
func (c *Controller) Handle(st State, cmd command.Command) State {
	switch cmd.Kind {
	case command.KindDual:
		st.Dual = cmd.Dual
		c.nt.DualMode(cmd.Dual)

	case command.KindText:
		c.renderText(st, cmd.Text)

	case command.KindParams:
		st = StateOf(cmd.Params)
		c.nt.ParamsApplied(cmd.Params)
		if cmd.Params.Text != "" {
			c.renderText(st, cmd.Params.Text)
		}

	case command.KindBadParams:
		// Prior settings stay in force.
		c.nt.BadParams(cmd.Raw, cmd.Err)

	default:
		c.nt.Unknown(cmd.Raw)
	}
	return st
}

// Home drives both channels to the rest position.
func (c *Controller) Home() {
	c.setPulse(actuator.ChannelA, actuator.Home)
	c.setPulse(actuator.ChannelB, actuator.Home)
}

// renderText drives the cell through the text one character at a time.
// Channel A always carries the high half; channel B carries the low half in
// dual mode and is parked at home otherwise, never left where the previous
// character put it.
func (c *Controller) renderText(st State, text string) {
	for _, r := range text {
		pat := braille.Encode(r)
		hi, lo := pat.Split()

		pa := actuator.Pulse(hi)
		pb := actuator.Pulse(lo)
		if !st.Dual {
			pb = actuator.Home
		}

		c.setPulse(actuator.ChannelA, pa)
		c.setPulse(actuator.ChannelB, pb)
		c.nt.Trace(r, pat, pa, pb)

		// Let the actuators reach position, then hold the character for
		// the reader before moving on.
		c.clock.Sleep(st.ServoDelay)
		c.clock.Sleep(st.CharDelay)
	}
}

// setPulse reports drive failures without stopping the render; the cell
// degrades to a wrong position, not a halt.
func (c *Controller) setPulse(ch actuator.Channel, p actuator.PulseWidth) {
	if err := c.drv.SetPulse(ch, p); err != nil {
		c.nt.DriveError(ch, err)
	}
}
