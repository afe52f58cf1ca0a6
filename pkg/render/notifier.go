package render

import (
	"fmt"
	"io"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/braille"
	"github.com/itohio/gobraille/pkg/command"
)

// Notifier receives status and trace events from the controller. None of
// the notifications may block for long; the controller calls them inline
// between actuator writes.
type Notifier interface {
	DualMode(on bool)
	ParamsApplied(p command.Params)
	BadParams(raw string, err error)
	Unknown(raw string)
	DriveError(ch actuator.Channel, err error)
	Trace(char rune, pat braille.Pattern, a, b actuator.PulseWidth)
}

// LineNotifier formats notifications as reply lines on a writer, one line
// per event. The free-text field always comes last so commas in payloads
// survive naive splitting on the host side.
type LineNotifier struct {
	w     io.Writer
	debug bool
}

var _ Notifier = (*LineNotifier)(nil)

// NewLineNotifier returns a notifier writing to w. Traces are emitted only
// while debug is on; the flag follows every applied parameter document.
func NewLineNotifier(w io.Writer, debug bool) *LineNotifier {
	return &LineNotifier{
		w:     w,
		debug: debug,
	}
}

// Ready announces that the cell is booted and listening.
func (l *LineNotifier) Ready() {
	fmt.Fprintf(l.w, "%s,%s\n", command.ReplyOK, command.StatusReady)
}

// DualMode acknowledges a mode change.
func (l *LineNotifier) DualMode(on bool) {
	fmt.Fprintf(l.w, "%s,%s,%s\n", command.ReplyOK, command.StatusDual, digit(on))
}

// ParamsApplied acknowledges an applied parameter document and adopts its
// debug flag.
func (l *LineNotifier) ParamsApplied(p command.Params) {
	l.debug = p.DebugMode
	fmt.Fprintf(l.w, "%s,%s,%d,%d,%s,%s\n",
		command.ReplyOK, command.StatusParams,
		p.CharDelay, p.ServoDelay, digit(p.DualServo), digit(p.DebugMode))
}

// BadParams reports a parameter document that failed to decode.
func (l *LineNotifier) BadParams(raw string, err error) {
	fmt.Fprintf(l.w, "%s,%s,%v\n", command.ReplyErr, command.StatusParams, err)
}

// Unknown reports an unrecognized request line.
func (l *LineNotifier) Unknown(raw string) {
	fmt.Fprintf(l.w, "%s,%s,%s\n", command.ReplyErr, command.StatusUnknown, raw)
}

// DriveError reports a failed actuator write.
func (l *LineNotifier) DriveError(ch actuator.Channel, err error) {
	fmt.Fprintf(l.w, "%s,%s,%s,%v\n", command.ReplyErr, command.StatusDrive, ch, err)
}

// Trace records one rendered character while debug mode is on.
func (l *LineNotifier) Trace(char rune, pat braille.Pattern, a, b actuator.PulseWidth) {
	if !l.debug {
		return
	}
	fmt.Fprintf(l.w, "%s,%s,%d,%d,%c\n", command.ReplyDbg, pat, a, b, char)
}

func digit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
