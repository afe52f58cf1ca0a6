package cell

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/itohio/gobraille/pkg/actuator"
	"github.com/itohio/gobraille/pkg/braille"
	"github.com/itohio/gobraille/pkg/command"
)

// MessageKind identifies a decoded reply line from the cell.
type MessageKind uint8

const (
	// MessageRaw is a line that matched no known reply format.
	MessageRaw MessageKind = iota
	// MessageReady announces that the cell booted and is listening.
	MessageReady
	// MessageDual acknowledges a display mode change.
	MessageDual
	// MessageParams acknowledges an applied parameter document.
	MessageParams
	// MessageTrace reports one rendered character (debug mode only).
	MessageTrace
	// MessageError reports a rejected request or a failed actuator write.
	MessageError
)

// String returns a short name for logging.
func (k MessageKind) String() string {
	switch k {
	case MessageRaw:
		return "raw"
	case MessageReady:
		return "ready"
	case MessageDual:
		return "dual"
	case MessageParams:
		return "params"
	case MessageTrace:
		return "trace"
	case MessageError:
		return "error"
	}
	return "invalid"
}

// Message represents one decoded reply line from the cell. Raw always
// carries the original line; the other fields are populated per kind.
type Message struct {
	Kind MessageKind
	Raw  string

	Dual    bool           // MessageDual
	Params  command.Params // MessageParams (Text is never echoed back)
	Char    rune           // MessageTrace
	Pattern braille.Pattern
	PulseA  actuator.PulseWidth
	PulseB  actuator.PulseWidth
	Scope   string // MessageError: which request failed
	Detail  string // MessageError: free-text reason
}

// parseMessage decodes a reply line. The free-text field of every reply
// comes last on the wire, so splitting on commas a fixed number of times
// keeps commas inside payloads intact. Lines that do not decode are
// returned as MessageRaw.
func parseMessage(line string) Message {
	msg := Message{Kind: MessageRaw, Raw: line}

	switch {
	case line == command.ReplyOK+","+command.StatusReady:
		msg.Kind = MessageReady

	case strings.HasPrefix(line, command.ReplyOK+","+command.StatusDual+","):
		flag := line[len(command.ReplyOK+","+command.StatusDual+","):]
		if flag != "0" && flag != "1" {
			return msg
		}
		msg.Kind = MessageDual
		msg.Dual = flag == "1"

	case strings.HasPrefix(line, command.ReplyOK+","+command.StatusParams+","):
		parts := strings.Split(line, ",")
		if len(parts) != 6 {
			return msg
		}
		charDelay, err := strconv.Atoi(parts[2])
		if err != nil {
			return msg
		}
		servoDelay, err := strconv.Atoi(parts[3])
		if err != nil {
			return msg
		}
		dual, err := parseFlag(parts[4])
		if err != nil {
			return msg
		}
		debug, err := parseFlag(parts[5])
		if err != nil {
			return msg
		}
		msg.Kind = MessageParams
		msg.Params = command.Params{
			CharDelay:  charDelay,
			ServoDelay: servoDelay,
			DualServo:  dual,
			DebugMode:  debug,
		}

	case strings.HasPrefix(line, command.ReplyErr+","):
		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			return msg
		}
		msg.Kind = MessageError
		msg.Scope = parts[1]
		msg.Detail = parts[2]

	case strings.HasPrefix(line, command.ReplyDbg+","):
		parts := strings.SplitN(line, ",", 5)
		if len(parts) != 5 {
			return msg
		}
		pat, err := braille.ParsePattern(parts[1])
		if err != nil {
			return msg
		}
		pulseA, err := strconv.ParseUint(parts[2], 10, 16)
		if err != nil {
			return msg
		}
		pulseB, err := strconv.ParseUint(parts[3], 10, 16)
		if err != nil {
			return msg
		}
		char, _ := utf8.DecodeRuneInString(parts[4])
		if char == utf8.RuneError {
			return msg
		}
		msg.Kind = MessageTrace
		msg.Pattern = pat
		msg.PulseA = actuator.PulseWidth(pulseA)
		msg.PulseB = actuator.PulseWidth(pulseB)
		msg.Char = char
	}

	return msg
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}
