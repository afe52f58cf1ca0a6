package cell

import (
	"fmt"
	"strings"

	"github.com/itohio/gobraille/pkg/command"
)

// Device defines the interface for braille cell devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Messages() <-chan Message
	RenderText(text string) error
	SetDualMode(on bool) error
	SendParams(p command.Params) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// validateText rejects text the cell would refuse or mangle: empty input,
// embedded line terminators, and lines that outgrow the cell's request
// buffer.
func validateText(text string) error {
	if text == "" {
		return fmt.Errorf("empty text")
	}
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("text contains a line terminator")
	}
	if len(command.PrefixText)+len(text) > command.DefaultMaxLine {
		return fmt.Errorf("text too long: %d bytes", len(text))
	}
	return nil
}
