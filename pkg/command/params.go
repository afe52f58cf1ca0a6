package command

import (
	"encoding/json"
	"fmt"
	"time"
)

// Params is the structured parameter document carried on a PARAMS line.
// Delays are in milliseconds.
type Params struct {
	Text       string `json:"text"`
	CharDelay  int    `json:"char_delay"`
	ServoDelay int    `json:"servo_delay"`
	DualServo  bool   `json:"dual_servo"`
	DebugMode  bool   `json:"debug_mode"`
}

// DefaultParams returns the document the cell boots with.
func DefaultParams() Params {
	return Params{
		Text:       "",
		CharDelay:  3000,
		ServoDelay: 750,
		DualServo:  true,
		DebugMode:  false,
	}
}

// DecodeParams parses a JSON parameter document. Fields absent from the
// document keep their defaults. A structurally invalid document returns an
// error; the caller keeps its prior state in that case.
func DecodeParams(data []byte) (Params, error) {
	p := DefaultParams()
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultParams(), fmt.Errorf("invalid parameter document: %w", err)
	}
	return p, nil
}

// CharInterval returns the per-character delay as a duration.
func (p Params) CharInterval() time.Duration {
	return time.Duration(p.CharDelay) * time.Millisecond
}

// ServoSettle returns the actuator settle delay as a duration.
func (p Params) ServoSettle() time.Duration {
	return time.Duration(p.ServoDelay) * time.Millisecond
}
