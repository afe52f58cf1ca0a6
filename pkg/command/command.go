package command

import "strings"

// Kind discriminates classified command variants.
type Kind uint8

const (
	// KindUnknown is any line that matches no prefix, a CONFIG line with a
	// bad payload, or an overflowed line under the reject policy.
	KindUnknown Kind = iota
	// KindText requests rendering of the line's remainder.
	KindText
	// KindDual switches dual-actuator mode on or off.
	KindDual
	// KindParams applies a decoded parameter document.
	KindParams
	// KindBadParams is a PARAMS line whose document failed to decode.
	KindBadParams
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindText:
		return "text"
	case KindDual:
		return "dual"
	case KindParams:
		return "params"
	case KindBadParams:
		return "bad-params"
	}
	return "invalid"
}

// Command is one classified protocol line. Exactly one command comes out of
// every terminated non-empty line.
type Command struct {
	Kind   Kind
	Text   string // KindText: text to render
	Dual   bool   // KindDual: requested mode
	Params Params // KindParams: decoded document
	Raw    string // KindUnknown, KindBadParams: the offending line
	Err    error  // KindBadParams: decode failure
}

// Classify turns one complete line into a Command. The first matching
// prefix wins; a CONFIG:DUAL= payload must be exactly "0" or "1".
func Classify(line string) Command {
	switch {
	case strings.HasPrefix(line, PrefixDual):
		switch line[len(PrefixDual):] {
		case "1":
			return Command{Kind: KindDual, Dual: true}
		case "0":
			return Command{Kind: KindDual, Dual: false}
		}
		return Command{Kind: KindUnknown, Raw: line}

	case strings.HasPrefix(line, PrefixText):
		return Command{Kind: KindText, Text: line[len(PrefixText):]}

	case strings.HasPrefix(line, PrefixParams):
		p, err := DecodeParams([]byte(line[len(PrefixParams):]))
		if err != nil {
			return Command{Kind: KindBadParams, Raw: line, Err: err}
		}
		return Command{Kind: KindParams, Params: p}
	}
	return Command{Kind: KindUnknown, Raw: line}
}
