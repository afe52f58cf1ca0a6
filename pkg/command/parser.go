package command

import "fmt"

// OverflowPolicy selects how the parser treats a line that outgrows its
// buffer.
type OverflowPolicy uint8

const (
	// OverflowTruncate drops bytes past capacity; the retained prefix is
	// classified normally when the line terminates. This matches the
	// firmware's historical behavior.
	OverflowTruncate OverflowPolicy = iota
	// OverflowReject classifies an overflowed line as Unknown carrying the
	// retained prefix, so a truncated TEXT payload is never rendered.
	OverflowReject
)

// String returns the policy's configuration name.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowTruncate:
		return "truncate"
	case OverflowReject:
		return "reject"
	}
	return "invalid"
}

// ParseOverflowPolicy maps a configuration name to a policy. An empty name
// selects truncation; anything else unrecognized is an error.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "truncate":
		return OverflowTruncate, nil
	case "reject":
		return OverflowReject, nil
	}
	return OverflowTruncate, fmt.Errorf("unknown overflow policy %q", s)
}

// Parser accumulates raw bytes into protocol lines and classifies each
// completed line into exactly one Command. The buffer is fixed at
// construction; the parser never allocates per byte.
type Parser struct {
	buf      []byte
	policy   OverflowPolicy
	overflow bool
}

// NewParser returns a parser with the given line capacity and overflow
// policy. A capacity of zero or less uses DefaultMaxLine.
func NewParser(capacity int, policy OverflowPolicy) *Parser {
	if capacity <= 0 {
		capacity = DefaultMaxLine
	}
	return &Parser{
		buf:    make([]byte, 0, capacity),
		policy: policy,
	}
}

// Push feeds one byte into the parser. When the byte completes a non-empty
// line, the classified command is returned with ok true. A terminator on an
// empty buffer is ignored, so CRLF-terminated input yields one command per
// line.
func (p *Parser) Push(b byte) (cmd Command, ok bool) {
	if b == '\n' || b == '\r' {
		if len(p.buf) == 0 {
			return Command{}, false
		}
		line := string(p.buf)
		overflowed := p.overflow
		p.buf = p.buf[:0]
		p.overflow = false

		if overflowed && p.policy == OverflowReject {
			return Command{Kind: KindUnknown, Raw: line}, true
		}
		return Classify(line), true
	}

	if len(p.buf) == cap(p.buf) {
		p.overflow = true
		return Command{}, false
	}
	p.buf = append(p.buf, b)
	return Command{}, false
}

// Pending returns the number of bytes accumulated toward the current line.
func (p *Parser) Pending() int {
	return len(p.buf)
}

// Reset discards any partially accumulated line.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.overflow = false
}
