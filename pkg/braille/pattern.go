package braille

import (
	"fmt"
	"strings"
)

const (
	// PatternBits is the number of dots in a cell.
	PatternBits = 6
	// SubBits is the number of dots driven by one actuator channel.
	SubBits = 3
)

// Pattern is a 6-bit dot pattern for a single braille cell. Bit 5 holds the
// first dot position and bit 0 the last, so the string form reads positions
// left to right. Bits above the low six carry no meaning.
type Pattern uint8

// SubPattern is one half of a Pattern, a 3-bit value in the range 0-7.
type SubPattern uint8

// Blank is the all-dots-down pattern (space).
const Blank Pattern = 0

// Split divides the pattern into its high half (positions 1-3) and low half
// (positions 4-6).
func (p Pattern) Split() (hi, lo SubPattern) {
	return SubPattern(p>>SubBits) & 0x07, SubPattern(p) & 0x07
}

// Join reassembles a pattern from its two halves, inverting Split.
func Join(hi, lo SubPattern) Pattern {
	return Pattern(hi&0x07)<<SubBits | Pattern(lo&0x07)
}

// String renders the pattern as six '0'/'1' characters.
func (p Pattern) String() string {
	var b strings.Builder
	b.Grow(PatternBits)
	for i := 0; i < PatternBits; i++ {
		if p&(1<<(PatternBits-1-i)) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// cellDots maps pattern positions to dot offsets in the Unicode braille
// block. Pattern positions alternate between the cell's left and right
// columns, while the Unicode block numbers the left column first.
var cellDots = [PatternBits]uint{0, 3, 1, 4, 2, 5}

// Cell returns the Unicode braille glyph for the pattern.
func (p Pattern) Cell() rune {
	off := rune(0)
	for i, dot := range cellDots {
		if p&(1<<(PatternBits-1-i)) != 0 {
			off |= 1 << dot
		}
	}
	return 0x2800 + off
}

// ParsePattern parses the six-character '0'/'1' form.
func ParsePattern(s string) (Pattern, error) {
	if len(s) != PatternBits {
		return 0, fmt.Errorf("pattern %q: expected %d characters, got %d", s, PatternBits, len(s))
	}
	var p Pattern
	for i := 0; i < PatternBits; i++ {
		switch s[i] {
		case '1':
			p |= 1 << (PatternBits - 1 - i)
		case '0':
		default:
			return 0, fmt.Errorf("pattern %q: invalid character %q at position %d", s, s[i], i)
		}
	}
	return p, nil
}
