package braille

import "unicode"

// Dot patterns for the lowercase letters a-z. Digits one through nine share
// the patterns of a-i; disambiguating the two classes is the caller's
// responsibility and depends on context, not on pattern uniqueness.
var letterPatterns = [26]string{
	"100000", "101000", "110000", "110100", "100100", // a-e
	"111000", "111100", "101100", "011000", "011100", // f-j
	"100010", "101010", "110010", "110110", "100110", // k-o
	"111010", "111110", "101110", "011010", "011110", // p-t
	"100011", "101011", "011101", "110011", "110111", // u-y
	"100111", // z
}

// Dot patterns for the digits 0-9.
var digitPatterns = [10]string{
	"010110", "100000", "101000", "110000", "110100", // 0-4
	"100100", "111000", "111100", "101100", "011000", // 5-9
}

// Dot patterns for space and punctuation.
var punctPatterns = map[rune]string{
	' ': "000000",
	'.': "010011",
	',': "010000",
	'?': "011001",
	'!': "011010",
}

// patterns is the complete character table, built and checked at startup. A
// malformed entry is a programming error and panics immediately rather than
// surfacing as a wrong glyph at render time.
var patterns = mustBuildTable()

func mustBuildTable() map[rune]Pattern {
	table := make(map[rune]Pattern, len(letterPatterns)+len(digitPatterns)+len(punctPatterns))
	for i, s := range letterPatterns {
		table['a'+rune(i)] = mustParse(s)
	}
	for i, s := range digitPatterns {
		table['0'+rune(i)] = mustParse(s)
	}
	for r, s := range punctPatterns {
		table[r] = mustParse(s)
	}
	return table
}

func mustParse(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Encode translates a character to its dot pattern. Uppercase letters fold
// to lowercase first. Characters without a table entry map to Blank; the
// function is total and never fails.
func Encode(r rune) Pattern {
	p, ok := patterns[unicode.ToLower(r)]
	if !ok {
		return Blank
	}
	return p
}

// Supported reports whether the character has its own table entry after
// case folding.
func Supported(r rune) bool {
	_, ok := patterns[unicode.ToLower(r)]
	return ok
}
