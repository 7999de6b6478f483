package layout

import "strings"

const (
	// vowels are compared after ToLower.
	vowels = "aeiouyаеёиоуыэюя"
	// nonTearable never start a syllable: hard sign, soft sign and apostrophe.
	nonTearable = "ъь'"
)

func isVowel(r rune) bool {
	return strings.ContainsRune(vowels, ToLower(r))
}

func isNonTearable(r rune) bool {
	return strings.ContainsRune(nonTearable, ToLower(r))
}

func endsWord(r rune) bool {
	return r == ' ' || r == '\n' || r == '\r'
}

type syllableState int

const (
	// sylLeading: no vowel seen yet in the word.
	sylLeading syllableState = iota
	// sylAfterVowel: a vowel was seen, consonants since then are being counted.
	sylAfterVowel
)

// syllableScanner walks one word looking for the latest hyphenation point
// whose pen position still leaves room for a hyphen.
type syllableScanner struct {
	advance func(p int, r rune) int
	budget  int

	state syllableState
	x     int

	// latest tearable consonant after the last vowel
	consAt    int
	consX     int
	consCount int

	best  int
	bestX int
	// overrun is set once a candidate fell outside the budget; later
	// candidates are further right and are never accepted.
	overrun bool
}

func newSyllableScanner(x, maxX, hyphen int, advance func(int, rune) int) *syllableScanner {
	return &syllableScanner{
		advance: advance,
		budget:  maxX - hyphen,
		x:       x,
		consAt:  -1,
		best:    -1,
	}
}

func (s *syllableScanner) step(p int, r rune) {
	if isVowel(r) {
		if s.state == sylAfterVowel {
			s.candidate(p)
		}
		s.state = sylAfterVowel
		s.consAt = -1
		s.consCount = 0
	} else if s.state == sylAfterVowel {
		if !isNonTearable(r) {
			s.consAt = p
			s.consX = s.x
		}
		s.consCount++
	}
	// the pen stops once past the budget, nothing beyond can fit anyway
	if s.x <= s.budget {
		s.x += s.advance(p, r)
	}
}

// candidate records a boundary before vowel p: right after the previous
// vowel when no consonants separate them, otherwise before the last
// tearable consonant of the cluster (open or closed syllable alike).
func (s *syllableScanner) candidate(p int) {
	at, atX := p, s.x
	if s.consCount > 0 {
		if s.consAt < 0 {
			return
		}
		at, atX = s.consAt, s.consX
	}
	if s.overrun {
		return
	}
	if atX <= s.budget {
		s.best, s.bestX = at, atX
	} else {
		s.overrun = true
	}
}

// splitBySyllables scans the word of text starting at start, whose first
// rune is drawn at x, and returns the latest split index whose pen position
// plus a hyphen of width hyphen fits into maxX. advance gets the rune index
// so the caret gap of edit mode is measured like the scan measures it.
// Splitting off a single leading rune is refused.
func splitBySyllables(text []rune, start, x, maxX, hyphen int, advance func(p int, r rune) int) (split, splitX int, ok bool) {
	s := newSyllableScanner(x, maxX, hyphen, advance)
	for p := start; p < len(text) && !endsWord(text[p]); p++ {
		s.step(p, text[p])
	}
	if s.best <= start+1 {
		return -1, 0, false
	}
	return s.best, s.bestX, true
}
