// Package preprocess turns raw text into timed, anchor-split word records.
package preprocess

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgnsrekt/rsvp/rsvp"
	"github.com/rivo/uniseg"
)

// Punctuation multipliers applied to a word's base duration.
const (
	SentenceEndMultiplier = 1.30
	ClauseEndMultiplier   = 1.15
)

// Preprocessor derives word sequences for a fixed font size.
type Preprocessor struct {
	fontSize float64
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithFontSize sets the font size offsets are computed for. Non-positive
// sizes are ignored.
func WithFontSize(size float64) Option {
	return func(p *Preprocessor) {
		if size > 0 {
			p.fontSize = size
		}
	}
}

// New creates a Preprocessor.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{fontSize: rsvp.DefaultFontSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FontSize returns the configured font size.
func (p *Preprocessor) FontSize() float64 {
	return p.fontSize
}

// Process splits text on whitespace and derives a record per word. The
// result is never nil.
func (p *Preprocessor) Process(text string, wpm int) rsvp.Sequence {
	tokens := strings.FieldsFunc(text, unicode.IsSpace)

	base := BaseDurationMs(wpm)
	charWidth := p.fontSize * rsvp.CharWidthRatio

	seq := make(rsvp.Sequence, 0, len(tokens))
	for _, token := range tokens {
		word := strings.TrimSpace(token)
		if word == "" {
			continue
		}
		seq = append(seq, newRecord(word, base, charWidth))
	}
	return seq
}

// Process derives a sequence using the default font size.
func Process(text string, wpm int) rsvp.Sequence {
	return New().Process(text, wpm)
}

func newRecord(word string, base, charWidth float64) rsvp.WordRecord {
	chars := graphemes(word)
	anchor := AnchorIndex(len(chars))

	rec := rsvp.WordRecord{
		Word:         word,
		AnchorIndex:  anchor,
		DurationMs:   base * PunctuationMultiplier(word),
		BeforeOffset: -charWidth / 2,
		AfterOffset:  charWidth / 2,
	}
	if len(chars) > 0 {
		rec.BeforeText = strings.Join(chars[:anchor], "")
		rec.AnchorChar = chars[anchor]
		rec.AfterText = strings.Join(chars[anchor+1:], "")
	}
	return rec
}

// graphemes splits s into user-perceived characters.
func graphemes(s string) []string {
	chars := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		chars = append(chars, g.Str())
	}
	return chars
}

// AnchorIndex returns the optimal recognition point for a word that is n
// characters long.
func AnchorIndex(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 3:
		return n / 2
	default:
		return max(1, n/3)
	}
}

// PunctuationMultiplier returns the duration multiplier implied by the
// last character of word.
func PunctuationMultiplier(word string) float64 {
	r, _ := utf8.DecodeLastRuneInString(word)
	switch r {
	case '.', '!', '?':
		return SentenceEndMultiplier
	case ',', ';', ':':
		return ClauseEndMultiplier
	default:
		return 1.0
	}
}

// BaseDurationMs returns how long an unpunctuated word is shown at wpm.
func BaseDurationMs(wpm int) float64 {
	if wpm <= 0 {
		wpm = rsvp.DefaultWPM
	}
	return 60 * 1000 / float64(wpm)
}
