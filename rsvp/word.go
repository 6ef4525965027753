// Package rsvp provides rapid serial visual presentation for rsvp.
package rsvp

import (
	"time"

	"github.com/sahilm/fuzzy"
)

const (
	// DefaultWPM is the reading rate used when none is configured.
	DefaultWPM = 300
	// MinWPM is the slowest accepted reading rate.
	MinWPM = 100
	// MaxWPM is the fastest accepted reading rate.
	MaxWPM = 1000
	// WPMStep is the granularity of accepted reading rates.
	WPMStep = 50

	// DefaultFontSize is the font size, in px, offsets are computed for.
	DefaultFontSize = 32.0
	// CharWidthRatio is the advance width of a monospaced glyph relative
	// to its font size.
	CharWidthRatio = 0.6
)

// WordRecord is a single word, split around its anchor character and timed
// for display. It carries everything a renderer needs to paint it.
type WordRecord struct {
	Word        string `json:"word"`
	AnchorIndex int    `json:"anchorIndex"`

	BeforeText string `json:"beforeText"`
	AnchorChar string `json:"anchorChar"`
	AfterText  string `json:"afterText"`

	// DurationMs is how long the word stays on screen.
	DurationMs float64 `json:"durationMs"`

	// Horizontal displacement, in font units, that keeps the anchor at a
	// fixed column.
	BeforeOffset float64 `json:"beforeOffset"`
	AfterOffset  float64 `json:"afterOffset"`
}

// Duration returns DurationMs as a time.Duration.
func (w WordRecord) Duration() time.Duration {
	return time.Duration(w.DurationMs * float64(time.Millisecond))
}

// Sequence is an ordered, read-only list of word records.
type Sequence []WordRecord

// Len implements fuzzy.Source.
func (s Sequence) Len() int { return len(s) }

// String implements fuzzy.Source.
func (s Sequence) String(i int) string { return s[i].Word }

// TotalDurationMs returns the sum of all word durations.
func (s Sequence) TotalDurationMs() float64 {
	var total float64
	for _, w := range s {
		total += w.DurationMs
	}
	return total
}

// TotalDuration returns the nominal time needed to play the whole sequence.
func (s Sequence) TotalDuration() time.Duration {
	return time.Duration(s.TotalDurationMs() * float64(time.Millisecond))
}

// Find returns the indexes of words matching pattern, best match first.
func (s Sequence) Find(pattern string) []int {
	if pattern == "" || len(s) == 0 {
		return nil
	}
	matches := fuzzy.FindFrom(pattern, s)
	indexes := make([]int, 0, len(matches))
	for _, m := range matches {
		indexes = append(indexes, m.Index)
	}
	return indexes
}

// ValidateRate reports whether wpm is an accepted reading rate.
func ValidateRate(wpm int) error {
	if wpm < MinWPM || wpm > MaxWPM || (wpm-MinWPM)%WPMStep != 0 {
		return &OpError{Op: "set_rate", Err: ErrInvalidRate}
	}
	return nil
}

// ClampRate snaps wpm to the nearest accepted rate.
func ClampRate(wpm int) int {
	if wpm < MinWPM {
		return MinWPM
	}
	if wpm > MaxWPM {
		return MaxWPM
	}
	steps := (wpm - MinWPM + WPMStep/2) / WPMStep
	return MinWPM + steps*WPMStep
}
