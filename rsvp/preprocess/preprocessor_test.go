package preprocess

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/dgnsrekt/rsvp/rsvp"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnchorIndex(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{4, 1},
		{5, 1},
		{6, 2},
		{7, 2},
		{9, 3},
		{12, 4},
	}

	for _, tt := range tests {
		if got := AnchorIndex(tt.n); got != tt.want {
			t.Errorf("AnchorIndex(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestAnchorExamples(t *testing.T) {
	tests := []struct {
		word   string
		anchor int
		char   string
	}{
		{"a", 0, "a"},
		{"cat", 1, "a"},
		{"reading", 2, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			seq := Process(tt.word, 300)
			if len(seq) != 1 {
				t.Fatalf("expected 1 record, got %d", len(seq))
			}
			if seq[0].AnchorIndex != tt.anchor {
				t.Errorf("AnchorIndex = %d, want %d", seq[0].AnchorIndex, tt.anchor)
			}
			if seq[0].AnchorChar != tt.char {
				t.Errorf("AnchorChar = %q, want %q", seq[0].AnchorChar, tt.char)
			}
		})
	}
}

func TestPunctuationMultiplier(t *testing.T) {
	tests := []struct {
		word string
		want float64
	}{
		{"end.", 1.30},
		{"what?", 1.30},
		{"wow!", 1.30},
		{"pause,", 1.15},
		{"list;", 1.15},
		{"colon:", 1.15},
		{"plain", 1.0},
		{"quoted.\"", 1.0},
		{"", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := PunctuationMultiplier(tt.word); got != tt.want {
				t.Errorf("PunctuationMultiplier(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestDurationScaling(t *testing.T) {
	seq := Process("word. word, word", 300)
	want := []float64{260, 230, 200}

	if len(seq) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(seq))
	}
	for i, w := range want {
		if !almostEqual(seq[i].DurationMs, w) {
			t.Errorf("record %d: DurationMs = %v, want %v", i, seq[i].DurationMs, w)
		}
	}
}

func TestBaseDurationMs(t *testing.T) {
	tests := []struct {
		wpm  int
		want float64
	}{
		{100, 600},
		{300, 200},
		{600, 100},
		{1000, 60},
	}

	for _, tt := range tests {
		if got := BaseDurationMs(tt.wpm); !almostEqual(got, tt.want) {
			t.Errorf("BaseDurationMs(%d) = %v, want %v", tt.wpm, got, tt.want)
		}
	}
}

func TestTokenCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"whitespace only", " \t\n\r ", 0},
		{"single word", "hello", 1},
		{"multiple spaces", "one   two    three", 3},
		{"mixed whitespace", "one\ttwo\nthree\r\nfour", 4},
		{"leading and trailing", "  padded words  ", 2},
		{"unicode spaces", "a\u00a0b\u2003c", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := Process(tt.input, 300)
			if seq == nil {
				t.Fatal("Process returned nil sequence")
			}
			if len(seq) != tt.want {
				t.Errorf("got %d records, want %d", len(seq), tt.want)
			}
			if got := len(strings.Fields(tt.input)); got != len(seq) {
				t.Errorf("record count %d does not match strings.Fields count %d", len(seq), got)
			}
		})
	}
}

func TestPartitionIdentity(t *testing.T) {
	inputs := []string{
		"The quick brown fox jumps over the lazy dog.",
		"a I ox cat reading extraordinarily",
		"naïve café résumé",
		"emoji 👋🏽 families 👨‍👩‍👧 flags 🇯🇵",
		"étude combining",
	}

	for _, input := range inputs {
		for _, rec := range Process(input, 450) {
			if rec.Word == "" {
				t.Errorf("empty word in %q", input)
			}
			if got := rec.BeforeText + rec.AnchorChar + rec.AfterText; got != rec.Word {
				t.Errorf("partition of %q rebuilt as %q", rec.Word, got)
			}
			if rec.AnchorChar == "" {
				t.Errorf("empty anchor for %q", rec.Word)
			}
			if n := len(graphemes(rec.AnchorChar)); n != 1 {
				t.Errorf("anchor %q of %q spans %d characters", rec.AnchorChar, rec.Word, n)
			}
			if rec.DurationMs <= 0 {
				t.Errorf("non-positive duration for %q", rec.Word)
			}
		}
	}
}

func TestGraphemeAnchor(t *testing.T) {
	// "e" followed by a combining acute accent is a single character.
	seq := Process("e\u0301te\u0301", 300)
	if len(seq) != 1 {
		t.Fatalf("expected 1 record, got %d", len(seq))
	}
	rec := seq[0]
	if rec.AnchorIndex != 1 {
		t.Errorf("AnchorIndex = %d, want 1", rec.AnchorIndex)
	}
	if rec.BeforeText != "e\u0301" {
		t.Errorf("BeforeText = %q, want %q", rec.BeforeText, "e\u0301")
	}
	if rec.AnchorChar != "t" {
		t.Errorf("AnchorChar = %q, want %q", rec.AnchorChar, "t")
	}
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		name     string
		fontSize float64
		want     float64
	}{
		{"default", 0, 9.6},
		{"16px", 16, 4.8},
		{"48px", 48, 14.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithFontSize(tt.fontSize))
			seq := p.Process("offset test", 300)
			for _, rec := range seq {
				if !almostEqual(rec.BeforeOffset, -tt.want) {
					t.Errorf("BeforeOffset = %v, want %v", rec.BeforeOffset, -tt.want)
				}
				if !almostEqual(rec.AfterOffset, tt.want) {
					t.Errorf("AfterOffset = %v, want %v", rec.AfterOffset, tt.want)
				}
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	text := "Same input, same output. Every time!"
	a := Process(text, 350)
	b := Process(text, 350)
	if !reflect.DeepEqual(a, b) {
		t.Error("Process is not deterministic")
	}
}

func TestEndToEnd(t *testing.T) {
	seq := Process("Hello, world. Testing RSVP.", 300)

	want := []struct {
		word     string
		before   string
		anchor   string
		after    string
		duration float64
	}{
		{"Hello,", "He", "l", "lo,", 230},
		{"world.", "wo", "r", "ld.", 260},
		{"Testing", "Te", "s", "ting", 200},
		{"RSVP.", "R", "S", "VP.", 260},
	}

	if len(seq) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(seq))
	}

	for i, w := range want {
		rec := seq[i]
		if rec.Word != w.word {
			t.Errorf("record %d: Word = %q, want %q", i, rec.Word, w.word)
		}
		if rec.BeforeText != w.before || rec.AnchorChar != w.anchor || rec.AfterText != w.after {
			t.Errorf("record %d: partition = %q|%q|%q, want %q|%q|%q",
				i, rec.BeforeText, rec.AnchorChar, rec.AfterText, w.before, w.anchor, w.after)
		}
		if !almostEqual(rec.DurationMs, w.duration) {
			t.Errorf("record %d: DurationMs = %v, want %v", i, rec.DurationMs, w.duration)
		}
	}

	if total := seq.TotalDurationMs(); !almostEqual(total, 950) {
		t.Errorf("TotalDurationMs = %v, want 950", total)
	}
}

func TestProcessImplementsPreprocessor(t *testing.T) {
	var _ rsvp.Preprocessor = New()
}
