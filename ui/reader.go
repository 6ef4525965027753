package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/rsvp/rsvp"
)

const ellipsis = "…"

// wordLine renders rec so that its anchor character lands on column col.
// Words whose leading part is wider than col start at column 0.
func wordLine(rec rsvp.WordRecord, col int, word, anchor lipgloss.Style) string {
	pad := max(col-runewidth.StringWidth(rec.BeforeText), 0)

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", pad))
	if rec.BeforeText != "" {
		b.WriteString(word.Render(rec.BeforeText))
	}
	b.WriteString(anchor.Render(rec.AnchorChar))
	if rec.AfterText != "" {
		b.WriteString(word.Render(rec.AfterText))
	}
	return b.String()
}

// RenderWord renders rec for output outside the TUI, with its anchor on
// column col.
func RenderWord(rec rsvp.WordRecord, col int, anchor lipgloss.Style) string {
	return wordLine(rec, col, lipgloss.NewStyle(), anchorStyle(anchor))
}

// guideLine marks the anchor column above and below the word.
func guideLine(col int) string {
	return strings.Repeat(" ", max(col, 0)) + guideStyle.Render("│")
}

// anchorColumn is the column the anchor is pinned to for a given width.
func anchorColumn(width int) int {
	return max(width*2/5, 0)
}

// truncateLine cuts s to width cells. A non-positive width leaves s as is.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), ellipsis) //nolint:gosec
}

func stateIcon(s rsvp.PlaybackState) string {
	switch s {
	case rsvp.StatePlaying:
		return "▶"
	case rsvp.StatePaused:
		return "‖"
	case rsvp.StateFinished:
		return "✓"
	default:
		return "■"
	}
}

// statusLine summarizes playback in a single line no wider than width.
func statusLine(st rsvp.State, width int) string {
	pos := 0
	switch st.Playback {
	case rsvp.StateIdle:
	case rsvp.StateFinished:
		pos = st.TotalWords
	default:
		pos = st.CurrentIndex + 1
	}

	s := fmt.Sprintf(" %s %s  %s/%s words  %d wpm  %s left ",
		stateIcon(st.Playback),
		st.Playback,
		humanize.Comma(int64(pos)),
		humanize.Comma(int64(st.TotalWords)),
		st.RateWPM,
		formatDuration(time.Duration(st.RemainingMs*float64(time.Millisecond))),
	)
	return truncateLine(s, width)
}

// formatDuration renders d as m:ss, or h:mm:ss from an hour on. Partial
// seconds round up so a running word never shows as 0:00.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
