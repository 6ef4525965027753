package rsvp

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the reader and the UI.

// WordChangedMsg indicates the displayed word has changed.
type WordChangedMsg struct {
	Event WordEvent
}

// StateChangedMsg indicates the playback state has changed.
type StateChangedMsg struct {
	From PlaybackState
	To   PlaybackState
}

// SequenceLoadedMsg indicates a new sequence was handed to the scheduler.
type SequenceLoadedMsg struct {
	Words     int
	WPM       int
	Rederived bool // Loaded because the rate changed
}

// RateChangedMsg indicates the reading rate has changed.
type RateChangedMsg struct {
	WPM int
}

// ErrorMsg indicates an error occurred in the reader.
type ErrorMsg struct {
	Err         error
	Recoverable bool
	Action      string // What action was being performed
}

// SampleMsg is a timing sample for the subscription generation Gen.
type SampleMsg struct {
	Gen  uint64
	Time time.Time
}

// Commands for async reader operations.

// SampleTickCmd schedules the next timing sample for generation gen.
func SampleTickCmd(gen uint64, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return SampleMsg{Gen: gen, Time: t}
	})
}

// WaitForEventCmd waits for the next reader event. It returns nil once
// events is closed.
func WaitForEventCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// ErrorCmd wraps err into an ErrorMsg.
func ErrorCmd(err error, action string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{
			Err:         err,
			Recoverable: IsRecoverableError(err),
			Action:      action,
		}
	}
}
