package rsvp

import (
	"time"
)

// Clock is a monotonic time source. Durations between two Now calls are
// measured with the monotonic reading carried by time.Time.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Preprocessor turns raw text into a timed word sequence.
type Preprocessor interface {
	// Process splits text into words and derives their display records
	// for the given reading rate. It never fails.
	Process(text string, wpm int) Sequence
}

// Scheduler drives playback through a loaded sequence.
type Scheduler interface {
	// LoadSequence replaces the sequence and returns to idle at index 0.
	LoadSequence(seq Sequence)

	// Start shows the word at the current index and begins advancing.
	Start() bool

	// Pause halts advancement on the current word.
	Pause() bool

	// Resume continues after a pause.
	Resume() bool

	// Stop returns to idle at index 0 and clears the display.
	Stop()

	// Reset is Stop, kept as a separate control.
	Reset()

	// Seek jumps to the word at index.
	Seek(index int) error

	// SetRate stores the reading rate for future derivations.
	SetRate(wpm int) error

	// Rate returns the stored reading rate.
	Rate() int

	// State returns a snapshot of the playback state.
	State() State

	// OnWordChange registers a callback for the displayed word changing.
	OnWordChange(callback func(WordEvent))

	// OnStateChange registers a callback for playback state transitions.
	OnStateChange(callback func(from, to PlaybackState))
}

// Sampler is implemented by schedulers that are advanced by an external
// sampling source, such as a Bubble Tea tick chain.
type Sampler interface {
	// Sample advances playback to now. Samples from a cancelled
	// subscription are ignored.
	Sample(gen uint64, now time.Time)

	// Subscription reports the current subscription generation and
	// whether samples are wanted.
	Subscription() (gen uint64, active bool)
}

// WordEvent describes a change of the displayed word.
type WordEvent struct {
	Index   int
	Total   int
	Record  WordRecord
	Cleared bool // Nothing is displayed; Record is zero
}

// PausePolicy decides what resume does with the interrupted word.
type PausePolicy string

const (
	// PausePreserve resumes with the time that was left on the word.
	PausePreserve PausePolicy = "preserve"
	// PauseRestart gives the word its full duration again on resume.
	PauseRestart PausePolicy = "restart"
)

// Valid reports whether p is a known policy.
func (p PausePolicy) Valid() bool {
	return p == PausePreserve || p == PauseRestart
}
