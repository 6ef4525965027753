// Package sync advances a word sequence against a monotonic clock.
package sync

import (
	"time"

	"github.com/dgnsrekt/rsvp/rsvp"
)

// Stats holds sampling statistics.
type Stats struct {
	Samples       int64   // Samples applied
	Dropped       int64   // Samples ignored as stale
	Advances      int64   // Word boundaries crossed
	MaxPerSample  int     // Most boundaries crossed by a single sample
	ScheduledMs   float64 // Nominal time consumed by crossed boundaries
	Subscriptions uint64  // Subscription generations issued
}

var (
	_ rsvp.Scheduler = (*Scheduler)(nil)
	_ rsvp.Sampler   = (*Scheduler)(nil)
)

// Scheduler is the playback state machine. It is not safe for concurrent
// use; drive it from a single goroutine or wrap it in a Player.
type Scheduler struct {
	clock   rsvp.Clock
	machine *rsvp.StateMachine
	policy  rsvp.PausePolicy

	seq    rsvp.Sequence
	suffix []float64 // suffix[i] is the nominal duration of seq[i:]
	index  int
	shown  bool
	rate   int

	// Timing, in ms since origin.
	origin     time.Time
	boundaryMs float64
	pausedMs   float64 // Time already spent on the current word when paused

	// Subscription
	gen      uint64
	sampling bool

	// Callbacks
	onWordCallbacks  []func(rsvp.WordEvent)
	onStateCallbacks []func(from, to rsvp.PlaybackState)

	stats Stats
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source.
func WithClock(clock rsvp.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPausePolicy sets what resume does with the interrupted word.
func WithPausePolicy(policy rsvp.PausePolicy) Option {
	return func(s *Scheduler) {
		if policy.Valid() {
			s.policy = policy
		}
	}
}

// WithRate sets the initial reading rate. Invalid rates are ignored.
func WithRate(wpm int) Option {
	return func(s *Scheduler) {
		if rsvp.ValidateRate(wpm) == nil {
			s.rate = wpm
		}
	}
}

// NewScheduler creates an idle scheduler with an empty sequence.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   rsvp.SystemClock{},
		machine: rsvp.NewStateMachine(),
		policy:  rsvp.PausePreserve,
		rate:    rsvp.DefaultWPM,
		suffix:  []float64{0},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.origin = s.clock.Now()
	return s
}

// LoadSequence replaces the sequence, returns to idle at index 0 and
// cancels any in-flight timing.
func (s *Scheduler) LoadSequence(seq rsvp.Sequence) {
	s.cancel()
	s.clear()
	s.transition(rsvp.StateIdle)

	s.seq = seq
	s.suffix = make([]float64, len(seq)+1)
	for i := len(seq) - 1; i >= 0; i-- {
		s.suffix[i] = s.suffix[i+1] + seq[i].DurationMs
	}
	s.index = 0
	s.pausedMs = 0
}

// Start shows the word at the current index and begins advancing. It
// rewinds first when playback already ran off the end. Start on an empty
// sequence does nothing.
func (s *Scheduler) Start() bool {
	if len(s.seq) == 0 {
		return false
	}
	if s.index >= len(s.seq) {
		s.index = 0
	}

	now := s.ms(s.clock.Now())
	s.cancel()
	s.transition(rsvp.StatePlaying)
	s.show()
	s.boundaryMs = now
	s.pausedMs = 0
	s.subscribe()
	return true
}

// Pause halts advancement on the current word. Only valid while playing.
func (s *Scheduler) Pause() bool {
	if s.machine.Current() != rsvp.StatePlaying {
		return false
	}

	// Catch up on boundaries that are already due.
	now := s.ms(s.clock.Now())
	s.advance(now)
	if s.machine.Current() != rsvp.StatePlaying {
		return false
	}

	s.cancel()
	s.pausedMs = now - s.boundaryMs
	s.transition(rsvp.StatePaused)
	return true
}

// Resume continues after a pause. From idle or finished, or when the index
// ran off the end, it behaves like Start.
func (s *Scheduler) Resume() bool {
	switch s.machine.Current() {
	case rsvp.StatePlaying:
		return false
	case rsvp.StateIdle, rsvp.StateFinished:
		return s.Start()
	}
	if s.index >= len(s.seq) {
		return s.Start()
	}

	now := s.ms(s.clock.Now())
	s.cancel()
	s.transition(rsvp.StatePlaying)
	switch s.policy {
	case rsvp.PauseRestart:
		s.boundaryMs = now
	default:
		s.boundaryMs = now - s.pausedMs
	}
	s.pausedMs = 0
	s.subscribe()
	return true
}

// Stop returns to idle at index 0 and clears the display. Valid from any
// state.
func (s *Scheduler) Stop() {
	s.cancel()
	s.clear()
	s.transition(rsvp.StateIdle)
	s.index = 0
	s.pausedMs = 0
}

// Reset stops playback and rewinds. It is idempotent with Stop.
func (s *Scheduler) Reset() {
	s.Stop()
}

// Seek shows the word at index. While playing the word gets its full
// window; otherwise playback is left paused on it.
func (s *Scheduler) Seek(index int) error {
	if len(s.seq) == 0 {
		return &rsvp.OpError{Op: "seek", Err: rsvp.ErrEmptySequence}
	}
	if index < 0 || index >= len(s.seq) {
		return &rsvp.OpError{Op: "seek", Err: rsvp.ErrInvalidIndex}
	}

	now := s.ms(s.clock.Now())
	s.cancel()
	s.index = index
	s.show()

	if s.machine.Current() == rsvp.StatePlaying {
		s.boundaryMs = now
		s.subscribe()
		return nil
	}

	s.pausedMs = 0
	s.transition(rsvp.StatePaused)
	return nil
}

// SetRate stores the rate for future derivations. Invalid rates are
// rejected and the previous rate kept. The loaded sequence is untouched.
func (s *Scheduler) SetRate(wpm int) error {
	if err := rsvp.ValidateRate(wpm); err != nil {
		return err
	}
	s.rate = wpm
	return nil
}

// Rate returns the stored reading rate.
func (s *Scheduler) Rate() int {
	return s.rate
}

// Sample advances playback to now. Samples carrying a generation other
// than the current subscription are dropped.
func (s *Scheduler) Sample(gen uint64, now time.Time) {
	if gen != s.gen || !s.sampling {
		s.stats.Dropped++
		return
	}
	s.stats.Samples++
	s.advance(s.ms(now))
}

// Subscription reports the current generation and whether samples are
// wanted.
func (s *Scheduler) Subscription() (uint64, bool) {
	return s.gen, s.sampling
}

// State returns a snapshot of the playback state.
func (s *Scheduler) State() rsvp.State {
	st := rsvp.State{
		Playback:     s.machine.Current(),
		CurrentIndex: s.index,
		TotalWords:   len(s.seq),
		RateWPM:      s.rate,
	}
	if s.shown {
		if rec, ok := s.displayed(); ok {
			st.Current = &rec
		}
	}

	switch st.Playback {
	case rsvp.StateIdle:
		st.RemainingMs = s.suffix[0]
	case rsvp.StatePlaying:
		spent := s.ms(s.clock.Now()) - s.boundaryMs
		st.RemainingMs = max(0, s.remainingFrom(s.index)-spent)
	case rsvp.StatePaused:
		st.RemainingMs = max(0, s.remainingFrom(s.index)-s.pausedMs)
	}
	return st
}

// Sequence returns the loaded sequence.
func (s *Scheduler) Sequence() rsvp.Sequence {
	return s.seq
}

// Stats returns sampling statistics.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// OnWordChange registers a callback for the displayed word changing.
func (s *Scheduler) OnWordChange(callback func(rsvp.WordEvent)) {
	s.onWordCallbacks = append(s.onWordCallbacks, callback)
}

// OnStateChange registers a callback for state transitions.
func (s *Scheduler) OnStateChange(callback func(from, to rsvp.PlaybackState)) {
	s.onStateCallbacks = append(s.onStateCallbacks, callback)
}

// advance crosses every word boundary that is due at now. Boundaries move
// by nominal durations so lateness never accumulates.
func (s *Scheduler) advance(now float64) {
	crossed := 0
	for s.sampling && s.index < len(s.seq) {
		d := s.seq[s.index].DurationMs
		if now-s.boundaryMs < d {
			break
		}
		s.boundaryMs += d
		s.stats.ScheduledMs += d
		s.index++
		crossed++

		if s.index >= len(s.seq) {
			s.finish()
			break
		}
		s.show()
	}

	s.stats.Advances += int64(crossed)
	if crossed > s.stats.MaxPerSample {
		s.stats.MaxPerSample = crossed
	}
}

// finish ends playback. The last word stays displayed.
func (s *Scheduler) finish() {
	s.cancel()
	s.transition(rsvp.StateFinished)
}

func (s *Scheduler) show() {
	s.shown = true
	s.emitWord(rsvp.WordEvent{
		Index:  s.index,
		Total:  len(s.seq),
		Record: s.seq[s.index],
	})
}

func (s *Scheduler) clear() {
	if !s.shown {
		return
	}
	s.shown = false
	s.emitWord(rsvp.WordEvent{
		Index:   0,
		Total:   len(s.seq),
		Cleared: true,
	})
}

// displayed returns the record on screen. After finishing that is the
// last word.
func (s *Scheduler) displayed() (rsvp.WordRecord, bool) {
	switch {
	case len(s.seq) == 0:
		return rsvp.WordRecord{}, false
	case s.index >= len(s.seq):
		return s.seq[len(s.seq)-1], true
	default:
		return s.seq[s.index], true
	}
}

func (s *Scheduler) remainingFrom(index int) float64 {
	if index >= len(s.suffix) {
		return 0
	}
	return s.suffix[index]
}

func (s *Scheduler) subscribe() {
	s.gen++
	s.stats.Subscriptions++
	s.sampling = true
}

// cancel invalidates the current subscription. Every operation cancels
// before it optionally subscribes again.
func (s *Scheduler) cancel() {
	if s.sampling {
		s.gen++
	}
	s.sampling = false
}

func (s *Scheduler) transition(to rsvp.PlaybackState) {
	from := s.machine.Current()
	if !s.machine.Transition(to) || from == to {
		return
	}
	for _, callback := range s.onStateCallbacks {
		callback(from, to)
	}
}

func (s *Scheduler) emitWord(ev rsvp.WordEvent) {
	for _, callback := range s.onWordCallbacks {
		callback(ev)
	}
}

func (s *Scheduler) ms(t time.Time) float64 {
	return float64(t.Sub(s.origin)) / float64(time.Millisecond)
}
