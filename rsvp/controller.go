package rsvp

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/rsvp/internal/cache"
)

// Controller owns the loaded text and drives a Scheduler. It re-derives
// the sequence when the reading rate changes and memoizes derivations.
//
// Scheduler callbacks run while the Controller holds its lock and must not
// call back into it.
type Controller struct {
	// Core components
	pre   Preprocessor
	sched Scheduler
	cache *cache.LRU[sequenceKey, Sequence]

	config Config
	mu     sync.Mutex

	// Content
	text    string
	textSum [sha256.Size]byte
	seq     Sequence
	wpm     int

	// Deferred re-derivation. A newer rate or text bumps rederiveGen, which
	// invalidates any derivation still waiting to run.
	rederiveGen  uint64
	stopRederive func() bool
	afterFunc    func(time.Duration, func()) func() bool

	// Callbacks
	onLoaded []func(SequenceLoadedMsg)
	onRate   []func(RateChangedMsg)
	pending  []func()
}

type sequenceKey struct {
	sum      [sha256.Size]byte
	wpm      int
	fontSize float64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithAfterFunc replaces time.AfterFunc for deferred re-derivation. The
// returned function cancels the pending call.
func WithAfterFunc(fn func(time.Duration, func()) func() bool) ControllerOption {
	return func(c *Controller) {
		c.afterFunc = fn
	}
}

// NewController creates a controller with the given components.
func NewController(pre Preprocessor, sched Scheduler, config Config, opts ...ControllerOption) *Controller {
	wpm := config.WPM
	if ValidateRate(wpm) != nil {
		wpm = DefaultWPM
	}

	c := &Controller{
		pre:    pre,
		sched:  sched,
		cache:  cache.NewLRU[sequenceKey, Sequence](config.CacheSize),
		config: config,
		wpm:    wpm,
		seq:    Sequence{},
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := sched.SetRate(wpm); err != nil {
		log.Warn("Scheduler rejected initial rate", "wpm", wpm, "err", err)
	}
	return c
}

// LoadText derives a sequence from text at the current rate and hands it
// to the scheduler, which returns to idle. It returns the word count.
func (c *Controller) LoadText(text string) int {
	c.mu.Lock()
	c.cancelRederive()

	c.text = text
	c.textSum = sha256.Sum256([]byte(text))
	c.seq = c.derive(c.wpm)
	c.sched.LoadSequence(c.seq)

	n := len(c.seq)
	c.queueLoaded(SequenceLoadedMsg{Words: n, WPM: c.wpm})
	c.unlockAndFlush()

	log.Debug("Loaded text", "words", n, "wpm", c.Rate())
	return n
}

// Start begins playback from the current index.
func (c *Controller) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Start()
}

// Pause halts playback on the current word.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Pause()
}

// Resume continues after a pause.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Resume()
}

// TogglePause pauses while playing and plays otherwise.
func (c *Controller) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.sched.State().Playback {
	case StatePlaying:
		return c.sched.Pause()
	case StatePaused:
		return c.sched.Resume()
	default:
		return c.sched.Start()
	}
}

// Stop returns to idle at index 0.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.Stop()
}

// Reset rewinds to idle at index 0.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.Reset()
}

// Seek jumps to the word at index.
func (c *Controller) Seek(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.Seek(index)
}

// Next moves to the following word.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.sched.State()
	if st.TotalWords == 0 {
		return &OpError{Op: "next", Err: ErrEmptySequence}
	}
	target := 0
	if st.Playback != StateIdle {
		target = min(st.CurrentIndex, st.TotalWords-1) + 1
	}
	if target >= st.TotalWords {
		return &OpError{Op: "next", Err: ErrIndexExhausted}
	}
	return c.sched.Seek(target)
}

// Previous moves to the preceding word.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.sched.State()
	if st.TotalWords == 0 {
		return &OpError{Op: "previous", Err: ErrEmptySequence}
	}
	target := min(st.CurrentIndex, st.TotalWords-1) - 1
	if st.Playback == StateIdle || target < 0 {
		return &OpError{Op: "previous", Err: ErrIndexExhausted}
	}
	return c.sched.Seek(target)
}

// Find returns the indexes of words matching pattern, best match first.
func (c *Controller) Find(pattern string) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.Find(pattern)
}

// SetRate changes the reading rate. Invalid rates are rejected and the
// current rate kept. The loaded text is re-derived after the configured
// delay unless a newer rate or text arrives first.
func (c *Controller) SetRate(wpm int) error {
	if err := ValidateRate(wpm); err != nil {
		log.Debug("Rejected rate", "wpm", wpm)
		return err
	}

	c.mu.Lock()
	if wpm == c.wpm {
		c.mu.Unlock()
		return nil
	}
	if err := c.sched.SetRate(wpm); err != nil {
		c.mu.Unlock()
		return err
	}
	c.wpm = wpm
	c.queueRate(RateChangedMsg{WPM: wpm})
	c.scheduleRederive()
	c.unlockAndFlush()

	log.Debug("Rate changed", "wpm", wpm)
	return nil
}

// IncreaseRate raises the rate by one step.
func (c *Controller) IncreaseRate() error {
	return c.SetRate(c.Rate() + WPMStep)
}

// DecreaseRate lowers the rate by one step.
func (c *Controller) DecreaseRate() error {
	return c.SetRate(c.Rate() - WPMStep)
}

// Rate returns the current reading rate.
func (c *Controller) Rate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wpm
}

// State returns a snapshot of the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sched.State()
}

// Text returns the loaded text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Sequence returns the sequence handed to the scheduler last.
func (c *Controller) Sequence() Sequence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Sample forwards a timing sample when the scheduler is externally
// sampled.
func (c *Controller) Sample(gen uint64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sched.(Sampler); ok {
		s.Sample(gen, now)
	}
}

// Subscription reports the scheduler's sampling subscription. Schedulers
// that sample themselves never report an active subscription.
func (c *Controller) Subscription() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sched.(Sampler); ok {
		return s.Subscription()
	}
	return 0, false
}

// CacheStats returns statistics of the derivation cache.
func (c *Controller) CacheStats() cache.Stats {
	return c.cache.Stats()
}

// OnWordChange registers a callback for the displayed word changing.
func (c *Controller) OnWordChange(fn func(WordEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.OnWordChange(fn)
}

// OnStateChange registers a callback for playback state transitions.
func (c *Controller) OnStateChange(fn func(from, to PlaybackState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.OnStateChange(fn)
}

// OnSequenceLoaded registers a callback for new sequences. It runs after
// the Controller released its lock.
func (c *Controller) OnSequenceLoaded(fn func(SequenceLoadedMsg)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLoaded = append(c.onLoaded, fn)
}

// OnRateChange registers a callback for rate changes. It runs after the
// Controller released its lock.
func (c *Controller) OnRateChange(fn func(RateChangedMsg)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRate = append(c.onRate, fn)
}

// Close cancels any pending re-derivation.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRederive()
}

// derive returns the sequence for the loaded text at wpm. Must be called
// with the lock held.
func (c *Controller) derive(wpm int) Sequence {
	key := sequenceKey{sum: c.textSum, wpm: wpm, fontSize: c.config.FontSize}
	if seq, ok := c.cache.Get(key); ok {
		return seq
	}

	start := time.Now()
	seq := c.pre.Process(c.text, wpm)
	c.cache.Put(key, seq)

	log.Debug("Derived sequence", "words", len(seq), "wpm", wpm, "took", time.Since(start))
	return seq
}

func (c *Controller) scheduleRederive() {
	c.cancelRederive()
	if c.text == "" {
		return
	}

	gen := c.rederiveGen
	c.stopRederive = c.afterFunc(c.config.RederiveDelay, func() {
		c.rederive(gen)
	})
}

func (c *Controller) cancelRederive() {
	c.rederiveGen++
	if c.stopRederive != nil {
		c.stopRederive()
		c.stopRederive = nil
	}
}

// rederive replaces the sequence with one derived at the current rate,
// unless a newer rate or text superseded it.
func (c *Controller) rederive(gen uint64) {
	c.mu.Lock()
	if gen != c.rederiveGen {
		c.mu.Unlock()
		log.Debug("Dropped superseded derivation", "gen", gen)
		return
	}
	c.stopRederive = nil

	prev := c.sched.State()
	c.seq = c.derive(c.wpm)
	c.sched.LoadSequence(c.seq)

	if c.config.KeepPositionOnRateChange && c.restorable(prev) {
		if err := c.sched.Seek(prev.CurrentIndex); err == nil && prev.Playback == StatePlaying {
			c.sched.Resume()
		}
	}

	c.queueLoaded(SequenceLoadedMsg{Words: len(c.seq), WPM: c.wpm, Rederived: true})
	c.unlockAndFlush()
}

func (c *Controller) restorable(prev State) bool {
	if prev.Playback != StatePlaying && prev.Playback != StatePaused {
		return false
	}
	return prev.CurrentIndex < len(c.seq)
}

func (c *Controller) queueLoaded(msg SequenceLoadedMsg) {
	for _, fn := range c.onLoaded {
		c.pending = append(c.pending, func() { fn(msg) })
	}
}

func (c *Controller) queueRate(msg RateChangedMsg) {
	for _, fn := range c.onRate {
		c.pending = append(c.pending, func() { fn(msg) })
	}
}

func (c *Controller) unlockAndFlush() {
	callbacks := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
