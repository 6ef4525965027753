package sync

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/rsvp/rsvp"
)

// DefaultFrameInterval is the sampling interval used when none is given.
const DefaultFrameInterval = 16 * time.Millisecond

var _ rsvp.Scheduler = (*Player)(nil)

// Player drives a Scheduler from its own ticker goroutine. All operations
// and samples are serialized, and callbacks run outside the lock.
type Player struct {
	sched    *Scheduler
	clock    rsvp.Clock
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc // Cancels the running sampling goroutine
	running uint64             // Generation the goroutine samples for
	closed  bool
	pending []func()
	wg      sync.WaitGroup

	// Callbacks
	onWordCallbacks  []func(rsvp.WordEvent)
	onStateCallbacks []func(from, to rsvp.PlaybackState)

	statsLog rate.Sometimes
}

// NewPlayer creates a Player sampling every interval. A non-positive
// interval uses DefaultFrameInterval.
func NewPlayer(interval time.Duration, opts ...Option) *Player {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	sched := NewScheduler(opts...)
	p := &Player{
		sched:    sched,
		clock:    sched.clock,
		interval: interval,
		statsLog: rate.Sometimes{Interval: time.Second},
	}

	sched.OnWordChange(func(ev rsvp.WordEvent) {
		for _, callback := range p.onWordCallbacks {
			p.pending = append(p.pending, func() { callback(ev) })
		}
	})
	sched.OnStateChange(func(from, to rsvp.PlaybackState) {
		log.Debug("Playback state changed", "from", from, "to", to)
		for _, callback := range p.onStateCallbacks {
			p.pending = append(p.pending, func() { callback(from, to) })
		}
	})

	return p
}

// LoadSequence replaces the sequence.
func (p *Player) LoadSequence(seq rsvp.Sequence) {
	p.do(func() bool {
		p.sched.LoadSequence(seq)
		return true
	})
}

// Start begins playback.
func (p *Player) Start() bool {
	return p.do(p.sched.Start)
}

// Pause halts playback on the current word.
func (p *Player) Pause() bool {
	return p.do(p.sched.Pause)
}

// Resume continues after a pause.
func (p *Player) Resume() bool {
	return p.do(p.sched.Resume)
}

// Stop returns to idle and clears the display.
func (p *Player) Stop() {
	p.do(func() bool {
		p.sched.Stop()
		return true
	})
}

// Reset is Stop.
func (p *Player) Reset() {
	p.do(func() bool {
		p.sched.Reset()
		return true
	})
}

// Seek jumps to the word at index.
func (p *Player) Seek(index int) error {
	var err error
	p.do(func() bool {
		err = p.sched.Seek(index)
		return err == nil
	})
	return err
}

// SetRate stores the rate for future derivations.
func (p *Player) SetRate(wpm int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.SetRate(wpm)
}

// Rate returns the stored reading rate.
func (p *Player) Rate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.Rate()
}

// State returns a snapshot of the playback state.
func (p *Player) State() rsvp.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.State()
}

// Stats returns sampling statistics.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.Stats()
}

// OnWordChange registers a callback for the displayed word changing.
// Callbacks run on the goroutine that caused the change.
func (p *Player) OnWordChange(callback func(rsvp.WordEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onWordCallbacks = append(p.onWordCallbacks, callback)
}

// OnStateChange registers a callback for state transitions.
func (p *Player) OnStateChange(callback func(from, to rsvp.PlaybackState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStateCallbacks = append(p.onStateCallbacks, callback)
}

// Close stops sampling and waits for the sampling goroutine to exit.
// The Player cannot be used to play afterwards.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	p.sched.cancel()
	p.stopSampling()
	p.mu.Unlock()

	p.wg.Wait()
}

// do runs op under the lock, reconciles the sampling goroutine with the
// scheduler's subscription and then runs queued callbacks.
func (p *Player) do(op func() bool) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	ok := op()
	p.reconcile()
	callbacks := p.takePending()
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return ok
}

// reconcile makes sure exactly one goroutine samples the current
// subscription. Must be called with the lock held.
func (p *Player) reconcile() {
	gen, active := p.sched.Subscription()
	if active && p.cancel != nil && gen == p.running {
		return
	}
	p.stopSampling()
	if !active || p.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = gen

	p.wg.Add(1)
	go p.sampleLoop(ctx, gen)
}

func (p *Player) stopSampling() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Player) sampleLoop(ctx context.Context, gen uint64) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(ctx, gen) {
				return
			}
		}
	}
}

// tick applies one sample. It reports whether the goroutine should keep
// sampling.
func (p *Player) tick(ctx context.Context, gen uint64) bool {
	p.mu.Lock()
	if ctx.Err() != nil {
		p.mu.Unlock()
		return false
	}

	p.sched.Sample(gen, p.clock.Now())
	p.statsLog.Do(func() {
		stats := p.sched.Stats()
		log.Debug("Sampling",
			"samples", stats.Samples,
			"dropped", stats.Dropped,
			"advances", stats.Advances,
			"max_per_sample", stats.MaxPerSample)
	})

	p.reconcile()
	callbacks := p.takePending()
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return ctx.Err() == nil
}

func (p *Player) takePending() []func() {
	callbacks := p.pending
	p.pending = nil
	return callbacks
}
