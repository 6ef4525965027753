package sync

import (
	gosync "sync"
	"testing"
	"time"

	"github.com/dgnsrekt/rsvp/rsvp"
	"github.com/dgnsrekt/rsvp/rsvp/preprocess"
)

// steppingClock moves forward by step on every reading, so a fast ticker
// plays through a sequence quickly.
type steppingClock struct {
	mu   gosync.Mutex
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type wordLog struct {
	mu    gosync.Mutex
	words []string
}

func (l *wordLog) add(ev rsvp.WordEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !ev.Cleared {
		l.words = append(l.words, ev.Record.Word)
	}
}

func (l *wordLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.words...)
}

func TestPlayer_PlaysToFinish(t *testing.T) {
	clock := &steppingClock{now: time.Unix(0, 0), step: 50 * time.Millisecond}
	p := NewPlayer(time.Millisecond, WithClock(clock))
	defer p.Close()

	words := &wordLog{}
	finished := make(chan struct{})
	var once gosync.Once

	p.OnWordChange(words.add)
	p.OnStateChange(func(from, to rsvp.PlaybackState) {
		if to == rsvp.StateFinished {
			once.Do(func() { close(finished) })
		}
	})

	p.LoadSequence(preprocess.Process("one two three four", 300))
	if !p.Start() {
		t.Fatal("Start failed")
	}

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for playback to finish")
	}

	got := words.snapshot()
	want := []string{"one", "two", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("words = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}

	if st := p.State(); st.Playback != rsvp.StateFinished {
		t.Errorf("state = %s, want finished", st.Playback)
	}
}

func TestPlayer_PauseStopsSampling(t *testing.T) {
	clock := &steppingClock{now: time.Unix(0, 0), step: time.Millisecond}
	p := NewPlayer(time.Millisecond, WithClock(clock))
	defer p.Close()

	p.LoadSequence(preprocess.Process("one two three four five six", 300))
	p.Start()
	if !p.Pause() {
		t.Fatal("Pause failed")
	}

	before := p.Stats().Samples
	time.Sleep(30 * time.Millisecond)
	if after := p.Stats().Samples; after != before {
		t.Errorf("samples kept arriving while paused: %d -> %d", before, after)
	}
	if st := p.State(); st.Playback != rsvp.StatePaused {
		t.Errorf("state = %s, want paused", st.Playback)
	}
}

func TestPlayer_Close(t *testing.T) {
	p := NewPlayer(time.Millisecond)

	p.LoadSequence(preprocess.Process("a long enough text to keep playing", 100))
	p.Start()

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	if p.Start() {
		t.Error("Start after Close should fail")
	}
}

func TestPlayer_StopFromPlaying(t *testing.T) {
	p := NewPlayer(time.Millisecond)
	defer p.Close()

	words := &wordLog{}
	p.OnWordChange(words.add)

	p.LoadSequence(preprocess.Process("some words to read", 100))
	p.Start()
	p.Stop()

	st := p.State()
	if st.Playback != rsvp.StateIdle || st.CurrentIndex != 0 || st.Current != nil {
		t.Errorf("state after Stop = %+v", st)
	}
	if got := words.snapshot(); len(got) != 1 || got[0] != "some" {
		t.Errorf("words = %v, want [some]", got)
	}
}

func TestPlayer_SetRate(t *testing.T) {
	p := NewPlayer(0, WithRate(500))
	defer p.Close()

	if p.Rate() != 500 {
		t.Errorf("Rate = %d, want 500", p.Rate())
	}
	if err := p.SetRate(7); err == nil {
		t.Error("SetRate(7) should fail")
	}
	if p.Rate() != 500 {
		t.Errorf("Rate after invalid SetRate = %d, want 500", p.Rate())
	}
}
