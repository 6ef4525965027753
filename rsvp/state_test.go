package rsvp

import "testing"

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []PlaybackState
		ok   []bool
	}{
		{
			name: "play pause resume finish",
			path: []PlaybackState{StatePlaying, StatePaused, StatePlaying, StateFinished},
			ok:   []bool{true, true, true, true},
		},
		{
			name: "idle cannot finish",
			path: []PlaybackState{StateFinished},
			ok:   []bool{false},
		},
		{
			name: "paused cannot finish",
			path: []PlaybackState{StatePaused, StateFinished},
			ok:   []bool{true, false},
		},
		{
			name: "stop from anywhere",
			path: []PlaybackState{StatePlaying, StateIdle, StatePaused, StateIdle},
			ok:   []bool{true, true, true, true},
		},
		{
			name: "restart after finish",
			path: []PlaybackState{StatePlaying, StateFinished, StatePlaying},
			ok:   []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			for i, to := range tt.path {
				from := sm.Current()
				got := sm.Transition(to)
				if got != tt.ok[i] {
					t.Fatalf("step %d %s -> %s: got %v, want %v", i, from, to, got, tt.ok[i])
				}
				if !got && sm.Current() != from {
					t.Fatalf("rejected transition changed state to %s", sm.Current())
				}
			}
		})
	}
}

func TestStateMachineCallbacks(t *testing.T) {
	sm := NewStateMachine()

	var events []string
	sm.OnExit(StateIdle, func() { events = append(events, "exit idle") })
	sm.OnEnter(StatePlaying, func() { events = append(events, "enter playing") })

	sm.Transition(StatePlaying)

	if len(events) != 2 || events[0] != "exit idle" || events[1] != "enter playing" {
		t.Errorf("callbacks = %v", events)
	}
}

func TestPlaybackStateString(t *testing.T) {
	tests := map[PlaybackState]string{
		StateIdle:         "idle",
		StatePlaying:      "playing",
		StatePaused:       "paused",
		StateFinished:     "finished",
		PlaybackState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestStateHelpers(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		active   bool
		canPlay  bool
		canPause bool
		progress float64
	}{
		{"empty", State{}, false, false, false, 0},
		{"idle", State{Playback: StateIdle, TotalWords: 4}, false, true, false, 0},
		{"playing", State{Playback: StatePlaying, CurrentIndex: 1, TotalWords: 4}, true, false, true, 0.25},
		{"paused", State{Playback: StatePaused, CurrentIndex: 2, TotalWords: 4}, true, true, false, 0.5},
		{"finished", State{Playback: StateFinished, CurrentIndex: 4, TotalWords: 4}, false, true, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsActive(); got != tt.active {
				t.Errorf("IsActive = %v, want %v", got, tt.active)
			}
			if got := tt.state.CanPlay(); got != tt.canPlay {
				t.Errorf("CanPlay = %v, want %v", got, tt.canPlay)
			}
			if got := tt.state.CanPause(); got != tt.canPause {
				t.Errorf("CanPause = %v, want %v", got, tt.canPause)
			}
			if got := tt.state.Progress(); got != tt.progress {
				t.Errorf("Progress = %v, want %v", got, tt.progress)
			}
		})
	}
}
