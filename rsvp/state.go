package rsvp

// PlaybackState represents where the reader is in its lifecycle.
type PlaybackState int

const (
	// StateIdle indicates nothing is being shown.
	StateIdle PlaybackState = iota
	// StatePlaying indicates words are advancing.
	StatePlaying
	// StatePaused indicates playback is halted on the current word.
	StatePaused
	// StateFinished indicates the last word has been shown.
	StateFinished
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// State is a point-in-time view of a scheduler.
type State struct {
	Playback     PlaybackState
	CurrentIndex int         // 0-based position into the sequence
	TotalWords   int         // Length of the sequence
	Current      *WordRecord // Word on screen, nil when cleared
	RateWPM      int
	RemainingMs  float64 // Nominal time left, including the current word
}

// IsActive returns true while a word is on screen.
func (s State) IsActive() bool {
	return s.Playback == StatePlaying || s.Playback == StatePaused
}

// CanPlay returns true if start or resume would do something.
func (s State) CanPlay() bool {
	return s.TotalWords > 0 && s.Playback != StatePlaying
}

// CanPause returns true if playback can be paused.
func (s State) CanPause() bool {
	return s.Playback == StatePlaying
}

// Progress returns how far through the sequence playback is, from 0 to 1.
func (s State) Progress() float64 {
	if s.TotalWords == 0 {
		return 0
	}
	if s.Playback == StateFinished {
		return 1
	}
	return float64(s.CurrentIndex) / float64(s.TotalWords)
}

// StateMachine guards transitions between playback states.
type StateMachine struct {
	current     PlaybackState
	transitions map[PlaybackState][]PlaybackState
	onEnter     map[PlaybackState]func()
	onExit      map[PlaybackState]func()
}

// NewStateMachine creates a state machine starting in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[PlaybackState][]PlaybackState{
			StateIdle:     {StateIdle, StatePlaying, StatePaused},
			StatePlaying:  {StatePlaying, StatePaused, StateIdle, StateFinished},
			StatePaused:   {StatePaused, StatePlaying, StateIdle},
			StateFinished: {StatePlaying, StatePaused, StateIdle},
		},
		onEnter: make(map[PlaybackState]func()),
		onExit:  make(map[PlaybackState]func()),
	}
}

// Transition attempts to move to the given state.
func (sm *StateMachine) Transition(to PlaybackState) bool {
	valid := false
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			valid = true
			break
		}
	}
	if !valid {
		return false
	}

	if fn := sm.onExit[sm.current]; fn != nil {
		fn()
	}
	sm.current = to
	if fn := sm.onEnter[to]; fn != nil {
		fn()
	}
	return true
}

// Current returns the current state.
func (sm *StateMachine) Current() PlaybackState {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state PlaybackState, fn func()) {
	sm.onEnter[state] = fn
}

// OnExit registers a callback for exiting a state.
func (sm *StateMachine) OnExit(state PlaybackState, fn func()) {
	sm.onExit[state] = fn
}
