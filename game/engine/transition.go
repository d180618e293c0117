package engine

import "time"

// State is the complete, copyable state of one session. It is only ever
// changed through Transition.
type State struct {
	Deck            Deck
	Pending         PendingFlips
	MatchedCount    int
	AttemptCount    int
	PairCount       int
	Status          Status
	AttemptCounting bool
	RevealWindow    time.Duration

	// Turn counts scheduled hides and Generation counts deck replacements.
	// Together they form the token a hide must present to take effect.
	Turn        uint64
	Generation  uint64
	HidePending bool
}

// HideToken identifies the mismatch a scheduled hide belongs to.
type HideToken struct {
	Generation uint64
	Turn       uint64
}

// Action is an input to Transition.
type Action interface{ isAction() }

// Flip requests that the card at Index be turned face-up.
type Flip struct{ Index int }

// HideExpired reports that the reveal window of a mismatch has elapsed.
type HideExpired struct{ Token HideToken }

// Reset replaces the deck and clears all counters.
type Reset struct {
	Deck      Deck
	PairCount int
}

func (Flip) isAction()        {}
func (HideExpired) isAction() {}
func (Reset) isAction()       {}

// Command is a side effect requested by Transition for the host to perform.
type Command interface{ isCommand() }

// ScheduleHide asks the host to deliver HideExpired{Token} after After.
type ScheduleHide struct {
	After time.Duration
	Token HideToken
}

// CancelHide asks the host to stop the outstanding hide timer.
type CancelHide struct{}

// NotifyWin asks the host to notify win subscribers.
type NotifyWin struct{}

func (ScheduleHide) isCommand() {}
func (CancelHide) isCommand()   {}
func (NotifyWin) isCommand()    {}

// NewState returns a playing state for deck, configured by cfg.
func NewState(deck Deck, cfg *GameConfig) State {
	return State{
		Deck:            deck,
		PairCount:       len(deck) / 2,
		Status:          StatusPlaying,
		AttemptCounting: cfg.AttemptCounting,
		RevealWindow:    revealWindow(cfg),
	}
}

func revealWindow(cfg *GameConfig) time.Duration {
	return time.Duration(cfg.RevealWindowMs) * time.Millisecond
}

// Token returns the hide token for the current mismatch.
func (s State) Token() HideToken {
	return HideToken{Generation: s.Generation, Turn: s.Turn}
}

// Transition applies action to state and returns the next state together
// with the commands the host must run. The input state is not modified.
func Transition(state State, action Action) (State, []Command) {
	switch a := action.(type) {
	case Flip:
		return applyFlip(state, a.Index)
	case HideExpired:
		return applyHide(state, a.Token)
	case Reset:
		return applyReset(state, a)
	default:
		return state, nil
	}
}

// CanFlip reports whether a flip of index would be accepted.
func (s State) CanFlip(index int) bool {
	if s.Status != StatusPlaying || s.Pending.Full() {
		return false
	}
	if index < 0 || index >= len(s.Deck) {
		return false
	}
	card := s.Deck[index]
	return !card.Flipped && !card.Matched
}

func applyFlip(state State, index int) (State, []Command) {
	if !state.CanFlip(index) {
		return state, nil
	}

	next := state
	next.Deck = state.Deck.Clone()
	next.Deck[index].Flipped = true
	next.Pending = state.Pending.push(index)

	if !next.Pending.Full() {
		return next, nil
	}
	return resolveTurn(next)
}

// resolveTurn compares the two pending cards.
func resolveTurn(state State) (State, []Command) {
	a, b := state.Pending.At(0), state.Pending.At(1)

	if state.AttemptCounting {
		state.AttemptCount++
	}

	if state.Deck[a].FaceKey != state.Deck[b].FaceKey {
		state.Turn++
		state.HidePending = true
		return state, []Command{ScheduleHide{After: state.RevealWindow, Token: state.Token()}}
	}

	state.Deck[a].Matched = true
	state.Deck[b].Matched = true
	state.MatchedCount++
	state.Pending = PendingFlips{}

	var cmds []Command
	state, cmds = evaluate(state, cmds)
	return state, cmds
}

func applyHide(state State, token HideToken) (State, []Command) {
	if !state.HidePending || token != state.Token() || !state.Pending.Full() {
		return state, nil
	}

	next := state
	next.Deck = state.Deck.Clone()
	for _, i := range state.Pending.Indices() {
		if !next.Deck[i].Matched {
			next.Deck[i].Flipped = false
		}
	}
	next.Pending = PendingFlips{}
	next.HidePending = false
	return next, nil
}

func applyReset(state State, r Reset) (State, []Command) {
	var cmds []Command
	if state.HidePending {
		cmds = append(cmds, CancelHide{})
	}

	pairCount := r.PairCount
	if pairCount == 0 {
		pairCount = len(r.Deck) / 2
	}

	return State{
		Deck:            r.Deck,
		PairCount:       pairCount,
		Status:          StatusPlaying,
		AttemptCounting: state.AttemptCounting,
		RevealWindow:    state.RevealWindow,
		Generation:      state.Generation + 1,
	}, cmds
}
