package engine

// evaluate applies the win rule. The transition into Won appends NotifyWin;
// a state that is already Won never produces it again.
func evaluate(state State, cmds []Command) (State, []Command) {
	if state.Status == StatusWon || state.PairCount == 0 {
		return state, cmds
	}
	if state.MatchedCount == state.PairCount {
		state.Status = StatusWon
		cmds = append(cmds, NotifyWin{})
	}
	return state, cmds
}

// BuildSnapshot renders the read-only view of state. Face keys of cards
// that are neither flipped nor matched are left out.
func BuildSnapshot(state State) Snapshot {
	cards := make([]CardView, len(state.Deck))
	for i, c := range state.Deck {
		cv := CardView{
			Index:   i,
			ID:      c.ID,
			Flipped: c.Flipped,
			Matched: c.Matched,
		}
		if c.Flipped || c.Matched {
			cv.FaceKey = c.FaceKey
		}
		cards[i] = cv
	}

	status := state.Status
	if status == "" {
		status = StatusSetup
	}

	return Snapshot{
		Cards:          cards,
		AttemptCount:   state.AttemptCount,
		MatchedCount:   state.MatchedCount,
		PairCount:      state.PairCount,
		Status:         status,
		Pending:        state.Pending.Indices(),
		HidePending:    state.HidePending,
		RevealWindowMs: int(state.RevealWindow.Milliseconds()),
	}
}

// RemainingPairs returns how many pairs are still unmatched.
func (s Snapshot) RemainingPairs() int {
	return s.PairCount - s.MatchedCount
}
