package engine

import (
	"reflect"
	"testing"
	"time"
)

func newTestState(keys ...FaceKey) State {
	deck := make(Deck, len(keys))
	for i, k := range keys {
		deck[i] = Card{ID: i, FaceKey: k}
	}
	return State{
		Deck:            deck,
		PairCount:       len(keys) / 2,
		Status:          StatusPlaying,
		AttemptCounting: true,
		RevealWindow:    time.Second,
	}
}

func apply(t *testing.T, s State, actions ...Action) (State, []Command) {
	t.Helper()
	var cmds []Command
	for _, a := range actions {
		s, cmds = Transition(s, a)
	}
	return s, cmds
}

func TestTransition_FirstFlip(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	next, cmds := Transition(s, Flip{Index: 2})

	if len(cmds) != 0 {
		t.Errorf("Expected no commands, got %v", cmds)
	}
	if !next.Deck[2].Flipped {
		t.Error("Expected card 2 to be flipped")
	}
	if !reflect.DeepEqual(next.Pending.Indices(), []int{2}) {
		t.Errorf("Expected pending [2], got %v", next.Pending.Indices())
	}
	if s.Deck[2].Flipped {
		t.Error("Transition mutated the input state")
	}
}

func TestTransition_Match(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	next, cmds := apply(t, s, Flip{Index: 1}, Flip{Index: 2})

	if len(cmds) != 0 {
		t.Errorf("A non-winning match should not emit commands, got %v", cmds)
	}
	if !next.Deck[1].Matched || !next.Deck[2].Matched {
		t.Error("Expected both cards matched")
	}
	if !next.Deck[1].Flipped || !next.Deck[2].Flipped {
		t.Error("Matched cards must stay face-up")
	}
	if next.MatchedCount != 1 || next.AttemptCount != 1 {
		t.Errorf("Expected matched=1 attempts=1, got %d and %d", next.MatchedCount, next.AttemptCount)
	}
	if next.Pending.Len() != 0 || next.HidePending {
		t.Error("Expected pending cleared with no hide")
	}
}

func TestTransition_Mismatch(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	next, cmds := apply(t, s, Flip{Index: 0}, Flip{Index: 1})

	if len(cmds) != 1 {
		t.Fatalf("Expected one command, got %v", cmds)
	}
	hide, ok := cmds[0].(ScheduleHide)
	if !ok {
		t.Fatalf("Expected ScheduleHide, got %T", cmds[0])
	}
	if hide.After != time.Second {
		t.Errorf("Expected reveal window 1s, got %v", hide.After)
	}
	if hide.Token != next.Token() {
		t.Errorf("Hide token %v does not match state token %v", hide.Token, next.Token())
	}
	if next.AttemptCount != 1 {
		t.Errorf("Attempt should be counted at detection, got %d", next.AttemptCount)
	}
	if !next.Deck[0].Flipped || !next.Deck[1].Flipped {
		t.Error("Mismatched cards should remain face-up")
	}
	if !next.Pending.Full() {
		t.Error("Pending should stay full until the hide fires")
	}

	t.Run("third flip blocked", func(t *testing.T) {
		blocked, cmds := Transition(next, Flip{Index: 2})
		if len(cmds) != 0 || !reflect.DeepEqual(blocked, next) {
			t.Error("Flip while two are pending must be a no-op")
		}
	})

	t.Run("hide expired", func(t *testing.T) {
		hidden, cmds := Transition(next, HideExpired{Token: hide.Token})
		if len(cmds) != 0 {
			t.Errorf("Expected no commands, got %v", cmds)
		}
		if hidden.Deck[0].Flipped || hidden.Deck[1].Flipped {
			t.Error("Cards should be face-down after hide")
		}
		if hidden.Pending.Len() != 0 || hidden.HidePending {
			t.Error("Pending should be cleared after hide")
		}
		if hidden.AttemptCount != 1 {
			t.Errorf("Hide must not count an attempt, got %d", hidden.AttemptCount)
		}
	})

	t.Run("stale token ignored", func(t *testing.T) {
		stale := hide.Token
		stale.Turn--
		same, _ := Transition(next, HideExpired{Token: stale})
		if !reflect.DeepEqual(same, next) {
			t.Error("Stale hide should not change state")
		}
	})
}

func TestTransition_WinEmitsNotifyOnce(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	s, _ = apply(t, s, Flip{Index: 0}, Flip{Index: 3})
	won, cmds := apply(t, s, Flip{Index: 1}, Flip{Index: 2})

	if won.Status != StatusWon {
		t.Fatalf("Expected won status, got %q", won.Status)
	}
	if len(cmds) != 1 {
		t.Fatalf("Expected NotifyWin, got %v", cmds)
	}
	if _, ok := cmds[0].(NotifyWin); !ok {
		t.Errorf("Expected NotifyWin, got %T", cmds[0])
	}

	for i := range won.Deck {
		after, cmds := Transition(won, Flip{Index: i})
		if len(cmds) != 0 || !reflect.DeepEqual(after, won) {
			t.Errorf("Flip(%d) after win should be a no-op", i)
		}
	}
}

func TestTransition_Reset(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	mid, _ := apply(t, s, Flip{Index: 0}, Flip{Index: 1})
	oldToken := mid.Token()

	fresh := newTestState("A", "A").Deck
	next, cmds := Transition(mid, Reset{Deck: fresh, PairCount: 1})

	if len(cmds) != 1 {
		t.Fatalf("Expected CancelHide, got %v", cmds)
	}
	if _, ok := cmds[0].(CancelHide); !ok {
		t.Errorf("Expected CancelHide, got %T", cmds[0])
	}
	if next.Generation != mid.Generation+1 {
		t.Errorf("Expected generation %d, got %d", mid.Generation+1, next.Generation)
	}
	if next.AttemptCount != 0 || next.MatchedCount != 0 || next.Pending.Len() != 0 || next.HidePending {
		t.Errorf("Reset did not clear counters: %+v", next)
	}
	if next.PairCount != 1 || len(next.Deck) != 2 {
		t.Errorf("Expected 1 pair of 2 cards, got %d and %d", next.PairCount, len(next.Deck))
	}

	// The old mismatch's hide can never apply to the new deck.
	flipped, _ := Transition(next, Flip{Index: 0})
	after, _ := Transition(flipped, HideExpired{Token: oldToken})
	if !reflect.DeepEqual(after, flipped) {
		t.Error("Hide issued before reset changed the new deck")
	}

	t.Run("no hide outstanding", func(t *testing.T) {
		_, cmds := Transition(s, Reset{Deck: fresh})
		if len(cmds) != 0 {
			t.Errorf("Expected no commands, got %v", cmds)
		}
	})
}

func TestTransition_NotPlaying(t *testing.T) {
	var s State
	next, cmds := Transition(s, Flip{Index: 0})
	if len(cmds) != 0 || !reflect.DeepEqual(next, s) {
		t.Error("Flip on an empty state should be a no-op")
	}
}

func TestState_CanFlip(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	s, _ = apply(t, s, Flip{Index: 0})

	tests := []struct {
		index int
		want  bool
	}{
		{-1, false},
		{0, false},
		{1, true},
		{3, true},
		{4, false},
	}
	for _, tt := range tests {
		if got := s.CanFlip(tt.index); got != tt.want {
			t.Errorf("CanFlip(%d): expected %v, got %v", tt.index, tt.want, got)
		}
	}
}
