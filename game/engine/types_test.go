package engine

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusSetup, "setup"},
		{StatusPlaying, "playing"},
		{StatusWon, "won"},
	}

	for _, test := range tests {
		if string(test.status) != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, string(test.status))
		}
	}
}

func TestValidationConstants(t *testing.T) {
	tests := []struct {
		name     string
		actual   int
		expected int
	}{
		{"MinPairCount", MinPairCount, 1},
		{"DefaultPairCount", DefaultPairCount, 8},
		{"DefaultRevealWindowMs", DefaultRevealWindowMs, 1000},
		{"MinCardSize", MinCardSize, 100},
		{"MaxCardSize", MaxCardSize, 150},
		{"DefaultCardSize", DefaultCardSize, 125},
		{"WebSocketBufferSize", WebSocketBufferSize, 256},
	}

	for _, test := range tests {
		if test.actual != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.actual)
		}
	}
}

func TestPendingFlips(t *testing.T) {
	var p PendingFlips
	if p.Len() != 0 || p.Full() {
		t.Fatal("Zero value should be empty")
	}

	p = p.push(3)
	p = p.push(1)
	if !p.Full() {
		t.Error("Expected full after two pushes")
	}
	if !reflect.DeepEqual(p.Indices(), []int{3, 1}) {
		t.Errorf("Expected [3 1], got %v", p.Indices())
	}
	if p.At(1) != 1 {
		t.Errorf("Expected At(1)=1, got %d", p.At(1))
	}

	t.Run("third push panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic on third push")
			}
		}()
		p.push(2)
	})
}

func TestBuildSnapshot_HidesFaceDownKeys(t *testing.T) {
	s := newTestState("B", "A", "A", "B")
	s.Deck[0].Flipped = true
	s.Deck[1].Flipped = true
	s.Deck[1].Matched = true

	snap := BuildSnapshot(s)

	if snap.Cards[0].FaceKey != "B" {
		t.Errorf("Flipped card should expose its key, got %q", snap.Cards[0].FaceKey)
	}
	if snap.Cards[1].FaceKey != "A" {
		t.Errorf("Matched card should expose its key, got %q", snap.Cards[1].FaceKey)
	}
	if snap.Cards[2].FaceKey != "" || snap.Cards[3].FaceKey != "" {
		t.Error("Face-down cards must not expose their keys")
	}
	if snap.RevealWindowMs != 1000 {
		t.Errorf("Expected reveal window 1000ms, got %d", snap.RevealWindowMs)
	}
}

func TestSnapshotJSON_HiddenOmitsFaceKey(t *testing.T) {
	snap := BuildSnapshot(newTestState("A", "A"))
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}

	var m struct {
		Cards []map[string]interface{} `json:"cards"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for i, c := range m.Cards {
		if _, ok := c["face_key"]; ok {
			t.Errorf("Card %d JSON should not contain face_key", i)
		}
	}
}

func TestBuildSnapshot_ZeroState(t *testing.T) {
	snap := BuildSnapshot(State{})
	if snap.Status != StatusSetup {
		t.Errorf("Expected setup status for zero state, got %q", snap.Status)
	}
	if len(snap.Cards) != 0 {
		t.Errorf("Expected no cards, got %d", len(snap.Cards))
	}
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock()
	var fired []string

	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "late") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "early") })
	stopped := clock.AfterFunc(time.Second, func() { fired = append(fired, "stopped") })

	if !stopped.Stop() {
		t.Error("Stop on a pending timer should return true")
	}
	if stopped.Stop() {
		t.Error("Second Stop should return false")
	}
	if clock.Pending() != 2 {
		t.Errorf("Expected 2 pending timers, got %d", clock.Pending())
	}

	clock.Advance(time.Second)
	if !reflect.DeepEqual(fired, []string{"early"}) {
		t.Errorf("Expected [early], got %v", fired)
	}

	clock.Advance(time.Second)
	if !reflect.DeepEqual(fired, []string{"early", "late"}) {
		t.Errorf("Expected [early late], got %v", fired)
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", clock.Pending())
	}
}

func TestDeckClone(t *testing.T) {
	d := Deck{{ID: 0, FaceKey: "A"}}
	c := d.Clone()
	c[0].Flipped = true
	if d[0].Flipped {
		t.Error("Clone shares storage with the original")
	}
	if Deck(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
