package strategy

import (
	"sort"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Memory is a player with perfect recall. It remembers the face of every
// card it has seen face-up and uses that to pick the next flip.
type Memory struct {
	known   map[int]engine.FaceKey
	matched map[int]bool
}

// NewMemory returns a player that has seen nothing yet.
func NewMemory() *Memory {
	m := &Memory{}
	m.Forget()
	return m
}

// Forget drops everything remembered, for a new deal.
func (m *Memory) Forget() {
	m.known = make(map[int]engine.FaceKey)
	m.matched = make(map[int]bool)
}

// Record stores the face seen at index.
func (m *Memory) Record(index int, face engine.FaceKey) {
	if face == "" || m.matched[index] {
		return
	}
	m.known[index] = face
}

// Observe records every visible face of a snapshot and marks matched cards.
func (m *Memory) Observe(snap engine.Snapshot) {
	for _, card := range snap.Cards {
		if card.Matched {
			m.matched[card.Index] = true
			delete(m.known, card.Index)
			continue
		}
		m.Record(card.Index, card.FaceKey)
	}
}

// Known returns how many unmatched cards have a remembered face.
func (m *Memory) Known() int {
	return len(m.known)
}

// Next picks the index to flip. It returns false when no flip can be
// accepted right now: the game is over or a mismatched pair is showing.
//
// With one card pending it flips the remembered partner if there is one,
// otherwise an unseen card. With none pending it completes a pair it
// already knows, otherwise it explores the lowest unseen card.
func (m *Memory) Next(snap engine.Snapshot) (int, bool) {
	m.Observe(snap)
	if snap.Status != engine.StatusPlaying || len(snap.Pending) >= 2 {
		return 0, false
	}

	if len(snap.Pending) == 1 {
		first := snap.Pending[0]
		if partner, ok := m.partnerOf(first, m.known[first]); ok {
			return partner, true
		}
		return m.explore(snap, first)
	}

	if a, _, ok := m.knownPair(snap); ok {
		return a, true
	}
	return m.explore(snap, -1)
}

func (m *Memory) partnerOf(index int, face engine.FaceKey) (int, bool) {
	if face == "" {
		return 0, false
	}
	for i, f := range m.known {
		if i != index && f == face {
			return i, true
		}
	}
	return 0, false
}

// knownPair finds two face-down cards remembered with the same face,
// lowest index first so play is deterministic.
func (m *Memory) knownPair(snap engine.Snapshot) (int, int, bool) {
	first := make(map[engine.FaceKey]int)
	for _, i := range m.sortedKnown() {
		if !faceDown(snap, i) {
			continue
		}
		face := m.known[i]
		if j, ok := first[face]; ok {
			return j, i, true
		}
		first[face] = i
	}
	return 0, 0, false
}

// explore returns the lowest face-down card whose face is unknown, or
// failing that any face-down card other than skip.
func (m *Memory) explore(snap engine.Snapshot, skip int) (int, bool) {
	fallback := -1
	for _, i := range engine.FaceDownIndices(snap) {
		if i == skip {
			continue
		}
		if _, seen := m.known[i]; !seen {
			return i, true
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback, fallback >= 0
}

func (m *Memory) sortedKnown() []int {
	idx := make([]int, 0, len(m.known))
	for i := range m.known {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func faceDown(snap engine.Snapshot, index int) bool {
	if index < 0 || index >= len(snap.Cards) {
		return false
	}
	card := snap.Cards[index]
	return !card.Flipped && !card.Matched
}
