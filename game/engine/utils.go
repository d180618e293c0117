package engine

// FaceDownIndices returns the indices of cards that can currently be flipped.
func FaceDownIndices(snap Snapshot) []int {
	var out []int
	for _, c := range snap.Cards {
		if !c.Flipped && !c.Matched {
			out = append(out, c.Index)
		}
	}
	return out
}

// CountMatchedCards counts the matched cards in the snapshot
func CountMatchedCards(snap Snapshot) int {
	count := 0
	for _, c := range snap.Cards {
		if c.Matched {
			count++
		}
	}
	return count
}

// FaceCounts returns how many times each face key appears in deck
func FaceCounts(deck Deck) map[FaceKey]int {
	counts := make(map[FaceKey]int, len(deck)/2)
	for _, c := range deck {
		counts[c.FaceKey]++
	}
	return counts
}

// IsWellFormed reports whether every face key in deck occurs exactly twice
// and every card id is unique.
func IsWellFormed(deck Deck) bool {
	if len(deck)%2 != 0 {
		return false
	}
	ids := make(map[int]bool, len(deck))
	for _, c := range deck {
		if ids[c.ID] {
			return false
		}
		ids[c.ID] = true
		if c.Matched && !c.Flipped {
			return false
		}
	}
	for _, n := range FaceCounts(deck) {
		if n != 2 {
			return false
		}
	}
	return true
}
