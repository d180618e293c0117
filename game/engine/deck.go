package engine

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// BuildDeck takes the first pairCount keys of pool, duplicates them and
// shuffles the result with rng. Card ids are assigned before shuffling so
// they stay stable regardless of position.
func BuildDeck(pool []FaceKey, pairCount int, rng Shuffler) (Deck, error) {
	if pairCount < MinPairCount {
		return nil, configErrorf("pair_count", pairCount, "must be at least %d", MinPairCount)
	}
	if pairCount > len(pool) {
		return nil, configErrorf("pair_count", pairCount, "exceeds pool size %d", len(pool))
	}
	if rng == nil {
		return nil, configErrorf("rng", nil, "a random source is required")
	}

	selected := pool[:pairCount]
	seen := make(map[FaceKey]bool, pairCount)
	for i, key := range selected {
		if key == "" {
			return nil, configErrorf("pool", i, "entry is empty")
		}
		if seen[key] {
			return nil, configErrorf("pool", key, "duplicate face key")
		}
		seen[key] = true
	}

	deck := make(Deck, 0, 2*pairCount)
	for _, key := range selected {
		deck = append(deck, Card{FaceKey: key})
	}
	for _, key := range selected {
		deck = append(deck, Card{FaceKey: key})
	}
	for i := range deck {
		deck[i].ID = i
	}

	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	return deck, nil
}

// PoolFromStrings converts configured pool entries to face keys.
func PoolFromStrings(entries []string) []FaceKey {
	pool := make([]FaceKey, len(entries))
	for i, e := range entries {
		pool[i] = FaceKey(e)
	}
	return pool
}
