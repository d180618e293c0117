package strategy

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Result summarises one simulated game.
type Result struct {
	Flips    int  `json:"flips"`
	Turns    int  `json:"turns"`
	Attempts int  `json:"attempts"`
	Won      bool `json:"won"`
}

// Simulate plays one deal of cfg with a perfect-memory player. The reveal
// window runs on a manual clock so the game finishes instantly.
func Simulate(cfg *engine.GameConfig, seed int64) (Result, error) {
	clock := engine.NewManualClock()
	eng, err := engine.NewEngine(cfg,
		engine.WithClock(clock),
		engine.WithRand(rand.New(rand.NewSource(seed))),
	)
	if err != nil {
		return Result{}, err
	}
	defer eng.Close()

	window := time.Duration(cfg.RevealWindowMs) * time.Millisecond
	player := NewMemory()
	snap := eng.Snapshot()

	// Every card is flipped at most twice by a perfect-memory player.
	limit := 4 * cfg.DeckSize()
	var res Result
	for step := 0; step < limit && !snap.Won(); step++ {
		index, ok := player.Next(snap)
		if !ok {
			if !snap.HidePending {
				return res, fmt.Errorf("no move available in state %s", snap.Status)
			}
			clock.Advance(window)
			snap = eng.Snapshot()
			continue
		}

		var accepted bool
		snap, accepted = eng.TryFlip(index)
		if !accepted {
			return res, fmt.Errorf("flip %d was ignored", index)
		}
		res.Flips++
		player.Observe(snap)
	}

	res.Turns = res.Flips / 2
	res.Attempts = snap.AttemptCount
	res.Won = snap.Won()
	if res.Won && engine.CountMatchedCards(snap) != cfg.DeckSize() {
		return res, fmt.Errorf("won with %d of %d cards matched", engine.CountMatchedCards(snap), cfg.DeckSize())
	}
	return res, nil
}

// Stats aggregates simulated games of one configuration.
type Stats struct {
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	MinTurns    int     `json:"min_turns"`
	MaxTurns    int     `json:"max_turns"`
	MeanTurns   float64 `json:"mean_turns"`
	MeanFlips   float64 `json:"mean_flips"`
	PerfectDeal int     `json:"perfect_deals"` // games won without a mismatch
}

// SimulateMany plays games deals seeded seed, seed+1, ...
func SimulateMany(cfg *engine.GameConfig, games int, seed int64) (Stats, error) {
	var st Stats
	totalTurns, totalFlips := 0, 0
	for i := 0; i < games; i++ {
		res, err := Simulate(cfg, seed+int64(i))
		if err != nil {
			return st, fmt.Errorf("game %d: %w", i, err)
		}
		st.Games++
		if res.Won {
			st.Wins++
		}
		if st.Games == 1 || res.Turns < st.MinTurns {
			st.MinTurns = res.Turns
		}
		if res.Turns > st.MaxTurns {
			st.MaxTurns = res.Turns
		}
		if res.Turns == cfg.PairCount {
			st.PerfectDeal++
		}
		totalTurns += res.Turns
		totalFlips += res.Flips
	}
	if st.Games > 0 {
		st.MeanTurns = float64(totalTurns) / float64(st.Games)
		st.MeanFlips = float64(totalFlips) / float64(st.Games)
	}
	return st, nil
}
