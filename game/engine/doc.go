// Package engine provides the core game logic for the Memory Match Game.
//
// The engine package implements the game mechanics including:
//   - Deck construction from an asset pool and a pair count
//   - The flip gate: at most two face-up, unresolved cards
//   - Turn resolution with a timed reveal window for mismatches
//   - Attempt and match bookkeeping, and win detection
//   - Configuration validation
//
// Core Types:
//
// Transition is a pure function from (State, Action) to (State, []Command);
// it holds every rule of the game and performs no side effects. GameEngine
// owns one session, runs the commands Transition asks for (scheduling or
// cancelling the hide timer, notifying win subscribers) and hands out
// read-only Snapshots.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.SubscribeWin(func(s engine.Snapshot) {
//		fmt.Printf("won in %d attempts\n", s.AttemptCount)
//	})
//
//	snap := gameEngine.Flip(0)
//	snap = gameEngine.Flip(5)
//
// Game Rules:
//
// Cards are dealt face-down. Flipping two cards with the same face key
// matches them permanently. Flipping two different cards counts an attempt
// and leaves both visible for the reveal window, after which they turn
// face-down again. No third card can be flipped while two are pending.
// The game is won when every pair is matched.
package engine
