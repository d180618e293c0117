package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	Snapshot() Snapshot
	GetState() State
	IsWon() bool

	// Play
	Flip(index int) Snapshot
	TryFlip(index int) (Snapshot, bool)
	Reset() (Snapshot, error)

	// Configuration
	GetConfig() *GameConfig
	Reconfigure(config *GameConfig) (Snapshot, error)

	// Observers
	SubscribeWin(fn func(Snapshot))
	SubscribeChange(fn func(Snapshot))

	Close()
}

// GameEngine implements the Engine interface for a single session.
//
// Flip, Reset and Reconfigure are serialised by an internal mutex. The
// delayed hide of a mismatch runs on the clock's goroutine, takes the same
// mutex and only applies if its token still matches the session, so a
// hide issued for a replaced deck never touches the new one.
type GameEngine struct {
	mu     sync.Mutex
	state  State
	config *GameConfig
	clock  Clock
	rng    Shuffler
	timer  Timer
	closed bool

	winSubs    []func(Snapshot)
	changeSubs []func(Snapshot)
}

// Option customises a GameEngine.
type Option func(*GameEngine)

// WithRand sets the shuffle source, typically a seeded *rand.Rand.
func WithRand(rng Shuffler) Option {
	return func(e *GameEngine) { e.rng = rng }
}

// WithClock sets the clock used for the reveal window.
func WithClock(clock Clock) Option {
	return func(e *GameEngine) { e.clock = clock }
}

// NewEngine validates config, builds a shuffled deck and starts a session.
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = RealClock{}
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(newSeed()))
	}

	deck, err := BuildDeck(PoolFromStrings(config.Pool), config.PairCount, e.rng)
	if err != nil {
		return nil, err
	}
	e.state = NewState(deck, config)

	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: default config rejected: %v", err))
	}
	return e
}

// Snapshot returns the current read-only view
func (e *GameEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// GetState returns a copy of the full session state, face keys included.
func (e *GameEngine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	st.Deck = e.state.Deck.Clone()
	return st
}

// IsWon returns whether every pair has been matched
func (e *GameEngine) IsWon() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Status == StatusWon
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Flip turns the card at index face-up. Out of range indices, cards that
// are already face-up or matched, and flips while two cards are pending
// are ignored and return the unchanged snapshot.
func (e *GameEngine) Flip(index int) Snapshot {
	snap, _ := e.TryFlip(index)
	return snap
}

// TryFlip is Flip that also reports whether the flip was accepted.
func (e *GameEngine) TryFlip(index int) (Snapshot, bool) {
	e.mu.Lock()
	if e.closed {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, false
	}

	next, cmds := Transition(e.state, Flip{Index: index})
	accepted := next.Pending != e.state.Pending
	e.state = next
	won := e.runCommandsLocked(cmds)
	snap := e.snapshotLocked()
	subs := e.winSubs
	e.mu.Unlock()

	if won {
		notify(subs, snap)
	}
	return snap, accepted
}

// Reset starts a new deal with the current configuration
func (e *GameEngine) Reset() (Snapshot, error) {
	e.mu.Lock()
	config := e.config
	e.mu.Unlock()
	return e.Reconfigure(config)
}

// Reconfigure replaces the session with a new deal built from config.
// An invalid config fails with ErrInvalidConfiguration and leaves the
// current session untouched. Any outstanding hide is cancelled before the
// new deck is installed.
func (e *GameEngine) Reconfigure(config *GameConfig) (Snapshot, error) {
	if err := ValidateGameConfig(config); err != nil {
		return e.Snapshot(), err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	deck, err := BuildDeck(PoolFromStrings(config.Pool), config.PairCount, e.rng)
	if err != nil {
		return e.snapshotLocked(), err
	}

	next, cmds := Transition(e.state, Reset{Deck: deck, PairCount: config.PairCount})
	e.runCommandsLocked(cmds)
	next.AttemptCounting = config.AttemptCounting
	next.RevealWindow = revealWindow(config)
	e.state = next
	e.config = config
	e.closed = false

	return e.snapshotLocked(), nil
}

// SubscribeWin registers fn to be called once per deal when it is won.
func (e *GameEngine) SubscribeWin(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.winSubs = append(e.winSubs, fn)
}

// SubscribeChange registers fn to be called after a mismatched pair is
// hidden by the reveal window timer.
func (e *GameEngine) SubscribeChange(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changeSubs = append(e.changeSubs, fn)
}

// Close cancels any outstanding hide. Later flips are ignored.
func (e *GameEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.closed = true
}

// onHide is the reveal window callback for the mismatch identified by token.
func (e *GameEngine) onHide(token HideToken) {
	e.mu.Lock()
	if e.closed || token != e.state.Token() {
		e.mu.Unlock()
		return
	}

	next, _ := Transition(e.state, HideExpired{Token: token})
	e.state = next
	e.timer = nil
	snap := e.snapshotLocked()
	subs := e.changeSubs
	e.mu.Unlock()

	notify(subs, snap)
}

// runCommandsLocked performs the side effects requested by Transition and
// reports whether a win notification is due.
func (e *GameEngine) runCommandsLocked(cmds []Command) bool {
	won := false
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case ScheduleHide:
			token := c.Token
			e.timer = e.clock.AfterFunc(c.After, func() { e.onHide(token) })
		case CancelHide:
			if e.timer != nil {
				e.timer.Stop()
				e.timer = nil
			}
		case NotifyWin:
			won = true
		}
	}
	return won
}

func (e *GameEngine) snapshotLocked() Snapshot {
	snap := BuildSnapshot(e.state)
	if e.config != nil {
		snap.CardSize = e.config.CardSize
		snap.ConfigName = e.config.Name
	}
	return snap
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

// newSeed returns a seed from crypto/rand, falling back to a fixed value
// if the system source is unavailable.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
