package engine

// FaceKey identifies the asset a card shows when face-up.
type FaceKey string

// Status is the lifecycle phase of a session
type Status string

const (
	StatusSetup   Status = "setup"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"

	// Validation constants
	MinPairCount          = 1
	MinRevealWindowMs     = 1
	MaxRevealWindowMs     = 10000
	MinCardSize           = 100
	MaxCardSize           = 150
	CardSizeStep          = 5
	DefaultPairCount      = 8
	DefaultRevealWindowMs = 1000
	DefaultCardSize       = 125
	WebSocketBufferSize   = 256
)

// PairCountChoices are the pair counts offered by the setup picker.
var PairCountChoices = []int{4, 6, 8, 10, 12, 14, 16}

// Card is a single card of the deck. A matched card is always face-up.
type Card struct {
	ID      int     `json:"id"`
	FaceKey FaceKey `json:"face_key"`
	Flipped bool    `json:"flipped"`
	Matched bool    `json:"matched"`
}

// Deck is the ordered sequence of cards for one session.
type Deck []Card

// Clone returns an independent copy of the deck.
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	out := make(Deck, len(d))
	copy(out, d)
	return out
}

// PendingFlips holds the indices of face-up cards awaiting resolution.
// It never holds more than two entries.
type PendingFlips struct {
	idx [2]int
	n   int
}

// Len returns the number of pending flips (0, 1 or 2).
func (p PendingFlips) Len() int { return p.n }

// Full reports whether two flips are pending.
func (p PendingFlips) Full() bool { return p.n == 2 }

// At returns the i-th pending index.
func (p PendingFlips) At(i int) int {
	if i < 0 || i >= p.n {
		panic("engine: pending flip index out of range")
	}
	return p.idx[i]
}

// Indices returns the pending indices in flip order.
func (p PendingFlips) Indices() []int {
	out := make([]int, p.n)
	copy(out, p.idx[:p.n])
	return out
}

// push appends an index; callers must check Full first.
func (p PendingFlips) push(i int) PendingFlips {
	if p.n == 2 {
		panic("engine: more than two pending flips")
	}
	p.idx[p.n] = i
	p.n++
	return p
}

// GameConfig is the configuration record a session is built from.
type GameConfig struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	PairCount       int      `json:"pair_count"`
	AttemptCounting bool     `json:"attempt_counting"`
	RevealWindowMs  int      `json:"reveal_window_ms"`
	CardSize        int      `json:"card_size,omitempty"`
	Pool            []string `json:"pool"`
}

// CardView is the presentation view of a card. FaceKey is only present
// for cards that are face-up or matched.
type CardView struct {
	Index   int     `json:"index"`
	ID      int     `json:"id"`
	FaceKey FaceKey `json:"face_key,omitempty"`
	Flipped bool    `json:"flipped"`
	Matched bool    `json:"matched"`
}

// Snapshot is the read-only view of a session handed to callers
type Snapshot struct {
	Cards          []CardView `json:"cards"`
	AttemptCount   int        `json:"attempt_count"`
	MatchedCount   int        `json:"matched_count"`
	PairCount      int        `json:"pair_count"`
	Status         Status     `json:"status"`
	Pending        []int      `json:"pending"`
	HidePending    bool       `json:"hide_pending"`
	RevealWindowMs int        `json:"reveal_window_ms"`
	CardSize       int        `json:"card_size,omitempty"`
	ConfigName     string     `json:"config_name"`
}

// Won reports whether the snapshot is in the terminal Won state.
func (s Snapshot) Won() bool { return s.Status == StatusWon }
