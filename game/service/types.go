package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Snapshot       engine.Snapshot    `json:"snapshot"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CreateOptions selects the preset for a new session. A zero PairCount
// keeps the preset's pair count.
type CreateOptions struct {
	ConfigID  string `json:"config_id,omitempty"`
	PairCount int    `json:"pair_count,omitempty"`
}

// ResetOptions starts a new deal. With no fields set the session is
// redealt with its current configuration.
type ResetOptions struct {
	ConfigID  string `json:"config_id,omitempty"`
	PairCount int    `json:"pair_count,omitempty"`
}

// FlipOutcome classifies what a flip request did.
type FlipOutcome string

const (
	OutcomeIgnored  FlipOutcome = "ignored"
	OutcomeRevealed FlipOutcome = "revealed"
	OutcomeMatch    FlipOutcome = "match"
	OutcomeMismatch FlipOutcome = "mismatch"
)

// FlipResult contains the result of a flip operation
type FlipResult struct {
	Accepted bool            `json:"accepted"`
	Outcome  FlipOutcome     `json:"outcome"`
	Index    int             `json:"index"`
	FaceKey  string          `json:"face_key,omitempty"`
	Message  string          `json:"message"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Events   []GameEvent     `json:"events,omitempty"`
}

// Event types pushed to viewers and returned from flips.
const (
	EventFlip     = "flip"
	EventMatch    = "match"
	EventMismatch = "mismatch"
	EventHide     = "hide"
	EventVictory  = "victory"
	EventReset    = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Indices   []int     `json:"indices,omitempty"`
}

// FlipRecord is one accepted flip in a session's history. Face keys stay
// visible here after the card is hidden again.
type FlipRecord struct {
	Seq       int         `json:"seq"`
	Index     int         `json:"index"`
	FaceKey   string      `json:"face_key"`
	Outcome   FlipOutcome `json:"outcome"`
	Timestamp time.Time   `json:"timestamp"`
}

// HistoryOptions configures flip history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated flip history
type HistoryResponse struct {
	Flips       []FlipRecord `json:"flips"`
	TotalFlips  int          `json:"total_flips"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`      // Display name
	Description     string `json:"description"`
	PairCount       int    `json:"pair_count"`
	PoolSize        int    `json:"pool_size"`
	RevealWindowMs  int    `json:"reveal_window_ms"`
	AttemptCounting bool   `json:"attempt_counting"`
	CardSize        int    `json:"card_size,omitempty"`
}
