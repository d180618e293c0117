package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error)
	Reset(ctx context.Context, sessionID string, opts ResetOptions) (*SessionInfo, error)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	// ReloadConfig rereads one preset from disk, or every preset when
	// configName is empty. Running sessions keep the deal they have.
	ReloadConfig(ctx context.Context, configName string) error

	// Push updates
	SetNotifier(n Notifier)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig, opts ...engine.Option) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) (time.Time, error)
	LastAccessed(id string) (time.Time, error)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
	ReloadConfig(name string) error
	RefreshCache() error
}

// Notifier receives session updates for connected viewers.
// Implementations must not call back into the GameService.
type Notifier interface {
	BroadcastToSession(sessionID string, snapshot engine.Snapshot)
	BroadcastEvent(sessionID string, event GameEvent)
}

// Session represents an active game session
type Session struct {
	ID        string
	ConfigID  string
	Engine    *engine.GameEngine
	CreatedAt time.Time

	// LastAccessedAt is guarded by the SessionManager.
	LastAccessedAt time.Time

	// History is guarded by the GameService.
	History []FlipRecord
}
