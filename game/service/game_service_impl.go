package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

var logger = log15.New("module", "service")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions   SessionManager
	configs    ConfigManager
	engineOpts []engine.Option
	mu         sync.RWMutex

	// nmu guards notifier separately so engine callbacks, which may run
	// while mu is held, can still publish.
	nmu      sync.RWMutex
	notifier Notifier
}

// Option customises the game service.
type Option func(*gameServiceImpl)

// WithEngineOptions passes opts to every engine the service creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *gameServiceImpl) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithNotifier sets the initial notifier.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier replaces the notifier that receives session updates.
func (s *gameServiceImpl) SetNotifier(n Notifier) {
	s.nmu.Lock()
	defer s.nmu.Unlock()
	s.notifier = n
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// resolveConfig loads the preset configID, or the default preset when it is
// empty, and returns it with the id sessions should report.
func (s *gameServiceImpl) resolveConfig(configID string) (*engine.GameConfig, string, error) {
	if configID == "" {
		config := s.configs.GetDefault()
		return config, s.getConfigID(config.Name), nil
	}

	config, err := s.configs.LoadConfig(configID)
	if err == nil {
		return config, strings.TrimSuffix(configID, ".json"), nil
	}

	if errors.Is(err, ErrConfigNotFound) {
		availableConfigs, listErr := s.configs.ListConfigs()
		if listErr == nil && len(availableConfigs) > 0 {
			var configIDs []string
			for _, cfg := range availableConfigs {
				configIDs = append(configIDs, cfg.ConfigID)
			}
			return nil, "", fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configID, configIDs)
		}
		return nil, "", fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configID)
	}
	return nil, "", fmt.Errorf("failed to load config %s: %w", configID, err)
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	config, configID, err := s.resolveConfig(opts.ConfigID)
	if err != nil {
		return nil, err
	}
	if opts.PairCount != 0 {
		config = config.WithPairCount(opts.PairCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config, s.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = configID
	s.watch(sess)

	logger.Info("session created", "session", sess.ID, "config", configID, "pairs", config.PairCount)
	return s.info(sess, sess.CreatedAt), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, accessed, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess, accessed), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		accessed, err := s.sessions.LastAccessed(sess.ID)
		if err != nil {
			// Expired since List
			continue
		}
		result = append(result, s.info(sess, accessed))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	logger.Info("session deleted", "session", sessionID)
	return nil
}

// Flip turns one card of a session face-up
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, _, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	snap, accepted := sess.Engine.TryFlip(index)
	result := &FlipResult{
		Accepted: accepted,
		Outcome:  OutcomeIgnored,
		Index:    index,
		Snapshot: snap,
	}
	if !accepted {
		result.Message = ignoredReason(snap, index)
		logger.Debug("flip ignored", "session", sessionID, "index", index, "reason", result.Message)
		return result, nil
	}

	card := snap.Cards[index]
	result.FaceKey = string(card.FaceKey)

	switch {
	case card.Matched:
		result.Outcome = OutcomeMatch
		pair := []int{index}
		if n := len(sess.History); n > 0 && sess.History[n-1].Outcome == OutcomeRevealed {
			pair = []int{sess.History[n-1].Index, index}
		}
		result.Message = fmt.Sprintf("Match! %s (%d/%d pairs)", card.FaceKey, snap.MatchedCount, snap.PairCount)
		result.Events = append(result.Events, newEvent(EventMatch, result.Message, pair))
	case len(snap.Pending) == 2:
		result.Outcome = OutcomeMismatch
		a, b := snap.Pending[0], snap.Pending[1]
		result.Message = fmt.Sprintf("No match: %s and %s. Cards turn back in %dms",
			snap.Cards[a].FaceKey, snap.Cards[b].FaceKey, snap.RevealWindowMs)
		result.Events = append(result.Events, newEvent(EventMismatch, result.Message, []int{a, b}))
	default:
		result.Outcome = OutcomeRevealed
		result.Message = fmt.Sprintf("Card %d shows %s", index, card.FaceKey)
		result.Events = append(result.Events, newEvent(EventFlip, result.Message, []int{index}))
	}

	sess.History = append(sess.History, FlipRecord{
		Seq:       len(sess.History) + 1,
		Index:     index,
		FaceKey:   string(card.FaceKey),
		Outcome:   result.Outcome,
		Timestamp: time.Now(),
	})

	// Victory is published by the engine's win subscription.
	s.broadcast(sessionID, &snap, result.Events...)
	if snap.Won() {
		result.Events = append(result.Events, victoryEvent(snap))
	}

	logger.Debug("flip", "session", sessionID, "index", index, "outcome", result.Outcome,
		"matched", snap.MatchedCount, "attempts", snap.AttemptCount)
	return result, nil
}

// Reset starts a new deal, optionally switching preset or pair count
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string, opts ResetOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, accessed, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	config := sess.Engine.GetConfig()
	configID := sess.ConfigID
	if opts.ConfigID != "" {
		if config, configID, err = s.resolveConfig(opts.ConfigID); err != nil {
			return nil, err
		}
	}
	if opts.PairCount != 0 {
		config = config.WithPairCount(opts.PairCount)
	}

	snap, err := sess.Engine.Reconfigure(config)
	if err != nil {
		return nil, fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	sess.ConfigID = configID
	sess.History = nil

	msg := fmt.Sprintf("New game with %d pairs", snap.PairCount)
	s.broadcast(sessionID, &snap, newEvent(EventReset, msg, nil))

	logger.Info("session reset", "session", sessionID, "config", configID, "pairs", snap.PairCount)
	return s.info(sess, accessed), nil
}

// GetSnapshot retrieves the current board view
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, _, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// GetFlipHistory returns paginated flip history for the current deal
func (s *gameServiceImpl) GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, _, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	flips := []FlipRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				flips = append(flips, history[i])
			}
		} else {
			flips = append(flips, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Flips:       flips,
		TotalFlips:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReloadConfig drops cached presets so the next load reads them from disk
func (s *gameServiceImpl) ReloadConfig(ctx context.Context, configName string) error {
	if configName == "" {
		return s.configs.RefreshCache()
	}
	return s.configs.ReloadConfig(configName)
}

// get looks up a session, marks it accessed and returns the access time.
func (s *gameServiceImpl) get(sessionID string) (*Session, time.Time, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	accessed, err := s.sessions.UpdateLastAccessed(sessionID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return sess, accessed, nil
}

func (s *gameServiceImpl) info(sess *Session, lastAccessed time.Time) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: lastAccessed,
		Snapshot:       sess.Engine.Snapshot(),
		GameConfig:     sess.Engine.GetConfig(),
	}
}

// watch forwards the engine's asynchronous hides and wins to the notifier.
func (s *gameServiceImpl) watch(sess *Session) {
	id := sess.ID
	sess.Engine.SubscribeChange(func(snap engine.Snapshot) {
		s.broadcast(id, &snap, newEvent(EventHide, "Cards turned face-down", nil))
	})
	sess.Engine.SubscribeWin(func(snap engine.Snapshot) {
		logger.Info("session won", "session", id, "pairs", snap.PairCount, "attempts", snap.AttemptCount)
		s.broadcast(id, nil, victoryEvent(snap))
	})
}

func (s *gameServiceImpl) broadcast(sessionID string, snap *engine.Snapshot, events ...GameEvent) {
	s.nmu.RLock()
	n := s.notifier
	s.nmu.RUnlock()
	if n == nil {
		return
	}

	if snap != nil {
		n.BroadcastToSession(sessionID, *snap)
	}
	for _, ev := range events {
		n.BroadcastEvent(sessionID, ev)
	}
}

func newEvent(typ, message string, indices []int) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Timestamp: time.Now(),
		Indices:   indices,
	}
}

func victoryEvent(snap engine.Snapshot) GameEvent {
	msg := fmt.Sprintf("Victory! All %d pairs matched", snap.PairCount)
	if snap.AttemptCount > 0 {
		msg = fmt.Sprintf("Victory! All %d pairs matched in %d attempts", snap.PairCount, snap.AttemptCount)
	}
	return newEvent(EventVictory, msg, nil)
}

// ignoredReason explains why a flip was not accepted.
func ignoredReason(snap engine.Snapshot, index int) string {
	switch {
	case index < 0 || index >= len(snap.Cards):
		return fmt.Sprintf("index %d out of range (0-%d)", index, len(snap.Cards)-1)
	case snap.Won():
		return "game already won; reset to play again"
	case snap.Cards[index].Matched:
		return fmt.Sprintf("card %d is already matched", index)
	case snap.Cards[index].Flipped:
		return fmt.Sprintf("card %d is already face-up", index)
	case len(snap.Pending) == 2:
		return "two cards are face-up; wait for them to turn back"
	default:
		return "flip ignored"
	}
}
