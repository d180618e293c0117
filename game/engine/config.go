package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPool is the built-in asset pool, one key per campus photo.
var DefaultPool = []string{
	"biblioteca-central",
	"eba",
	"eci",
	"educacao-fisica",
	"engenharia",
	"face",
	"fafich",
	"fale",
	"farmacia",
	"icb",
	"icex",
	"medicina",
	"musica",
	"odontologia",
	"praca-de-servico",
	"veterinaria",
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return configErrorf("config", nil, "is required")
	}

	// Validate required fields
	if config.Name == "" {
		return configErrorf("name", nil, "is required")
	}
	if config.Description == "" {
		return configErrorf("description", nil, "is required")
	}

	// Validate pool
	if len(config.Pool) == 0 {
		return configErrorf("pool", nil, "must contain at least one face key")
	}
	seen := make(map[string]int, len(config.Pool))
	for i, key := range config.Pool {
		if strings.TrimSpace(key) == "" {
			return configErrorf("pool", i, "entry %d is empty", i+1)
		}
		if first, ok := seen[key]; ok {
			return configErrorf("pool", key, "duplicate face key (entries %d and %d)", first+1, i+1)
		}
		seen[key] = i
	}

	// Validate pair count
	if config.PairCount < MinPairCount || config.PairCount > len(config.Pool) {
		return configErrorf("pair_count", config.PairCount, "must be between %d and pool size %d", MinPairCount, len(config.Pool))
	}

	// Validate reveal window
	if config.RevealWindowMs < MinRevealWindowMs || config.RevealWindowMs > MaxRevealWindowMs {
		return configErrorf("reveal_window_ms", config.RevealWindowMs, "must be between %d and %d", MinRevealWindowMs, MaxRevealWindowMs)
	}

	// Card size is presentation metadata; zero means "not set"
	if config.CardSize != 0 {
		if config.CardSize < MinCardSize || config.CardSize > MaxCardSize {
			return configErrorf("card_size", config.CardSize, "must be between %d and %d", MinCardSize, MaxCardSize)
		}
		if (config.CardSize-MinCardSize)%CardSizeStep != 0 {
			return configErrorf("card_size", config.CardSize, "must be a multiple of %d", CardSizeStep)
		}
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(configPath), err)
	}
	return config, nil
}

// ParseGameConfig decodes and validates a JSON configuration.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultGameConfig returns the built-in configuration: eight pairs out of
// the default pool, a one second reveal window and attempt counting on.
func DefaultGameConfig() *GameConfig {
	pool := make([]string, len(DefaultPool))
	copy(pool, DefaultPool)
	return &GameConfig{
		Name:            "classic",
		Description:     "Eight pairs of campus photos",
		PairCount:       DefaultPairCount,
		AttemptCounting: true,
		RevealWindowMs:  DefaultRevealWindowMs,
		CardSize:        DefaultCardSize,
		Pool:            pool,
	}
}

// WithPairCount returns a copy of config dealing pairCount pairs.
func (c *GameConfig) WithPairCount(pairCount int) *GameConfig {
	out := *c
	out.Pool = append([]string(nil), c.Pool...)
	out.PairCount = pairCount
	return &out
}

// DeckSize returns the number of cards a deal of this config contains.
func (c *GameConfig) DeckSize() int {
	return 2 * c.PairCount
}
