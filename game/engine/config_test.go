package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:            "Test Config",
		Description:     "A valid test configuration",
		PairCount:       4,
		AttemptCounting: true,
		RevealWindowMs:  1000,
		CardSize:        125,
		Pool:            []string{"a", "b", "c", "d", "e"},
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*GameConfig)
		wantErr string
	}{
		{"valid config", func(c *GameConfig) {}, ""},
		{"pair count equals pool size", func(c *GameConfig) { c.PairCount = 5 }, ""},
		{"card size unset", func(c *GameConfig) { c.CardSize = 0 }, ""},
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description"},
		{"empty pool", func(c *GameConfig) { c.Pool = nil }, "pool"},
		{"blank pool entry", func(c *GameConfig) { c.Pool[2] = "  " }, "entry 3 is empty"},
		{"duplicate pool entry", func(c *GameConfig) { c.Pool[4] = "a" }, "duplicate face key"},
		{"zero pairs", func(c *GameConfig) { c.PairCount = 0 }, "pair_count"},
		{"too many pairs", func(c *GameConfig) { c.PairCount = 6 }, "pair_count"},
		{"zero reveal window", func(c *GameConfig) { c.RevealWindowMs = 0 }, "reveal_window_ms"},
		{"reveal window too long", func(c *GameConfig) { c.RevealWindowMs = MaxRevealWindowMs + 1 }, "reveal_window_ms"},
		{"card size too small", func(c *GameConfig) { c.CardSize = 95 }, "card_size"},
		{"card size too large", func(c *GameConfig) { c.CardSize = 155 }, "card_size"},
		{"card size off step", func(c *GameConfig) { c.CardSize = 123 }, "multiple of 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.modify(config)
			err := ValidateGameConfig(config)

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Expected error to wrap ErrInvalidConfiguration, got %v", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected *ConfigError, got %T", err)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		if err := ValidateGameConfig(nil); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
		}
	})
}

func TestDefaultGameConfig(t *testing.T) {
	config := DefaultGameConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.PairCount != 8 || config.RevealWindowMs != 1000 || !config.AttemptCounting {
		t.Errorf("Unexpected defaults: %+v", config)
	}
	if len(config.Pool) != 16 {
		t.Errorf("Expected 16 pool entries, got %d", len(config.Pool))
	}

	config.Pool[0] = "changed"
	if DefaultPool[0] == "changed" {
		t.Error("DefaultGameConfig should copy the default pool")
	}
}

func TestPairCountChoicesFitDefaultPool(t *testing.T) {
	for _, n := range PairCountChoices {
		config := DefaultGameConfig().WithPairCount(n)
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Pair count choice %d rejected: %v", n, err)
		}
		if config.DeckSize() != 2*n {
			t.Errorf("Expected deck size %d, got %d", 2*n, config.DeckSize())
		}
	}
}

func TestWithPairCount_Copies(t *testing.T) {
	base := createValidConfig()
	derived := base.WithPairCount(2)
	derived.Pool[0] = "z"

	if base.PairCount != 4 {
		t.Errorf("Base pair count changed to %d", base.PairCount)
	}
	if base.Pool[0] != "a" {
		t.Error("Derived config shares its pool with the base")
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "valid.json")
		data := `{
			"name": "Valid",
			"description": "Loaded from disk",
			"pair_count": 2,
			"attempt_counting": true,
			"reveal_window_ms": 800,
			"pool": ["x", "y", "z"]
		}`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := LoadGameConfig(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if config.Name != "Valid" || config.PairCount != 2 || config.RevealWindowMs != 800 {
			t.Errorf("Unexpected config: %+v", config)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		data := `{"name": "Bad", "description": "d", "pair_count": 9, "reveal_window_ms": 1000, "pool": ["x"]}`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadGameConfig(path)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadGameConfig(path); err == nil {
			t.Error("Expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadGameConfig(filepath.Join(dir, "nope.json")); !os.IsNotExist(err) {
			t.Errorf("Expected not-exist error, got %v", err)
		}
	})

	t.Run("CONFIG_DIR override", func(t *testing.T) {
		data := `{"name": "Env", "description": "d", "pair_count": 1, "reveal_window_ms": 500, "pool": ["x"]}`
		if err := os.WriteFile(filepath.Join(dir, "env.json"), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONFIG_DIR", dir)

		config, err := LoadGameConfig("configs/env.json")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if config.Name != "Env" {
			t.Errorf("Expected Env config, got %q", config.Name)
		}
	})
}
