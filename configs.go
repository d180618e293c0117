package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/strategy"
)

// errInvalidConfigs is returned by "configs validate" when any file fails.
var errInvalidConfigs = errors.New("some configurations have errors")

func configsCommand(settings *Settings) *cli.Command {
	dirArg := func(cmd *cli.Command) string {
		if cmd.Args().Len() > 0 {
			return cmd.Args().First()
		}
		return settings.ConfigDir
	}

	return &cli.Command{
		Name:  "configs",
		Usage: "Inspect game presets",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate every preset file in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(os.Stdout, dirArg(cmd))
				},
			},
			{
				Name:      "analyze",
				Usage:     "Simulate a perfect-memory player on every preset",
				ArgsUsage: "[dir]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "games", Value: 200, Usage: "Deals simulated per preset"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Seed of the first deal"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAnalyze(os.Stdout, dirArg(cmd), cmd.Int("games"), cmd.Int64("seed"))
				},
			},
		},
	}
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfigFile loads a preset, validates it and deals it once to make
// sure a well-formed deck comes out.
func validateConfigFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		var cfgErr *engine.ConfigError
		if errors.As(err, &cfgErr) {
			result.fail("%s: %s", cfgErr.Field, cfgErr.Message)
		} else {
			result.fail("%v", err)
		}
		return result
	}

	deck, err := engine.BuildDeck(engine.PoolFromStrings(config.Pool), config.PairCount, rand.New(rand.NewSource(1)))
	if err != nil {
		result.fail("Dealing failed: %v", err)
		return result
	}
	if !engine.IsWellFormed(deck) {
		result.fail("Dealt deck is not made of pairs")
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Pairs: %d of %d face keys (%d cards)", config.PairCount, len(config.Pool), len(deck))
	result.info("Reveal window: %dms", config.RevealWindowMs)
	if config.AttemptCounting {
		result.info("Attempts: counted")
	} else {
		result.info("Attempts: not counted")
	}
	if config.CardSize != 0 {
		result.info("Card size: %d", config.CardSize)
	}
	return result
}

func configFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}
	return files, nil
}

// runValidate prints a report for every preset in dir and fails if any
// preset is invalid.
func runValidate(out io.Writer, dir string) error {
	files, err := configFiles(dir)
	if err != nil {
		return err
	}

	allValid := true
	for _, file := range files {
		result := validateConfigFile(file)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(out, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(out, "❌ Some configurations have errors")
		return errInvalidConfigs
	}
	fmt.Fprintln(out, "✅ All configurations are valid!")
	return nil
}

// runAnalyze simulates games deals of every valid preset in dir and prints
// how many turns a player who never forgets a card needs.
func runAnalyze(out io.Writer, dir string, games int, seed int64) error {
	if games < 1 {
		return fmt.Errorf("games must be positive, got %d", games)
	}
	files, err := configFiles(dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", filepath.Base(file))

		cfg, err := engine.LoadGameConfig(file)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Skipped: %v\n", err)
			continue
		}

		stats, err := strategy.SimulateMany(cfg, games, seed)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Simulation failed: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "Name: %s\n", cfg.Name)
		fmt.Fprintf(out, "Cards: %d (%d pairs)\n", cfg.DeckSize(), cfg.PairCount)
		fmt.Fprintf(out, "Reveal window: %dms\n", cfg.RevealWindowMs)
		fmt.Fprintf(out, "Games: %d, won: %d\n", stats.Games, stats.Wins)
		fmt.Fprintf(out, "Turns: min %d, max %d, mean %.2f\n", stats.MinTurns, stats.MaxTurns, stats.MeanTurns)
		fmt.Fprintf(out, "Flips: mean %.2f\n", stats.MeanFlips)
		fmt.Fprintf(out, "Perfect deals: %d\n", stats.PerfectDeal)
		if stats.Wins != stats.Games {
			fmt.Fprintf(out, "⚠️  WARNING: %d games were not finished\n", stats.Games-stats.Wins)
		}
	}
	return nil
}
