package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"golang.org/x/term"
)

const playHelp = `Commands:
  <n>        flip card n
  r          new deal with the same settings
  n <pairs>  new deal with a different number of pairs
  b          show the board
  h          this help
  q          quit
`

func playCommand(settings *Settings) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play the memory game in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Preset to play (defaults to the server default)"},
			&cli.IntFlag{Name: "pairs", Aliases: []string{"p"}, Usage: "Override the preset's number of pairs"},
			&cli.Int64Flag{Name: "seed", Usage: "Shuffle seed, for a repeatable deal"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolvePlayConfig(settings.ConfigDir, cmd.String("config"))
			if err != nil {
				return err
			}
			if cmd.IsSet("pairs") {
				cfg = cfg.WithPairCount(cmd.Int("pairs"))
			}

			var opts []engine.Option
			if cmd.IsSet("seed") {
				opts = append(opts, engine.WithRand(rand.New(rand.NewSource(cmd.Int64("seed")))))
			}
			return runPlay(ctx, os.Stdin, os.Stdout, cfg, terminalWidth(), opts...)
		},
	}
}

// resolvePlayConfig loads preset id from dir. Without a preset directory the
// built-in configuration is used.
func resolvePlayConfig(dir, id string) (*engine.GameConfig, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		if id != "" {
			return nil, err
		}
		logger.Debug("no preset directory, using built-in configuration", "dir", dir, "err", err)
		return engine.DefaultGameConfig(), nil
	}
	if id == "" {
		return manager.GetDefault(), nil
	}
	cfg, err := manager.LoadConfig(id)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", id, err)
	}
	return cfg, nil
}

// terminalWidth is the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// player drives one engine from text commands.
type player struct {
	eng   *engine.GameEngine
	cfg   *engine.GameConfig
	width int

	mu   sync.Mutex // serialises writes to out
	out  io.Writer
	wins int
}

func newPlayer(cfg *engine.GameConfig, out io.Writer, width int, opts ...engine.Option) (*player, error) {
	eng, err := engine.NewEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}

	p := &player{eng: eng, cfg: cfg, out: out, width: width}
	eng.SubscribeChange(func(snap engine.Snapshot) {
		p.printf("Cards hidden.\n")
		p.render(snap)
	})
	eng.SubscribeWin(func(engine.Snapshot) {
		p.mu.Lock()
		p.wins++
		p.mu.Unlock()
	})
	return p, nil
}

func (p *player) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// columns fits the board to the terminal width when one is known.
func (p *player) columns(cards []engine.CardView) int {
	cols := engine.BoardColumns(len(cards))
	if p.width > 0 {
		if fit := p.width / engine.CellWidth(cards); fit >= 1 && fit < cols {
			cols = fit
		}
	}
	return cols
}

func (p *player) render(snap engine.Snapshot) {
	var b strings.Builder
	b.WriteString(engine.FormatBoardColumns(snap.Cards, p.columns(snap.Cards)))
	fmt.Fprintf(&b, "Matched: %d/%d pairs", snap.MatchedCount, snap.PairCount)
	if !snap.Won() {
		fmt.Fprintf(&b, "  Remaining: %d", snap.RemainingPairs())
	}
	if p.cfg.AttemptCounting {
		fmt.Fprintf(&b, "  Attempts: %d", snap.AttemptCount)
	}
	b.WriteString("\n")
	if snap.HidePending {
		fmt.Fprintf(&b, "No match. Cards hide in %dms.\n", snap.RevealWindowMs)
	}
	if snap.Won() {
		p.mu.Lock()
		wins := p.wins
		p.mu.Unlock()
		fmt.Fprintf(&b, "🎉 All %d pairs matched! Games won: %d. Press r to play again.\n", snap.PairCount, wins)
	}
	p.printf("%s", b.String())
}

// handle runs one input line and reports whether the player quit.
func (p *player) handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		p.printf("%s", playHelp)
	case "b", "board":
		p.render(p.eng.Snapshot())
	case "r", "reset":
		snap, err := p.eng.Reset()
		if err != nil {
			p.printf("Reset failed: %v\n", err)
			return false
		}
		p.printf("New deal.\n")
		p.render(snap)
	case "n", "new":
		if len(fields) != 2 {
			p.printf("Usage: n <pairs>\n")
			return false
		}
		pairs, err := strconv.Atoi(fields[1])
		if err != nil {
			p.printf("Not a number: %s\n", fields[1])
			return false
		}
		cfg := p.cfg.WithPairCount(pairs)
		snap, err := p.eng.Reconfigure(cfg)
		if err != nil {
			p.printf("Cannot deal %d pairs: %v\n", pairs, err)
			return false
		}
		p.cfg = cfg
		p.printf("New deal with %d pairs.\n", pairs)
		p.render(snap)
	default:
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			p.printf("Unknown command %q, h for help\n", fields[0])
			return false
		}
		snap, accepted := p.eng.TryFlip(index)
		if !accepted {
			p.printf("Card %d cannot be flipped now.\n", index)
			return false
		}
		p.render(snap)
	}
	return false
}

// runPlay plays the game with commands read from in until quit, end of
// input or ctx is cancelled.
func runPlay(ctx context.Context, in io.Reader, out io.Writer, cfg *engine.GameConfig, width int, opts ...engine.Option) error {
	p, err := newPlayer(cfg, out, width, opts...)
	if err != nil {
		return err
	}
	defer p.eng.Close()

	p.printf("%s: %s\n%s", cfg.Name, cfg.Description, playHelp)
	p.render(p.eng.Snapshot())

	lines := make(chan string)
	var scanErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return scanErr
			}
			if p.handle(line) {
				p.printf("Bye.\n")
				return nil
			}
		}
	}
}
