// Command autoplay plays memory game sessions over the REST API with a
// player that never forgets a card it has seen. It can resume a session
// that is already in progress by replaying its flip history.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/strategy"
)

var logger = log15.New("module", "autoplay")

// maxIgnored is how many ignored flips in a row end a deal.
const maxIgnored = 10

// Bot plays one session through a Client.
type Bot struct {
	client *Client
	memory *strategy.Memory
	delay  time.Duration
}

func NewBot(client *Client, delay time.Duration) *Bot {
	return &Bot{client: client, memory: strategy.NewMemory(), delay: delay}
}

// Recall rebuilds the bot's memory from the current deal's flip history.
func (b *Bot) Recall(ctx context.Context, snap engine.Snapshot) error {
	flips, err := b.client.History(ctx)
	if err != nil {
		return err
	}
	b.memory.Forget()
	for _, f := range flips {
		b.memory.Record(f.Index, engine.FaceKey(f.FaceKey))
	}
	b.memory.Observe(snap)
	logger.Info("memory restored", "flips", len(flips), "known", b.memory.Known())
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play flips cards until the deal is won and returns the final snapshot
// and the number of accepted flips.
func (b *Bot) Play(ctx context.Context, snap engine.Snapshot) (engine.Snapshot, int, error) {
	flips, ignored := 0, 0
	limit := 4 * len(snap.Cards)

	for !snap.Won() {
		if flips > limit {
			return snap, flips, fmt.Errorf("no win after %d flips", flips)
		}

		index, ok := b.memory.Next(snap)
		if !ok {
			if snap.Status != engine.StatusPlaying || len(snap.Pending) < 2 {
				return snap, flips, fmt.Errorf("no move available in state %s", snap.Status)
			}
			// A mismatched pair is showing
			if err := sleep(ctx, time.Duration(snap.RevealWindowMs)*time.Millisecond); err != nil {
				return snap, flips, err
			}
			next, err := b.client.Snapshot(ctx)
			if err != nil {
				return snap, flips, err
			}
			snap = next
			continue
		}

		res, err := b.client.Flip(ctx, index)
		if err != nil {
			return snap, flips, err
		}
		snap = res.Snapshot
		if !res.Accepted {
			ignored++
			logger.Debug("flip ignored", "index", index, "reason", res.Message)
			if ignored >= maxIgnored {
				return snap, flips, fmt.Errorf("%d flips in a row ignored, last: %s", ignored, res.Message)
			}
			continue
		}
		ignored = 0
		flips++
		logger.Debug("flip", "index", index, "face", res.FaceKey, "outcome", res.Outcome,
			"matched", snap.MatchedCount, "pairs", snap.PairCount)

		if err := sleep(ctx, b.delay); err != nil {
			return snap, flips, err
		}
	}
	return snap, flips, nil
}

func readSessionFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(data))
}

// openSession resumes sessionID when given, otherwise creates a session.
func openSession(ctx context.Context, client *Client, sessionID string, opts service.CreateOptions) (*service.SessionInfo, bool, error) {
	if sessionID != "" {
		info, err := client.Resume(ctx, sessionID)
		if err == nil {
			return info, true, nil
		}
		logger.Warn("failed to resume session, creating a new one", "session", sessionID, "err", err)
	}
	info, err := client.CreateSession(ctx, opts)
	return info, false, err
}

func run(ctx context.Context, cmd *cli.Command) error {
	client := NewClient(cmd.String("url"))
	logger.Info("connecting to game server", "url", cmd.String("url"))

	sessionFile := cmd.String("session-file")
	sessionID := cmd.String("session")
	if sessionID == "" {
		sessionID = readSessionFile(sessionFile)
	}

	info, resumed, err := openSession(ctx, client, sessionID, service.CreateOptions{
		ConfigID:  cmd.String("config"),
		PairCount: cmd.Int("pairs"),
	})
	if err != nil {
		return err
	}
	logger.Info("playing session", "session", info.ID, "config", info.ConfigID, "resumed", resumed,
		"pairs", info.Snapshot.PairCount)

	if sessionFile != "" {
		if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
			logger.Warn("failed to save session ID", "file", sessionFile, "err", err)
		}
	}

	bot := NewBot(client, cmd.Duration("delay"))
	snap := info.Snapshot
	if resumed {
		if err := bot.Recall(ctx, snap); err != nil {
			return err
		}
	}

	games := cmd.Int("games")
	for game := 1; game <= games; game++ {
		if game > 1 || snap.Won() {
			if snap, err = client.Reset(ctx); err != nil {
				return err
			}
			bot.memory.Forget()
		}

		final, flips, err := bot.Play(ctx, snap)
		if err != nil {
			return fmt.Errorf("game %d: %w", game, err)
		}
		snap = final
		logger.Info("🎉 game won", "game", game, "flips", flips, "turns", flips/2,
			"attempts", snap.AttemptCount, "pairs", snap.PairCount)
	}
	logger.Info("done", "session", client.SessionID(), "games", games)
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play memory game sessions with a perfect-memory player",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("MEMORYGAME_API_URL")},
			&cli.StringFlag{Name: "config", Usage: "Preset for a new session"},
			&cli.IntFlag{Name: "pairs", Usage: "Pair count for a new session (0 keeps the preset's)"},
			&cli.StringFlag{Name: "session", Usage: "Resume an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Usage: "File to resume the session from and save it to"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Deals to play"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between flips"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log every flip"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			lvl := log15.LvlInfo
			if cmd.Bool("verbose") {
				lvl = log15.LvlDebug
			}
			log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.TerminalFormat())))
			if cmd.Int("games") < 1 {
				return ctx, errors.New("games must be at least 1")
			}
			return ctx, nil
		},
		Action: run,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.Crit("autoplay failed", "err", err)
		os.Exit(1)
	}
}
