package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
)

const tinyPreset = `{
  "name": "Tiny",
  "description": "Three pairs with a short reveal window",
  "pair_count": 3,
  "attempt_counting": true,
  "reveal_window_ms": 5,
  "pool": ["a", "b", "c", "d"]
}`

// setupGameServer serves the real API with a single "tiny" preset.
func setupGameServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(tinyPreset), 0644); err != nil {
		t.Fatal(err)
	}

	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager()
	t.Cleanup(sessions.CloseAll)

	server := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil))
	t.Cleanup(server.Close)
	return server
}

func TestBotPlaysToVictory(t *testing.T) {
	server := setupGameServer(t)
	client := NewClient(server.URL + "/")
	ctx := context.Background()

	info, err := client.CreateSession(ctx, service.CreateOptions{ConfigID: "tiny"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	snap, flips, err := NewBot(client, 0).Play(ctx, info.Snapshot)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if !snap.Won() {
		t.Fatalf("Expected a won deal, got status %s", snap.Status)
	}
	if flips < 6 || flips > 12 {
		t.Errorf("Expected between 6 and 12 flips for 3 pairs, got %d", flips)
	}
}

func TestBotRecallResumesDeal(t *testing.T) {
	server := setupGameServer(t)
	client := NewClient(server.URL)
	ctx := context.Background()

	info, err := client.CreateSession(ctx, service.CreateOptions{ConfigID: "tiny"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Flip(ctx, 0); err != nil {
		t.Fatal(err)
	}

	resumed := NewClient(server.URL)
	info, err = resumed.Resume(ctx, info.ID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	bot := NewBot(resumed, 0)
	if err := bot.Recall(ctx, info.Snapshot); err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if bot.memory.Known() != 1 {
		t.Errorf("Expected one card remembered from history, got %d", bot.memory.Known())
	}

	snap, _, err := bot.Play(ctx, info.Snapshot)
	if err != nil || !snap.Won() {
		t.Errorf("Expected resumed deal to be won, got %v, %v", snap.Status, err)
	}
}

func TestClientErrors(t *testing.T) {
	server := setupGameServer(t)
	ctx := context.Background()

	_, err := NewClient(server.URL).Resume(ctx, "zz99")
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected session not found, got %v", err)
	}

	_, err = NewClient(server.URL).CreateSession(ctx, service.CreateOptions{ConfigID: "missing"})
	if err == nil || !strings.Contains(err.Error(), "configuration not found") {
		t.Errorf("Expected configuration not found, got %v", err)
	}
}

func TestOpenSessionFallsBack(t *testing.T) {
	server := setupGameServer(t)
	client := NewClient(server.URL)

	info, resumed, err := openSession(context.Background(), client, "zz99", service.CreateOptions{ConfigID: "tiny"})
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	if resumed {
		t.Error("Expected a new session for an unknown ID")
	}
	if client.SessionID() != info.ID {
		t.Errorf("Client plays %s, want %s", client.SessionID(), info.ID)
	}
}

func TestReadSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	if got := readSessionFile(path); got != "" {
		t.Errorf("Expected empty ID for missing file, got %q", got)
	}

	os.WriteFile(path, []byte("ab12\n"), 0644)
	if got := readSessionFile(path); got != "ab12" {
		t.Errorf("Expected ab12, got %q", got)
	}

	if got := readSessionFile(""); got != "" {
		t.Errorf("Expected empty ID without a file, got %q", got)
	}
}

func TestRunPlaysSeveralGames(t *testing.T) {
	server := setupGameServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session")

	args := []string{"autoplay", "--url", server.URL, "--config", "tiny", "--games", "3", "--session-file", sessionFile}
	if err := newApp().Run(context.Background(), args); err != nil {
		t.Fatalf("autoplay failed: %v", err)
	}

	id := readSessionFile(sessionFile)
	if id == "" {
		t.Fatal("Expected session ID to be saved")
	}

	client := NewClient(server.URL)
	if _, err := client.Resume(context.Background(), id); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	snap, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Won() {
		t.Errorf("Expected last deal to be won, got %s", snap.Status)
	}
}

func TestRunRejectsZeroGames(t *testing.T) {
	args := []string{"autoplay", "--url", "http://127.0.0.1:0", "--games", "0"}
	if err := newApp().Run(context.Background(), args); err == nil {
		t.Error("Expected error for zero games")
	}
}
