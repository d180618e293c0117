package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
	"github.com/wricardo/mcp-training/memorygame/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	expectedAppName := "Memory Game Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("MEMORYGAME_HOST", "0.0.0.0")
	t.Setenv("MEMORYGAME_PORT", "9123")
	t.Setenv("MEMORYGAME_SESSION_TTL", "90m")
	t.Setenv("NGROK_AUTHTOKEN", "")
	t.Setenv("NGROK_AUTH_TOKEN", "legacy-token")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings failed: %v", err)
	}

	if s.Addr() != "0.0.0.0:9123" {
		t.Errorf("Expected addr 0.0.0.0:9123, got %s", s.Addr())
	}
	if s.SessionTTL != 90*time.Minute {
		t.Errorf("Expected TTL 90m, got %v", s.SessionTTL)
	}
	if s.NgrokAuthToken != "legacy-token" {
		t.Errorf("Expected fallback ngrok token, got %q", s.NgrokAuthToken)
	}
}

func TestLoadSettings_InvalidPort(t *testing.T) {
	t.Setenv("MEMORYGAME_PORT", "not-a-port")

	if _, err := loadSettings(); err == nil {
		t.Error("Expected error for invalid port")
	}
}

func TestApplyFlags(t *testing.T) {
	base := Settings{Host: "localhost", Port: 8080, ConfigDir: "configs"}

	tests := []struct {
		name string
		args []string
		want Settings
	}{
		{"no flags", nil, base},
		{"port", []string{"--port", "9000"}, Settings{Host: "localhost", Port: 9000, ConfigDir: "configs"}},
		{"host and dir", []string{"--host", "0.0.0.0", "--config-dir", "presets"}, Settings{Host: "0.0.0.0", Port: 8080, ConfigDir: "presets"}},
		{"default preset", []string{"--default-config", "easy"}, Settings{Host: "localhost", Port: 8080, ConfigDir: "configs", DefaultConfig: "easy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Settings
			cmd := &cli.Command{
				Name: "test",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host"},
					&cli.IntFlag{Name: "port"},
					&cli.StringFlag{Name: "config-dir"},
					&cli.StringFlag{Name: "default-config"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					got = applyFlags(base, cmd)
					return nil
				},
			}

			if err := cmd.Run(context.Background(), append([]string{"test"}, tt.args...)); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestInitializeServices(t *testing.T) {
	svcs, err := initializeServices(Settings{ConfigDir: "configs"})
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	if svcs.game == nil || svcs.sessions == nil || svcs.hub == nil {
		t.Fatal("Expected all services to be initialized")
	}
	if svcs.configs.Count() == 0 {
		t.Error("Expected presets to be found in configs")
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices(Settings{ConfigDir: "/non/existent/path"})
	if err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestInitializeServices_DefaultConfig(t *testing.T) {
	svcs, err := initializeServices(Settings{ConfigDir: "configs", DefaultConfig: "easy"})
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	easy, err := svcs.configs.LoadConfig("easy")
	if err != nil {
		t.Fatal(err)
	}

	info, err := svcs.game.CreateSession(context.Background(), service.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	defer svcs.sessions.CloseAll()
	if info.ConfigID != "easy" || info.Snapshot.PairCount != easy.PairCount {
		t.Errorf("Expected a session from the easy preset, got %s with %d pairs", info.ConfigID, info.Snapshot.PairCount)
	}

	if _, err := initializeServices(Settings{ConfigDir: "configs", DefaultConfig: "missing"}); err == nil {
		t.Error("Expected error for unknown default preset")
	}
}

func TestConfigReloadRoutine(t *testing.T) {
	dir := t.TempDir()
	preset := `{"name": "%s", "pair_count": 2, "attempt_counting": true, "reveal_window_ms": 500, "pool": ["a", "b"]}`
	path := filepath.Join(dir, "classic.json")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(preset, "Before")), 0644); err != nil {
		t.Fatal(err)
	}

	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if configs.GetDefault().Name != "Before" {
		t.Fatalf("Expected Before default, got %q", configs.GetDefault().Name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hup := make(chan os.Signal)
	go configReloadRoutine(ctx, configs, hup)

	if err := os.WriteFile(path, []byte(fmt.Sprintf(preset, "After")), 0644); err != nil {
		t.Fatal(err)
	}
	hup <- syscall.SIGHUP
	// A second send returns only after the first reload finished
	hup <- syscall.SIGHUP

	if got := configs.GetDefault().Name; got != "After" {
		t.Errorf("Expected After default once reloaded, got %q", got)
	}
}

func TestSessionCleanupRoutine(t *testing.T) {
	manager := session.NewManager()
	if _, err := manager.Create("ab12", engine.DefaultGameConfig()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionCleanupRoutine(ctx, manager, 5*time.Millisecond, time.Nanosecond)

	deadline := time.Now().Add(2 * time.Second)
	for manager.Count() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected expired session to be removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:0").GetMCPServer())

	t.Run("rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("answers ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		handler(w, httptest.NewRequest("POST", "/mcp", body))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"id":1`) {
			t.Errorf("Expected JSON-RPC response, got %s", w.Body.String())
		}
	})
}

func TestMainRouter(t *testing.T) {
	svcs, err := initializeServices(Settings{ConfigDir: "configs"})
	if err != nil {
		t.Fatal(err)
	}

	router := newMainRouter(api.NewServer(svcs.game, svcs.hub), mcp.NewClient("http://localhost:0"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected /api/health to answer 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected /mcp GET to answer 405, got %d", w.Code)
	}
}

func TestAPIReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
		}
	}))

	if !apiReachable(context.Background(), server.URL) {
		t.Error("Expected running server to be reachable")
	}

	server.Close()
	if apiReachable(context.Background(), server.URL) {
		t.Error("Expected closed server to be unreachable")
	}
}

func TestStartInternalAPI(t *testing.T) {
	svcs, err := initializeServices(Settings{ConfigDir: "configs"})
	if err != nil {
		t.Fatal(err)
	}

	baseURL, shutdown, err := startInternalAPI(svcs)
	if err != nil {
		t.Fatalf("startInternalAPI failed: %v", err)
	}
	defer shutdown()

	if !strings.HasPrefix(baseURL, "http://127.0.0.1:") {
		t.Errorf("Unexpected base URL %s", baseURL)
	}
	if !apiReachable(context.Background(), baseURL) {
		t.Error("Expected internal API to be reachable")
	}
}
