// Command memorygame runs the memory game server.
//
// Commands:
//  1. "server" (default) – HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "mcp" – MCP stdio server, reusing a running API or starting an internal one
//  3. "play" – the game in the terminal, no server involved
//  4. "configs validate|analyze" – checks and statistics for preset files
//
// Settings come from the environment (optionally a .env file) and can be
// overridden by flags. Ngrok tunnelling is available in server mode, and
// SIGHUP rereads the preset files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/memorygame/api"
	"github.com/wricardo/mcp-training/memorygame/game/config"
	"github.com/wricardo/mcp-training/memorygame/game/service"
	"github.com/wricardo/mcp-training/memorygame/game/session"
	"github.com/wricardo/mcp-training/memorygame/transport/mcp"
	"github.com/wricardo/mcp-training/memorygame/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Game Server"
)

var logger = log15.New("module", "main")

// Settings are the process settings read from the environment.
type Settings struct {
	Host            string        `env:"MEMORYGAME_HOST" envDefault:"localhost"`
	Port            int           `env:"MEMORYGAME_PORT" envDefault:"8080"`
	ConfigDir       string        `env:"CONFIG_DIR" envDefault:"configs"`
	DefaultConfig   string        `env:"MEMORYGAME_DEFAULT_CONFIG"`
	Debug           bool          `env:"MEMORYGAME_DEBUG"`
	SessionTTL      time.Duration `env:"MEMORYGAME_SESSION_TTL" envDefault:"24h"`
	CleanupInterval time.Duration `env:"MEMORYGAME_CLEANUP_INTERVAL" envDefault:"1h"`
	ExternalAPI     string        `env:"MEMORYGAME_API_URL" envDefault:"http://localhost:8080"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// Addr is the host:port the HTTP server listens on.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// loadSettings reads .env (if present) and the environment.
func loadSettings() (Settings, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("error loading .env file", "err", err)
		}
	} else {
		logger.Debug("loaded environment variables from .env file")
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse environment: %w", err)
	}
	// NGROK_AUTH_TOKEN is accepted as well as the ngrok agent's own name
	if s.NgrokAuthToken == "" {
		s.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	return s, nil
}

// applyFlags overrides settings with flags set on the command line.
func applyFlags(s Settings, cmd *cli.Command) Settings {
	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		s.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("default-config") {
		s.DefaultConfig = cmd.String("default-config")
	}
	if cmd.IsSet("debug") {
		s.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("session-ttl") {
		s.SessionTTL = cmd.Duration("session-ttl")
	}
	if cmd.IsSet("ngrok") {
		s.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.NgrokDomain = cmd.String("ngrok-domain")
	}
	return s
}

// setupLogging routes all package loggers to stderr in logfmt.
func setupLogging(debug bool) {
	lvl := log15.LvlInfo
	if debug {
		lvl = log15.LvlDebug
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
}

func newApp() *cli.Command {
	var settings Settings

	return &cli.Command{
		Name:           "memorygame",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory containing game presets"},
			&cli.StringFlag{Name: "default-config", Usage: "Preset for sessions created without one"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			s, err := loadSettings()
			if err != nil {
				return ctx, err
			}
			settings = applyFlags(s, cmd)
			setupLogging(settings.Debug)
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "session-ttl", Usage: "Remove sessions idle for longer than this"},
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (or NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s := applyFlags(settings, cmd)
					svcs, err := initializeServices(s)
					if err != nil {
						return err
					}
					return runHTTPServer(ctx, s, svcs)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Usage: "API to reuse when it is reachable", Sources: cli.EnvVars("MEMORYGAME_API_URL")},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s := settings
					if cmd.IsSet("api-url") {
						s.ExternalAPI = cmd.String("api-url")
					}
					return runStdioMCP(ctx, s)
				},
			},
			playCommand(&settings),
			configsCommand(&settings),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.Crit("exiting", "err", err)
		os.Exit(1)
	}
}

// services bundles what initializeServices wires together.
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
	hub      *websocket.Hub
}

// initializeServices wires the config manager, session registry, WebSocket
// hub and game service.
func initializeServices(s Settings) (*services, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if s.DefaultConfig != "" {
		if err := configManager.SetDefault(s.DefaultConfig); err != nil {
			return nil, fmt.Errorf("default config %s: %w", s.DefaultConfig, err)
		}
	}

	hub := websocket.NewHub()
	sessionManager := session.NewManager()
	gameService := service.NewGameService(sessionManager, configManager, service.WithNotifier(hub))

	return &services{
		game:     gameService,
		sessions: sessionManager,
		configs:  configManager,
		hub:      hub,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// configReloadRoutine drops the preset cache each time hup fires, so edited
// preset files apply to new sessions without a restart.
func configReloadRoutine(ctx context.Context, configs *config.Manager, hup <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := configs.RefreshCache(); err != nil {
				logger.Error("config reload failed", "err", err)
			}
		}
	}
}

// mcpHandler answers single JSON-RPC messages posted to /mcp.
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newMainRouter mounts the API at the root and the MCP endpoint at /mcp.
func newMainRouter(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp endpoint, plus an ngrok tunnel when enabled. It returns once ctx is
// cancelled and everything has shut down.
func runHTTPServer(ctx context.Context, s Settings, svcs *services) error {
	go svcs.hub.Run()
	defer svcs.hub.Stop()
	defer svcs.sessions.CloseAll()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sessionCleanupRoutine(ctx, svcs.sessions, s.CleanupInterval, s.SessionTTL)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go configReloadRoutine(ctx, svcs.configs, hup)

	addr := s.Addr()
	apiServer := api.NewServer(svcs.game, svcs.hub)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening", "addr", addr, "configs", svcs.configs.Count())
		logger.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if s.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, mainRouter)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runNgrok serves handler through an ngrok tunnel until ctx is done.
func runNgrok(ctx context.Context, s Settings, handler http.Handler) {
	if s.NgrokAuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", s.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established", "url", ngrokURL,
		"api", ngrokURL+"/api", "ws", ngrokURL+"/ws?session=<session_id>", "mcp", ngrokURL+"/mcp")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Error("failed to close ngrok tunnel", "err", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
}

// apiReachable reports whether a memory game API answers at baseURL.
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the API on a random loopback port and returns its
// base URL and a shutdown function.
func startInternalAPI(svcs *services) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	go svcs.hub.Run()
	httpServer := &http.Server{Handler: api.NewServer(svcs.game, svcs.hub)}

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("internal HTTP server error", "err", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
		svcs.hub.Stop()
		svcs.sessions.CloseAll()
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}

// runStdioMCP runs an MCP stdio server. It reuses the API at
// s.ExternalAPI when reachable and otherwise starts an internal one.
func runStdioMCP(ctx context.Context, s Settings) error {
	baseURL := s.ExternalAPI

	if apiReachable(ctx, baseURL) {
		logger.Info("external API server found, using it for MCP", "url", baseURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(s)
		if err != nil {
			return err
		}
		var shutdown func()
		baseURL, shutdown, err = startInternalAPI(svcs)
		if err != nil {
			return err
		}
		defer shutdown()
		logger.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
