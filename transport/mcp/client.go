package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/memorygame/game/engine"
	"github.com/wricardo/mcp-training/memorygame/game/service"
)

var logger = log15.New("module", "mcp")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
All cards start face down. Flip two cards per turn. Equal faces stay matched,
different faces are shown for a short reveal window and then turned back.
Match every pair to win.

AVAILABLE TOOLS:
- create_session: Create a new game session
- list_sessions: List all active sessions
- get_session: Get session details
- board_state: Show the board (?? hidden, KEY face up, [KEY] matched)
- flip_card: Flip one card by index
- flip_pair: Flip two cards as one turn
- describe_card: Row/column and visible state of one card
- reset_game: Deal a new game, optionally with another pair count or preset
- flip_history: Every accepted flip with the face that was revealed
- list_configs: List available presets
- game_instructions: Rules and strategy

Flips during the reveal window are ignored, they are not errors.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset and pair count",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
				"pair_count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of pairs to deal (optional, 4-16 in the default pool)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board and counters",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_card",
		Description: "Flip the card at an index (0-based)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Card index, 0-based, row by row",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleFlipCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_pair",
		Description: "Flip two cards in sequence as one turn and report the outcome",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"first": map[string]interface{}{
					"type":        "integer",
					"description": "Index of the first card",
				},
				"second": map[string]interface{}{
					"type":        "integer",
					"description": "Index of the second card",
				},
			},
			Required: []string{"session_id", "first", "second"},
		},
	}, c.handleFlipPair)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_card",
		Description: "Get the board position and visible state of one card",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Card index, 0-based",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleDescribeCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Deal a new game, keeping the current settings unless overridden",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"pair_count": map[string]interface{}{
					"type":        "integer",
					"description": "New pair count (optional)",
				},
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Switch to another preset (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_history",
		Description: "Get accepted flips for a session, including faces of cards that were hidden again",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFlipHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and strategy hints",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// intArg reads a required integer argument. JSON numbers arrive as
// float64; fractional values are rejected, not truncated.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number, got %s", key, v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}

// optionalIntArg is intArg for an argument that may be left out.
func optionalIntArg(args map[string]interface{}, key string) (int, bool, error) {
	if args[key] == nil {
		return 0, false, nil
	}
	n, err := intArg(args, key)
	return n, err == nil, err
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateOptions{}
	body.ConfigID, _ = args["config_id"].(string)
	n, ok, err := optionalIntArg(args, "pair_count")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		body.PairCount = n
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigID, formatSnapshot(&session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, %d/%d pairs, %s, Created: %s)\n",
			s.ID, s.ConfigID, s.Snapshot.MatchedCount, s.Snapshot.PairCount,
			s.Snapshot.Status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) flip(ctx context.Context, sessionID string, index int) (*service.FlipResult, error) {
	var result service.FlipResult
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/flip"), map[string]int{"index": index}, &result)
	if err != nil {
		return nil, err
	}
	logger.Debug("flip", "session", sessionID, "index", index, "outcome", result.Outcome)
	return &result, nil
}

func (c *Client) handleFlipCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	index, err := intArg(args, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := c.flip(ctx, sessionID, index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFlipResult(result)), nil
}

func (c *Client) handleFlipPair(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	first, err := intArg(args, "first")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	second, err := intArg(args, "second")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	firstResult, err := c.flip(ctx, sessionID, first)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !firstResult.Accepted {
		return mcp.NewToolResultText("First flip ignored, turn not played.\n\n" + formatFlipResult(firstResult)), nil
	}

	secondResult, err := c.flip(ctx, sessionID, second)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Card %d: %s\n", first, firstResult.FaceKey)
	if secondResult.Accepted {
		fmt.Fprintf(&b, "Card %d: %s\n", second, secondResult.FaceKey)
	}
	b.WriteString("\n")
	b.WriteString(formatFlipResult(secondResult))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDescribeCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	index, err := intArg(args, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if index < 0 || index >= len(snap.Cards) {
		return mcp.NewToolResultError(fmt.Sprintf("Index %d is out of range. The board has %d cards (0-%d)",
			index, len(snap.Cards), len(snap.Cards)-1)), nil
	}

	card := snap.Cards[index]
	cols := engine.BoardColumns(len(snap.Cards))

	var b strings.Builder
	fmt.Fprintf(&b, "Card %d (row %d, column %d)\n", index, index/cols, index%cols)
	switch {
	case card.Matched:
		fmt.Fprintf(&b, "State: matched\nFace: %s\n", card.FaceKey)
	case card.Flipped:
		fmt.Fprintf(&b, "State: face up\nFace: %s\n", card.FaceKey)
		if snap.HidePending {
			b.WriteString("This card will be turned back after the reveal window.\n")
		}
	default:
		b.WriteString("State: face down\n")
		if snap.Status == engine.StatusPlaying && len(snap.Pending) < 2 {
			b.WriteString("Can be flipped now.\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	body := service.ResetOptions{}
	body.ConfigID, _ = args["config_id"].(string)
	n, ok, err := optionalIntArg(args, "pair_count")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		body.PairCount = n
	}

	var response struct {
		Message string               `json:"message"`
		Session *service.SessionInfo `json:"session"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if response.Session == nil {
		return mcp.NewToolResultText(response.Message), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatSnapshot(&response.Session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleFlipHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	for _, key := range []string{"page", "limit"} {
		n, ok, err := optionalIntArg(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			params.Set(key, fmt.Sprint(n))
		}
	}
	params.Set("order", "asc")

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/history?"+params.Encode()), nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		counting := "on"
		if !cfg.AttemptCounting {
			counting = "off"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Pairs: %d of %d faces, Reveal: %dms, Attempt counting: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.PairCount, cfg.PoolSize, cfg.RevealWindowMs, counting)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🃏 Memory Game - Complete Instructions

GAME OBJECTIVE:
Find every pair of equal cards. The game is won when all pairs are matched.

GAME MECHANICS:
• The deck holds each face exactly twice, shuffled, all face down
• Flip one card, then a second one
• Same face: both stay face up as a matched pair
• Different faces: both stay visible for the reveal window, then turn back
• While a mismatched pair is visible no other card can be flipped
• Every completed pair of flips counts as one attempt (unless the preset disables counting)

BOARD LEGEND:
• ??    - face-down card
• KEY   - face-up card (pending)
• [KEY] - matched card
Indices run row by row starting at 0.

IGNORED FLIPS:
A flip is ignored (not an error) when the index is out of range, the card is
already face up or matched, two cards are already showing, or the game is won.

STRATEGY:
1. Remember every face you have seen; flip_history keeps them for you
2. When a face you have seen before appears, flip its partner next
3. Otherwise flip an unseen card to learn something new
4. Never flip a card you already know twice in one turn
5. Wait for the reveal window to pass after a mismatch before flipping again

TOOLS:
• flip_card / flip_pair - play
• board_state / describe_card - look at the board
• flip_history - recall revealed faces
• reset_game - new deal, optionally with pair_count or config_id

Good luck and good memory!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n\n%s",
		session.ID, session.ConfigID,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339),
		formatSnapshot(&session.Snapshot))
}

func formatSnapshot(snap *engine.Snapshot) string {
	var b strings.Builder

	if snap.ConfigName != "" {
		fmt.Fprintf(&b, "Game: %s\n", snap.ConfigName)
	}
	fmt.Fprintf(&b, "Matched: %d/%d pairs\n", snap.MatchedCount, snap.PairCount)
	if !snap.Won() {
		fmt.Fprintf(&b, "Remaining pairs: %d\n", snap.RemainingPairs())
	}
	fmt.Fprintf(&b, "Attempts: %d\n", snap.AttemptCount)
	if len(snap.Pending) > 0 {
		fmt.Fprintf(&b, "Pending: %v\n", snap.Pending)
	}
	if snap.HidePending {
		fmt.Fprintf(&b, "Mismatched pair visible, hides after %dms\n", snap.RevealWindowMs)
	}
	if snap.Won() {
		b.WriteString("🎉 VICTORY!\n")
	}
	b.WriteString("\n")
	b.WriteString(engine.FormatBoard(snap.Cards))
	return b.String()
}

func formatFlipResult(result *service.FlipResult) string {
	var b strings.Builder

	switch result.Outcome {
	case service.OutcomeIgnored:
		fmt.Fprintf(&b, "✗ Flip ignored: %s\n", result.Message)
	case service.OutcomeRevealed:
		fmt.Fprintf(&b, "✓ Card %d shows %s\n", result.Index, result.FaceKey)
	case service.OutcomeMatch:
		fmt.Fprintf(&b, "✓ Match! Card %d shows %s\n", result.Index, result.FaceKey)
	case service.OutcomeMismatch:
		fmt.Fprintf(&b, "✗ No match. Card %d shows %s\n", result.Index, result.FaceKey)
	}
	for _, ev := range result.Events {
		if ev.Type == service.EventVictory {
			fmt.Fprintf(&b, "%s\n", ev.Message)
		}
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(&result.Snapshot))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flip History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalFlips)
	for _, rec := range history.Flips {
		fmt.Fprintf(&b, "#%d card %d = %s (%s)\n", rec.Seq, rec.Index, rec.FaceKey, rec.Outcome)
	}
	if len(history.Flips) == 0 {
		b.WriteString("No flips yet.\n")
	}
	return b.String()
}
