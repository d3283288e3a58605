package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
	"github.com/wricardo/neon-drive/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
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
		"Neon Drive",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Neon Drive - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive as far as you can. Score grows every frame with speed, power-ups cost
energy, and energy regenerates while you drive.

AVAILABLE TOOLS:
- create_session: Create a new session with an optional tuning profile
- list_sessions / get_session: Inspect sessions
- game_state: Current score, energy, speed, position and active power-ups
- press_key: Press a key (ArrowLeft, ArrowRight or a power-up key)
- touch: Steer to a horizontal touch position on the canvas
- activate_power_up: Activate turbo, flight or rainbow directly
- advance_frames: Run N frames of the simulation
- set_car_color: Change the car color preference
- list_effects: Page through the activated power-ups
- list_configs: List tuning profiles
- game_instructions: Full rules

Sessions with a connected browser advance on their own; headless sessions only
move when advance_frames is called.`),
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
		Description: "Create a new game session with an optional tuning profile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Profile ID from list_configs (optional, defaults to classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all game sessions, most recently used first",
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
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "press_key",
		Description: "Press a key: ArrowLeft/ArrowRight steer, the profile's power-up keys (1, 2, 3 by default) activate power-ups",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"key": map[string]interface{}{
					"type":        "string",
					"description": "Key name, e.g. ArrowLeft, ArrowRight, 1, 2, 3",
				},
			},
			Required: []string{"session_id", "key"},
		},
	}, c.handlePressKey)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "touch",
		Description: "Steer to a touch position; the canvas center is straight ahead",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"client_x": map[string]interface{}{
					"type":        "number",
					"description": "Horizontal position in canvas pixels",
				},
			},
			Required: []string{"session_id", "client_x"},
		},
	}, c.handleTouch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "activate_power_up",
		Description: "Activate a power-up directly, skipping the key threshold (energy cost still applies)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Power-up kind",
					"enum":        []string{string(engine.Turbo), string(engine.Flight), string(engine.Rainbow)},
				},
			},
			Required: []string{"session_id", "kind"},
		},
	}, c.handleActivatePowerUp)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance_frames",
		Description: fmt.Sprintf("Run 1 to %d frames of the simulation and report what changed", engine.MaxTickFramesPerCall),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"frames": map[string]interface{}{
					"type":        "integer",
					"description": "Number of frames to run (default 1)",
					"minimum":     1,
					"maximum":     engine.MaxTickFramesPerCall,
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAdvanceFrames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_car_color",
		Description: "Set the car color preference (hex, rgb()/hsl() or a CSS color name)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"color": map[string]interface{}{
					"type":        "string",
					"description": "Color, e.g. #0af, gold, rgb(255, 0, 170)",
				},
			},
			Required: []string{"session_id", "color"},
		},
	}, c.handleSetCarColor)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_effects",
		Description: "Page through the power-ups activated in a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Effects per page (default 20)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "asc or desc (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleListEffects)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available tuning profiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete game rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP call to the REST API
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
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
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
	fmt.Fprintf(&b, "Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.DisplayScore()
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Last used: %s)\n",
			s.ID, s.ConfigName, score, s.LastAccessedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePressKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, _ := args["key"].(string)
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}

	var result service.KeyResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"key": key}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatKeyResult(&result)), nil
}

func (c *Client) handleTouch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/touch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clientX, ok := args["client_x"].(float64)
	if !ok {
		return mcp.NewToolResultError("client_x must be a number"), nil
	}

	var result service.TouchResult
	if err := c.apiCall(ctx, "POST", path, map[string]float64{"client_x": clientX}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Steered to x=%.2f\n\n%s", result.PlayerX, formatGameState(result.GameState))
	if !result.Applied {
		text = "Touch ignored: the viewport has no width"
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleActivatePowerUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	kind, _ := args["kind"].(string)
	if kind == "" {
		return mcp.NewToolResultError("kind is required"), nil
	}
	path, err := sessionPath(args, "/powerups/"+url.PathEscape(kind))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.PowerUpResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPowerUpResult(&result)), nil
}

func (c *Client) handleAdvanceFrames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/tick")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	frames := 1
	if f, ok := args["frames"].(float64); ok {
		frames = int(f)
	}

	var result service.TickResult
	if err := c.apiCall(ctx, "POST", path, map[string]int{"frames": frames}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handleSetCarColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/preferences/color")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color, _ := args["color"].(string)

	var prefs service.Preferences
	if err := c.apiCall(ctx, "PUT", path, map[string]string{"color": color}, &prefs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Car color set to %q", prefs.CarColor)
	if _, ok := render.ParseColor(prefs.CarColor); !ok && prefs.CarColor != "" {
		text += " (not a recognised color, the car falls back to the profile color)"
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleListEffects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	suffix := "/effects"
	if len(params) > 0 {
		suffix += "?" + params.Encode()
	}
	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var effects service.EffectsResponse
	if err := c.apiCall(ctx, "GET", path, nil, &effects); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEffects(&effects)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Profiles:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s, %s)\n  %s\n  Energy: %g/%g, Max speed: %g, %d fps\n\n",
			cfg.Name, cfg.ConfigID, cfg.Format, cfg.Description,
			cfg.StartingEnergy, cfg.MaxEnergy, cfg.MaxSpeed, cfg.FrameRate)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Neon Drive - Complete Instructions

GAME OBJECTIVE:
Keep driving and rack up score. There is no finish line and no game over.

EVERY FRAME:
• Speed rises by the profile's acceleration until it reaches max speed
  (turbo raises the cap).
• Score grows by speed x 0.1, plus the rainbow bonus while rainbow is active.
• Energy regenerates up to max energy.
• Power-ups whose time is up switch off.

STEERING:
• ArrowLeft / ArrowRight move the car one steer step (0.1 in the classic
  profile). The position is clamped to -1 (left edge) .. 1 (right edge).
• touch sets the position directly: the canvas center is 0.

POWER-UPS (classic profile):
• turbo   - key 1, costs 30, lasts 3s, doubles the speed cap
• flight  - key 2, costs 20, lasts 2s, lifts the car off the road
• rainbow - key 3, costs 40, lasts 5s, +0.5 score per frame, cycling colors
A power-up activates only if it is not already active and energy covers the
cost. Keys add a second gate: energy must be above the key threshold
(20 / 30 / 25 in classic). activate_power_up skips that gate.
Other profiles change costs, durations, keys and thresholds; use list_configs.

HEADLESS PLAY:
A session with no browser attached only moves when advance_frames runs.
Frames are spaced by the profile's frame rate (60 fps in classic), so 60
frames is one second of game time and expires power-ups accordingly.

STRATEGY:
• Energy only refills while driving; advance frames between activations.
• Rainbow is the only direct score boost; turbo pays off through speed.
• Check game_state to see active power-ups and their remaining time.

SESSIONS:
• Each session has its own ID, profile, viewport and car color.
• Open / in a browser with ?session=ID to watch a session live.`

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nViewport: %gx%g\nCar color: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.Viewport.Width, session.Viewport.Height,
		orDefault(session.Preferences.CarColor, "(profile default)"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Energy: %.1f/%g | Speed: %.2f | X: %.2f | Frames: %d\n",
		state.DisplayScore(), state.Energy, state.MaxEnergy, state.Speed, state.PlayerX, state.Ticks)
	b.WriteString(laneView(state.PlayerX))
	b.WriteString("\n")

	active := state.ActiveKinds()
	if len(active) == 0 {
		b.WriteString("Power-ups: none active")
	} else {
		parts := make([]string, 0, len(active))
		for _, kind := range active {
			remaining := state.PowerUp(kind).Remaining(state.LastUpdate)
			parts = append(parts, fmt.Sprintf("%s (%.1fs left)", kind, remaining.Seconds()))
		}
		b.WriteString("Power-ups: " + strings.Join(parts, ", "))
	}

	return b.String()
}

// laneView draws the car on a 21 column road
func laneView(x float64) string {
	const width = 21
	col := int((x + 1) / 2 * (width - 1))
	if col < 0 {
		col = 0
	}
	if col > width-1 {
		col = width - 1
	}
	return "|" + strings.Repeat(" ", col) + "^" + strings.Repeat(" ", width-1-col) + "|"
}

func formatKeyResult(result *service.KeyResult) string {
	return fmt.Sprintf("Key %s: %s\n\n%s", result.Key, result.Message, formatGameState(result.GameState))
}

func formatPowerUpResult(result *service.PowerUpResult) string {
	var b strings.Builder
	if result.Activated {
		fmt.Fprintf(&b, "✓ %s activated (cost %g, energy now %.1f)", result.Kind, result.Cost, result.Energy)
		if result.EndsAt != nil {
			fmt.Fprintf(&b, ", ends at %s", result.EndsAt.Format("15:04:05.000"))
		}
	} else {
		fmt.Fprintf(&b, "✗ %s not activated: %s", result.Kind, result.Message)
	}
	b.WriteString("\n\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatTickResult(result *service.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ran %d frames | Score +%.1f | Energy %+.1f\n",
		result.FramesRun, result.ScoreDelta, result.EnergyDelta)
	if len(result.Expired) > 0 {
		kinds := make([]string, len(result.Expired))
		for i, kind := range result.Expired {
			kinds[i] = string(kind)
		}
		fmt.Fprintf(&b, "Expired: %s\n", strings.Join(kinds, ", "))
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatEffects(effects *service.EffectsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Effects (Page %d/%d) - Total: %d\n\n", effects.Page, effects.TotalPages, effects.TotalEffects)
	if len(effects.Effects) == 0 {
		b.WriteString("(no power-ups activated yet)")
		return b.String()
	}
	for _, effect := range effects.Effects {
		fmt.Fprintf(&b, "%d. %s at %s [Energy after: %.1f]\n",
			effect.Number, effect.Kind, effect.ActivatedAt.Format("15:04:05.000"), effect.EnergyAfter)
	}
	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
