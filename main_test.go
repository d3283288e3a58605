package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/neon-drive/api"
	"github.com/wricardo/neon-drive/game/loop"
	"github.com/wricardo/neon-drive/transport/mcp"
)

// stubLoops records stopped frame loops
type stubLoops struct {
	stopped []string
}

func (s *stubLoops) Stop(sessionID string) bool {
	s.stopped = append(s.stopped, sessionID)
	return true
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	svcs, err := initializeServices("configs", t.TempDir())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	return svcs
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Neon Drive Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestInitializeServices(t *testing.T) {
	svcs := newTestServices(t)

	if svcs.game == nil || svcs.sessions == nil || svcs.configs == nil || svcs.persistence == nil {
		t.Fatalf("Expected all services to be initialized: %+v", svcs)
	}

	configs, err := svcs.game.ListConfigs(context.Background())
	if err != nil {
		t.Fatalf("ListConfigs failed: %v", err)
	}
	if len(configs) < 4 {
		t.Errorf("Expected the bundled profiles, got %d", len(configs))
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	if _, err := initializeServices("/non/existent/path", t.TempDir()); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestInitializeServices_LoadsPersistedSessions(t *testing.T) {
	sessionsDir := t.TempDir()

	first, err := initializeServices("configs", sessionsDir)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	info, err := first.game.CreateSession(context.Background(), "drift")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	second, err := initializeServices("configs", sessionsDir)
	if err != nil {
		t.Fatalf("Failed to reinitialize services: %v", err)
	}
	if second.sessions.Count() != 1 {
		t.Fatalf("Expected 1 restored session, got %d", second.sessions.Count())
	}

	restored, err := second.game.GetSession(context.Background(), info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if restored.GameConfig.MaxEnergy != 120 {
		t.Errorf("Expected drift profile restored, got max energy %v", restored.GameConfig.MaxEnergy)
	}
}

func TestNewApp(t *testing.T) {
	app := newApp()

	for _, name := range []string{"server", "http", "stdio-mcp", "mcp"} {
		if app.Command(name) == nil {
			t.Errorf("Expected command %q", name)
		}
	}

	defaults := map[string]string{
		"host":         "localhost",
		"config-dir":   "configs",
		"sessions-dir": "sessions",
	}
	seen := map[string]bool{}
	for _, flag := range app.Flags {
		name := flag.Names()[0]
		seen[name] = true
		if sf, ok := flag.(*cli.StringFlag); ok {
			if want, ok := defaults[name]; ok && sf.Value != want {
				t.Errorf("Flag %s default = %q, want %q", name, sf.Value, want)
			}
		}
	}

	for _, name := range []string{"host", "port", "config-dir", "sessions-dir", "debug", "ngrok", "ngrok-auth", "ngrok-domain"} {
		if !seen[name] {
			t.Errorf("Missing flag --%s", name)
		}
	}
}

func TestPruneOrphanedSessions(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	kept, err := svcs.game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	orphan, err := svcs.game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := svcs.persistence.Delete(orphan.ID); err != nil {
		t.Fatalf("Failed to delete session file: %v", err)
	}

	loops := &stubLoops{}
	if pruned := pruneOrphanedSessions(svcs.sessions, svcs.persistence, loops); pruned != 1 {
		t.Fatalf("Expected 1 pruned session, got %d", pruned)
	}

	if _, err := svcs.sessions.Get(orphan.ID); err == nil {
		t.Error("Orphaned session should be gone")
	}
	if _, err := svcs.sessions.Get(kept.ID); err != nil {
		t.Errorf("Kept session should remain: %v", err)
	}
	if len(loops.stopped) != 1 || loops.stopped[0] != orphan.ID {
		t.Errorf("Expected frame loop stopped for %s, got %v", orphan.ID, loops.stopped)
	}

	if pruned := pruneOrphanedSessions(svcs.sessions, nil, nil); pruned != 0 {
		t.Errorf("Expected no pruning without persistence, got %d", pruned)
	}
}

func TestExpireSessionsStopsFrameLoops(t *testing.T) {
	svcs := newTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := loop.NewRunner(ctx, svcs.game, nil)
	defer runner.StopAll()

	info, err := svcs.game.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := runner.Start(info.ID); err != nil {
		t.Fatalf("Failed to start frame loop: %v", err)
	}

	sess, err := svcs.sessions.Lookup(info.ID)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	progress := func() (float64, int64) {
		sess.Lock()
		defer sess.Unlock()
		state := sess.Engine.GetState()
		return state.Score, state.Ticks
	}

	deadline := time.Now().Add(2 * time.Second)
	for _, ticks := progress(); ticks < 20; _, ticks = progress() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for live frames")
		}
		time.Sleep(5 * time.Millisecond)
	}
	score, ticks := progress()

	// A negative age puts every session past the cutoff
	if removed := expireSessions(svcs.sessions, runner, -time.Minute); removed != 1 {
		t.Fatalf("Expected 1 expired session, got %d", removed)
	}
	if runner.Running(info.ID) {
		t.Error("Expected the frame loop to stop with its session")
	}

	time.Sleep(50 * time.Millisecond)
	if svcs.sessions.Count() != 0 {
		t.Fatal("Expired session came back into memory")
	}

	restored, err := svcs.game.GetGameState(ctx, info.ID)
	if err != nil {
		t.Fatalf("Failed to restore expired session: %v", err)
	}
	if restored.Score < score || restored.Ticks < ticks {
		t.Errorf("Restored session went backwards: score %v -> %v, ticks %d -> %d",
			score, restored.Score, ticks, restored.Ticks)
	}
}

func TestMCPHandler(t *testing.T) {
	svcs := newTestServices(t)
	apiServer := httptest.NewServer(api.NewServer(svcs.game, nil, nil))
	defer apiServer.Close()

	handler := mcpHandler(mcp.NewClient(apiServer.URL))

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "tools list",
			method:     "POST",
			body:       `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
			wantStatus: http.StatusOK,
			wantBody:   "advance_frames",
		},
		{
			name:       "list configs tool",
			method:     "POST",
			body:       `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_configs","arguments":{}}}`,
			wantStatus: http.StatusOK,
			wantBody:   "config_id: classic",
		},
		{
			name:       "notification",
			method:     "POST",
			body:       `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "GET not allowed",
			method:     "GET",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/mcp", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("Expected %q in response: %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestExternalAPIAvailable(t *testing.T) {
	svcs := newTestServices(t)
	apiServer := httptest.NewServer(api.NewServer(svcs.game, nil, nil))

	if !externalAPIAvailable(apiServer.URL) {
		t.Error("Expected running API to be detected")
	}

	apiServer.Close()
	if externalAPIAvailable(apiServer.URL) {
		t.Error("Expected closed API to be unavailable")
	}
}

func TestStartInternalAPI(t *testing.T) {
	svcs := newTestServices(t)

	baseURL, httpServer, err := startInternalAPI(svcs)
	if err != nil {
		t.Fatalf("startInternalAPI failed: %v", err)
	}
	defer httpServer.Close()

	if !strings.HasPrefix(baseURL, "http://127.0.0.1:") {
		t.Errorf("Expected loopback URL, got %s", baseURL)
	}
	if !externalAPIAvailable(baseURL) {
		t.Error("Expected internal API to answer health checks")
	}
}
