package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Tick(ctx context.Context, sessionID string, frames int) (*TickResult, error)
	PressKey(ctx context.Context, sessionID, key string) (*KeyResult, error)
	Touch(ctx context.Context, sessionID string, clientX float64) (*TouchResult, error)
	ActivatePowerUp(ctx context.Context, sessionID string, kind engine.PowerUpKind) (*PowerUpResult, error)
	Resize(ctx context.Context, sessionID string, viewport render.Viewport) (render.Viewport, error)
	SetCarColor(ctx context.Context, sessionID, color string) (*Preferences, error)
	GetPreferences(ctx context.Context, sessionID string) (*Preferences, error)

	// Frame loop
	Step(ctx context.Context, sessionID string) (*render.Frame, error)
	FrameInterval(ctx context.Context, sessionID string) (time.Duration, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetFrame(ctx context.Context, sessionID string) (*render.Frame, error)
	GetEffects(ctx context.Context, sessionID string, opts EffectsOptions) (*EffectsResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	Lookup(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles tuning profile loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. The engine is not safe
// for concurrent use, so every reader and writer holds the session lock.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	Viewport       render.Viewport
	Preferences    Preferences
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Lock acquires the session lock
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session lock
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// Now returns the session's clock: wall time, but never earlier than the
// last frame, since headless ticks may have run ahead of the wall clock
func (s *Session) Now(wall time.Time) time.Time {
	last := s.Engine.GetState().LastUpdate
	if wall.Before(last) {
		return last
	}
	return wall
}

// CarColor is the color preference handed to the renderer
func (s *Session) CarColor() string {
	if c := strings.TrimSpace(s.Preferences.CarColor); c != "" {
		return c
	}
	if s.Config != nil {
		return s.Config.DefaultCarColor
	}
	return engine.DefaultCarColor
}

// Render draws the current state without advancing it; callers hold the lock
func (s *Session) Render(now time.Time) *render.Frame {
	return render.Render(s.Engine.GetState(), s.Viewport, now, s.CarColor())
}
