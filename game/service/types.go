package service

import (
	"time"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

// Preferences is the per-session preference store
type Preferences struct {
	CarColor string `json:"carColor"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Viewport       render.Viewport    `json:"viewport"`
	Preferences    Preferences        `json:"preferences"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// TickResult summarizes a headless run of several frames
type TickResult struct {
	FramesRun   int                  `json:"frames_run"`
	ScoreDelta  float64              `json:"score_delta"`
	EnergyDelta float64              `json:"energy_delta"`
	Expired     []engine.PowerUpKind `json:"expired,omitempty"`
	SimTime     time.Time            `json:"sim_time"`
	GameState   *engine.GameState    `json:"game_state"`
	Frame       *render.Frame        `json:"frame"`
}

// KeyResult is the outcome of a key press
type KeyResult struct {
	engine.KeyResult
	Message   string            `json:"message"`
	GameState *engine.GameState `json:"game_state"`
}

// TouchResult is the outcome of a touch event
type TouchResult struct {
	Applied   bool              `json:"applied"`
	PlayerX   float64           `json:"player_x"`
	GameState *engine.GameState `json:"game_state"`
}

// PowerUpResult is the outcome of a direct activation request
type PowerUpResult struct {
	Kind      engine.PowerUpKind `json:"kind"`
	Activated bool               `json:"activated"`
	Cost      float64            `json:"cost"`
	Energy    float64            `json:"energy"`
	EndsAt    *time.Time         `json:"ends_at,omitempty"`
	Message   string             `json:"message"`
	Effect    *engine.Effect     `json:"effect,omitempty"`
	GameState *engine.GameState  `json:"game_state"`
}

// EffectsOptions configures effects log retrieval
type EffectsOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// EffectsResponse contains a page of the effects log
type EffectsResponse struct {
	Effects      []engine.Effect `json:"effects"`
	TotalEffects int             `json:"total_effects"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	TotalPages   int             `json:"total_pages"`
	HasNext      bool            `json:"has_next"`
	HasPrevious  bool            `json:"has_previous"`
}

// ConfigInfo provides information about a tuning profile
type ConfigInfo struct {
	Filename       string  `json:"filename"`
	ConfigID       string  `json:"config_id"` // The identifier to use for session creation
	Name           string  `json:"name"`      // Display name
	Description    string  `json:"description"`
	Format         string  `json:"format"`
	StartingEnergy float64 `json:"starting_energy"`
	MaxEnergy      float64 `json:"max_energy"`
	MaxSpeed       float64 `json:"max_speed"`
	FrameRate      int     `json:"frame_rate"`
}
