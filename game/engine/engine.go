package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	GetScore() float64
	GetEnergy() float64
	GetSpeed() float64
	GetPlayerX() float64

	// Frame update
	Update(now time.Time)

	// Power-ups
	Activate(kind PowerUpKind, now time.Time) bool
	CanActivate(kind PowerUpKind) bool
	IsActive(kind PowerUpKind) bool

	// Input
	HandleKey(key string, now time.Time) KeyResult
	Steer(delta float64)
	Touch(clientX, canvasWidth float64) bool

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// Effects log
	GetEffects() []Effect
	GetLastEffect() *Effect
}

// KeyResult describes what a key press did
type KeyResult struct {
	Key       string      `json:"key"`
	Handled   bool        `json:"handled"`
	Steered   bool        `json:"steered,omitempty"`
	PowerUp   PowerUpKind `json:"power_up,omitempty"`
	Activated bool        `json:"activated"`
	// Gated is set when the key's coarse energy threshold blocked the request
	Gated bool `json:"gated,omitempty"`
}

// GameEngine implements the Engine interface. It is not safe for
// concurrent use; callers serialize access.
type GameEngine struct {
	state  *GameState
	config *GameConfig
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic profile
func NewEngineWithDefaults() *GameEngine {
	config := DefaultConfig()
	return &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	// Older snapshots may lack records for newer kinds
	fresh := InitGameStateFromConfig(e.config)
	if state.PowerUps == nil {
		state.PowerUps = fresh.PowerUps
	}
	for kind, p := range fresh.PowerUps {
		if _, ok := state.PowerUps[kind]; !ok {
			state.PowerUps[kind] = p
		}
	}
	if state.Effects == nil {
		state.Effects = []Effect{}
	}
	if state.MaxEnergy <= 0 {
		state.MaxEnergy = fresh.MaxEnergy
	}
	e.state = state
	return nil
}

// GetScore returns the current (unfloored) score
func (e *GameEngine) GetScore() float64 {
	return e.state.Score
}

// GetEnergy returns the current energy level
func (e *GameEngine) GetEnergy() float64 {
	return e.state.Energy
}

// GetSpeed returns the current speed
func (e *GameEngine) GetSpeed() float64 {
	return e.state.Speed
}

// GetPlayerX returns the horizontal offset in [-1, 1]
func (e *GameEngine) GetPlayerX() float64 {
	return e.state.PlayerX
}

// Update advances the state by one frame
func (e *GameEngine) Update(now time.Time) {
	e.state.Advance(now, e.config)
}

// Activate turns on a power-up if its cost is affordable
func (e *GameEngine) Activate(kind PowerUpKind, now time.Time) bool {
	return e.state.ActivatePowerUp(kind, now)
}

// CanActivate reports whether energy covers the cost of kind
func (e *GameEngine) CanActivate(kind PowerUpKind) bool {
	p := e.state.PowerUp(kind)
	return p != nil && e.state.Energy > p.Cost()
}

// IsActive reports whether kind is currently on
func (e *GameEngine) IsActive(kind PowerUpKind) bool {
	return e.state.IsActive(kind)
}

// HandleKey applies a key-down event
func (e *GameEngine) HandleKey(key string, now time.Time) KeyResult {
	result := KeyResult{Key: key}

	switch key {
	case KeyArrowLeft:
		e.Steer(-e.config.SteerStep)
		result.Handled, result.Steered = true, true
		return result
	case KeyArrowRight:
		e.Steer(e.config.SteerStep)
		result.Handled, result.Steered = true, true
		return result
	}

	kind, ok := e.config.KindForKey(key)
	if !ok {
		return result
	}
	result.Handled = true
	result.PowerUp = kind

	threshold := e.config.PowerUps[kind].KeyThreshold
	if threshold > 0 && !(e.state.Energy > threshold) {
		result.Gated = true
		return result
	}

	result.Activated = e.Activate(kind, now)
	return result
}

// Steer nudges the car horizontally
func (e *GameEngine) Steer(delta float64) {
	e.state.Steer(delta)
}

// Touch positions the car from a touch point on a canvas of the given width
func (e *GameEngine) Touch(clientX, canvasWidth float64) bool {
	return e.state.TouchAt(clientX, canvasWidth)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a fresh state
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config)
	return nil
}

// GetEffects returns the complete activation log
func (e *GameEngine) GetEffects() []Effect {
	return e.state.Effects
}

// GetLastEffect returns the latest activation, or nil if none
func (e *GameEngine) GetLastEffect() *Effect {
	if len(e.state.Effects) == 0 {
		return nil
	}
	return &e.state.Effects[len(e.state.Effects)-1]
}
