package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

var (
	ErrUnknownPowerUp  = errors.New("unknown power-up")
	ErrInvalidViewport = errors.New("invalid viewport")
	ErrInvalidFrames   = errors.New("invalid frame count")
)

// Clock supplies wall-clock time to the service
type Clock func() time.Time

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	now      Clock
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return NewGameServiceWithClock(sessions, configs, time.Now)
}

// NewGameServiceWithClock creates a game service reading time from clock
func NewGameServiceWithClock(sessions SessionManager, configs ConfigManager, clock Clock) GameService {
	if clock == nil {
		clock = time.Now
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      clock,
	}
}

// getConfigID returns the config_id for a given display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// withSession runs fn under the session lock. Mutating calls pass
// touch=true to refresh the access time and persist the session.
func (s *gameServiceImpl) withSession(sessionID string, touch bool, fn func(sess *Session, now time.Time) error) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	return s.runLocked(sess, sessionID, touch, fn)
}

// withLoadedSession is withSession for sessions already in memory. The
// frame loop uses it so an evicted session is never restored from storage.
func (s *gameServiceImpl) withLoadedSession(sessionID string, fn func(sess *Session, now time.Time) error) error {
	sess, err := s.sessions.Lookup(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	return s.runLocked(sess, sessionID, false, fn)
}

func (s *gameServiceImpl) runLocked(sess *Session, sessionID string, touch bool, fn func(sess *Session, now time.Time) error) error {
	sess.Lock()
	defer sess.Unlock()

	if err := fn(sess, sess.Now(s.now())); err != nil {
		return err
	}

	if touch {
		if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
			log.Warn("failed to update session access", "session", sessionID, "err", err)
		}
	}
	return nil
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Viewport:       sess.Viewport,
		Preferences:    sess.Preferences,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	configID := configName

	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let the session manager generate the ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()

	log.Info("session created", "id", sess.ID, "config", configID)
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	var info *SessionInfo
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		info = sessionInfo(sess)
		return nil
	})
	return info, err
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	log.Info("session deleted", "id", sessionID)
	return nil
}

// Tick runs frames update+render steps back to back, advancing the
// session clock by one frame interval per step
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, frames int) (*TickResult, error) {
	if frames < 1 || frames > engine.MaxTickFramesPerCall {
		return nil, fmt.Errorf("%w: frames must be between 1 and %d, got %d",
			ErrInvalidFrames, engine.MaxTickFramesPerCall, frames)
	}

	var result *TickResult
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		state := sess.Engine.GetState()
		interval := sess.Config.TickInterval()
		startScore, startEnergy := state.Score, state.Energy

		var expired []engine.PowerUpKind
		at := now
		for i := 0; i < frames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if i > 0 {
				at = at.Add(interval)
			}
			before := state.ActiveKinds()
			sess.Engine.Update(at)
			for _, kind := range before {
				if !state.IsActive(kind) {
					expired = append(expired, kind)
				}
			}
		}

		result = &TickResult{
			FramesRun:   frames,
			ScoreDelta:  state.Score - startScore,
			EnergyDelta: state.Energy - startEnergy,
			Expired:     expired,
			SimTime:     at,
			GameState:   state.Clone(),
			Frame:       sess.Render(at),
		}
		return nil
	})
	return result, err
}

// PressKey applies a key-down event
func (s *gameServiceImpl) PressKey(ctx context.Context, sessionID, key string) (*KeyResult, error) {
	var result *KeyResult
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		energyBefore := sess.Engine.GetEnergy()
		kr := sess.Engine.HandleKey(key, now)
		result = &KeyResult{
			KeyResult: kr,
			Message:   keyMessage(sess.Config, kr, energyBefore),
			GameState: sess.Engine.GetState().Clone(),
		}
		return nil
	})
	return result, err
}

func keyMessage(config *engine.GameConfig, kr engine.KeyResult, energy float64) string {
	switch {
	case !kr.Handled:
		return fmt.Sprintf("key '%s' is not bound", kr.Key)
	case kr.Steered && kr.Key == engine.KeyArrowLeft:
		return "steered left"
	case kr.Steered:
		return "steered right"
	case kr.Activated:
		return fmt.Sprintf("%s activated", kr.PowerUp)
	case kr.Gated:
		return fmt.Sprintf("%s blocked: energy %.1f must exceed key threshold %.1f",
			kr.PowerUp, energy, config.PowerUps[kr.PowerUp].KeyThreshold)
	default:
		return fmt.Sprintf("%s needs more than %.1f energy (have %.1f)",
			kr.PowerUp, engine.PowerUpCost(config, kr.PowerUp), energy)
	}
}

// Touch positions the car from a touch on the session's viewport
func (s *gameServiceImpl) Touch(ctx context.Context, sessionID string, clientX float64) (*TouchResult, error) {
	var result *TouchResult
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		applied := sess.Engine.Touch(clientX, sess.Viewport.Width)
		result = &TouchResult{
			Applied:   applied,
			PlayerX:   sess.Engine.GetPlayerX(),
			GameState: sess.Engine.GetState().Clone(),
		}
		return nil
	})
	return result, err
}

// ActivatePowerUp requests a power-up directly; only the cost check applies
func (s *gameServiceImpl) ActivatePowerUp(ctx context.Context, sessionID string, kind engine.PowerUpKind) (*PowerUpResult, error) {
	if !isKnownKind(kind) {
		return nil, fmt.Errorf("%w: '%s' (valid: %v)", ErrUnknownPowerUp, kind, engine.PowerUpKinds)
	}

	var result *PowerUpResult
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		cost := engine.PowerUpCost(sess.Config, kind)
		energyBefore := sess.Engine.GetEnergy()
		activated := sess.Engine.Activate(kind, now)
		state := sess.Engine.GetState()

		result = &PowerUpResult{
			Kind:      kind,
			Activated: activated,
			Cost:      cost,
			Energy:    state.Energy,
			GameState: state.Clone(),
		}
		if activated {
			end := state.PowerUp(kind).EndTime
			result.EndsAt = &end
			last := *sess.Engine.GetLastEffect()
			result.Effect = &last
			result.Message = fmt.Sprintf("%s active for %dms", kind, state.PowerUp(kind).DurationMs)
		} else {
			result.Message = fmt.Sprintf("%s needs more than %.1f energy (have %.1f)", kind, cost, energyBefore)
		}
		return nil
	})
	return result, err
}

// Resize records the client's canvas size
func (s *gameServiceImpl) Resize(ctx context.Context, sessionID string, viewport render.Viewport) (render.Viewport, error) {
	if err := viewport.Validate(); err != nil {
		return render.Viewport{}, fmt.Errorf("%w: %v", ErrInvalidViewport, err)
	}

	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		sess.Viewport = viewport
		return nil
	})
	if err != nil {
		return render.Viewport{}, err
	}
	return viewport, nil
}

// SetCarColor stores the carColor preference. Values the renderer cannot
// parse are kept; the renderer falls back to red for them.
func (s *gameServiceImpl) SetCarColor(ctx context.Context, sessionID, color string) (*Preferences, error) {
	var prefs *Preferences
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		sess.Preferences.CarColor = strings.TrimSpace(color)
		p := sess.Preferences
		prefs = &p
		return nil
	})
	return prefs, err
}

// GetPreferences returns the stored preferences
func (s *gameServiceImpl) GetPreferences(ctx context.Context, sessionID string) (*Preferences, error) {
	var prefs *Preferences
	err := s.withSession(sessionID, false, func(sess *Session, now time.Time) error {
		p := sess.Preferences
		prefs = &p
		return nil
	})
	return prefs, err
}

// Step runs one frame of the live loop on a session in memory. A watched
// session stays fresh, but the frame is not persisted.
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string) (*render.Frame, error) {
	var frame *render.Frame
	err := s.withLoadedSession(sessionID, func(sess *Session, now time.Time) error {
		sess.Engine.Update(now)
		sess.LastAccessedAt = time.Now()
		frame = sess.Render(now)
		return nil
	})
	return frame, err
}

// FrameInterval returns the frame spacing of a session in memory
func (s *gameServiceImpl) FrameInterval(ctx context.Context, sessionID string) (time.Duration, error) {
	var interval time.Duration
	err := s.withLoadedSession(sessionID, func(sess *Session, now time.Time) error {
		interval = sess.Config.TickInterval()
		return nil
	})
	return interval, err
}

// GetGameState retrieves a snapshot of the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.withSession(sessionID, true, func(sess *Session, now time.Time) error {
		state = sess.Engine.GetState().Clone()
		return nil
	})
	return state, err
}

// GetFrame renders the current state without updating it
func (s *gameServiceImpl) GetFrame(ctx context.Context, sessionID string) (*render.Frame, error) {
	var frame *render.Frame
	err := s.withSession(sessionID, false, func(sess *Session, now time.Time) error {
		frame = sess.Render(now)
		return nil
	})
	return frame, err
}

// GetEffects returns a page of the effects log
func (s *gameServiceImpl) GetEffects(ctx context.Context, sessionID string, opts EffectsOptions) (*EffectsResponse, error) {
	var effects []engine.Effect
	err := s.withSession(sessionID, false, func(sess *Session, now time.Time) error {
		entries := sess.Engine.GetEffects()
		effects = make([]engine.Effect, len(entries))
		copy(effects, entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := len(effects)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	page := []engine.Effect{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				page = append(page, effects[i])
			}
		} else {
			page = append(page, effects[start:end]...)
		}
	}

	return &EffectsResponse{
		Effects:      page,
		TotalEffects: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available tuning profiles
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific tuning profile
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a tuning profile to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func isKnownKind(kind engine.PowerUpKind) bool {
	for _, k := range engine.PowerUpKinds {
		if k == kind {
			return true
		}
	}
	return false
}
