package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// PowerUpConfig tunes a single power-up kind
type PowerUpConfig struct {
	DurationMs int64   `json:"duration_ms" toml:"duration_ms"`
	Multiplier float64 `json:"multiplier,omitempty" toml:"multiplier,omitempty"`
	ScoreBonus float64 `json:"score_bonus,omitempty" toml:"score_bonus,omitempty"`
	Key        string  `json:"key" toml:"key"`
	// KeyThreshold is the coarse energy gate checked by the key handler
	// before activation. Zero leaves only the cost check.
	KeyThreshold float64 `json:"key_threshold,omitempty" toml:"key_threshold,omitempty"`
}

// GameConfig represents a tuning profile loaded from JSON or TOML
type GameConfig struct {
	Name            string                        `json:"name" toml:"name"`
	Description     string                        `json:"description" toml:"description"`
	StartingEnergy  float64                       `json:"starting_energy" toml:"starting_energy"`
	MaxEnergy       float64                       `json:"max_energy" toml:"max_energy"`
	MaxSpeed        float64                       `json:"max_speed" toml:"max_speed"`
	Acceleration    float64                       `json:"acceleration" toml:"acceleration"`
	EnergyRegen     float64                       `json:"energy_regen" toml:"energy_regen"`
	SteerStep       float64                       `json:"steer_step" toml:"steer_step"`
	FrameRate       int                           `json:"frame_rate" toml:"frame_rate"`
	DefaultCarColor string                        `json:"default_car_color" toml:"default_car_color"`
	PowerUps        map[PowerUpKind]PowerUpConfig `json:"power_ups" toml:"power_ups"`
}

// TickInterval is the wall-clock spacing of frames for this profile
func (c *GameConfig) TickInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / DefaultFrameRate
	}
	return time.Second / time.Duration(c.FrameRate)
}

// KindForKey returns the power-up bound to key
func (c *GameConfig) KindForKey(key string) (PowerUpKind, bool) {
	for _, kind := range PowerUpKinds {
		if pc, ok := c.PowerUps[kind]; ok && pc.Key == key {
			return kind, true
		}
	}
	return "", false
}

// DefaultConfig returns the classic profile: the original constants,
// including the legacy per-key energy gates.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Original tuning: turbo 3s, flight 2s, rainbow 4s, legacy key gates",
		StartingEnergy:  DefaultMaxEnergy,
		MaxEnergy:       DefaultMaxEnergy,
		MaxSpeed:        DefaultMaxSpeed,
		Acceleration:    DefaultAcceleration,
		EnergyRegen:     DefaultEnergyRegen,
		SteerStep:       DefaultSteerStep,
		FrameRate:       DefaultFrameRate,
		DefaultCarColor: DefaultCarColor,
		PowerUps: map[PowerUpKind]PowerUpConfig{
			Turbo: {
				DurationMs:   TurboDurationMs,
				Multiplier:   TurboSpeedMultiplier,
				ScoreBonus:   TurboScoreBonus,
				Key:          "1",
				KeyThreshold: 20,
			},
			Flight: {
				DurationMs:   FlightDurationMs,
				Key:          "2",
				KeyThreshold: 30,
			},
			Rainbow: {
				DurationMs:   RainbowDurationMs,
				Key:          "3",
				KeyThreshold: 25,
			},
		},
	}
}

// ValidateGameConfig validates a tuning profile for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.MaxEnergy <= 0 {
		return fmt.Errorf("config validation: max_energy must be positive, got %g", config.MaxEnergy)
	}
	if config.StartingEnergy < 0 || config.StartingEnergy > config.MaxEnergy {
		return fmt.Errorf("config validation: starting_energy must be between 0 and max_energy (%g), got %g",
			config.MaxEnergy, config.StartingEnergy)
	}
	if config.MaxSpeed <= 0 {
		return fmt.Errorf("config validation: max_speed must be positive, got %g", config.MaxSpeed)
	}
	if config.Acceleration <= 0 {
		return fmt.Errorf("config validation: acceleration must be positive, got %g", config.Acceleration)
	}
	if config.EnergyRegen < 0 {
		return fmt.Errorf("config validation: energy_regen cannot be negative, got %g", config.EnergyRegen)
	}
	if config.SteerStep <= 0 || config.SteerStep > MaxPlayerX {
		return fmt.Errorf("config validation: steer_step must be in (0, 1], got %g", config.SteerStep)
	}
	if config.FrameRate <= 0 || config.FrameRate > MaxFrameRate {
		return fmt.Errorf("config validation: frame_rate must be between 1 and %d, got %d", MaxFrameRate, config.FrameRate)
	}
	if strings.TrimSpace(config.DefaultCarColor) == "" {
		return fmt.Errorf("config validation: default_car_color is required")
	}

	keys := make(map[string]PowerUpKind)
	for _, kind := range PowerUpKinds {
		pc, ok := config.PowerUps[kind]
		if !ok {
			return fmt.Errorf("config validation: power_ups.%s is required", kind)
		}
		if pc.DurationMs <= 0 {
			return fmt.Errorf("config validation: power_ups.%s.duration_ms must be positive, got %d", kind, pc.DurationMs)
		}
		if pc.Multiplier != 0 && pc.Multiplier < 1 {
			return fmt.Errorf("config validation: power_ups.%s.multiplier must be at least 1, got %g", kind, pc.Multiplier)
		}
		if pc.ScoreBonus != 0 && pc.ScoreBonus < 1 {
			return fmt.Errorf("config validation: power_ups.%s.score_bonus must be at least 1, got %g", kind, pc.ScoreBonus)
		}
		if pc.KeyThreshold < 0 {
			return fmt.Errorf("config validation: power_ups.%s.key_threshold cannot be negative, got %g", kind, pc.KeyThreshold)
		}
		if pc.Key == "" {
			return fmt.Errorf("config validation: power_ups.%s.key is required", kind)
		}
		if pc.Key == KeyArrowLeft || pc.Key == KeyArrowRight {
			return fmt.Errorf("config validation: power_ups.%s.key '%s' is reserved for steering", kind, pc.Key)
		}
		if other, dup := keys[pc.Key]; dup {
			return fmt.Errorf("config validation: key '%s' is bound to both %s and %s", pc.Key, other, kind)
		}
		keys[pc.Key] = kind
	}
	for kind := range config.PowerUps {
		if !isKnownKind(kind) {
			return fmt.Errorf("config validation: unknown power-up '%s'", kind)
		}
	}

	return nil
}

// DecodeGameConfig parses profile data; format is "json" or "toml"
func DecodeGameConfig(data []byte, format string) (*GameConfig, error) {
	var config GameConfig
	switch format {
	case "json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case "toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format '%s'", format)
	}
	return &config, nil
}

// LoadGameConfig loads and validates a profile file (.json or .toml)
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	config, err := DecodeGameConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultConfig()
	}

	powerUps := make(map[PowerUpKind]*PowerUp, len(PowerUpKinds))
	for _, kind := range PowerUpKinds {
		pc := config.PowerUps[kind]
		powerUps[kind] = &PowerUp{
			Kind:       kind,
			DurationMs: pc.DurationMs,
			Multiplier: orOne(pc.Multiplier),
			ScoreBonus: orOne(pc.ScoreBonus),
		}
	}

	return &GameState{
		Score:      0,
		PlayerX:    0,
		Speed:      0,
		Energy:     config.StartingEnergy,
		MaxEnergy:  config.MaxEnergy,
		Effects:    []Effect{},
		PowerUps:   powerUps,
		ConfigName: config.Name,
	}
}

func isKnownKind(kind PowerUpKind) bool {
	for _, k := range PowerUpKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// orOne treats an unset factor as neutral
func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
