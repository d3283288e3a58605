package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createValidConfig() *GameConfig {
	config := DefaultConfig()
	config.Name = "Test Config"
	config.Description = "A valid test configuration"
	return config
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	err := ValidateGameConfig(config)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_DefaultConfig(t *testing.T) {
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *GameConfig)
		contains string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"zero max energy", func(c *GameConfig) { c.MaxEnergy = 0 }, "max_energy must be positive"},
		{"negative starting energy", func(c *GameConfig) { c.StartingEnergy = -1 }, "starting_energy"},
		{"starting above max", func(c *GameConfig) { c.StartingEnergy = 101 }, "starting_energy"},
		{"zero max speed", func(c *GameConfig) { c.MaxSpeed = 0 }, "max_speed"},
		{"zero acceleration", func(c *GameConfig) { c.Acceleration = 0 }, "acceleration"},
		{"negative regen", func(c *GameConfig) { c.EnergyRegen = -0.1 }, "energy_regen"},
		{"zero steer step", func(c *GameConfig) { c.SteerStep = 0 }, "steer_step"},
		{"steer step too large", func(c *GameConfig) { c.SteerStep = 1.5 }, "steer_step"},
		{"zero frame rate", func(c *GameConfig) { c.FrameRate = 0 }, "frame_rate"},
		{"frame rate too high", func(c *GameConfig) { c.FrameRate = MaxFrameRate + 1 }, "frame_rate"},
		{"missing color", func(c *GameConfig) { c.DefaultCarColor = "  " }, "default_car_color"},
		{"missing power-up", func(c *GameConfig) { delete(c.PowerUps, Flight) }, "power_ups.flight is required"},
		{"zero duration", func(c *GameConfig) {
			pc := c.PowerUps[Turbo]
			pc.DurationMs = 0
			c.PowerUps[Turbo] = pc
		}, "duration_ms must be positive"},
		{"multiplier below one", func(c *GameConfig) {
			pc := c.PowerUps[Turbo]
			pc.Multiplier = 0.5
			c.PowerUps[Turbo] = pc
		}, "multiplier"},
		{"score bonus below one", func(c *GameConfig) {
			pc := c.PowerUps[Turbo]
			pc.ScoreBonus = 0.2
			c.PowerUps[Turbo] = pc
		}, "score_bonus"},
		{"negative threshold", func(c *GameConfig) {
			pc := c.PowerUps[Rainbow]
			pc.KeyThreshold = -5
			c.PowerUps[Rainbow] = pc
		}, "key_threshold"},
		{"missing key", func(c *GameConfig) {
			pc := c.PowerUps[Rainbow]
			pc.Key = ""
			c.PowerUps[Rainbow] = pc
		}, "key is required"},
		{"reserved key", func(c *GameConfig) {
			pc := c.PowerUps[Flight]
			pc.Key = KeyArrowLeft
			c.PowerUps[Flight] = pc
		}, "reserved"},
		{"duplicate key", func(c *GameConfig) {
			pc := c.PowerUps[Rainbow]
			pc.Key = "1"
			c.PowerUps[Rainbow] = pc
		}, "bound to both"},
		{"unknown power-up", func(c *GameConfig) {
			c.PowerUps["shield"] = PowerUpConfig{DurationMs: 1000, Key: "4"}
		}, "unknown power-up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got: %v", tt.contains, err)
			}
		})
	}
}

func TestDefaultConfig_LegacyValues(t *testing.T) {
	config := DefaultConfig()

	expected := map[PowerUpKind]struct {
		duration  int64
		key       string
		threshold float64
	}{
		Turbo:   {3000, "1", 20},
		Flight:  {2000, "2", 30},
		Rainbow: {4000, "3", 25},
	}
	for kind, want := range expected {
		pc := config.PowerUps[kind]
		if pc.DurationMs != want.duration {
			t.Errorf("%s: expected duration %d, got %d", kind, want.duration, pc.DurationMs)
		}
		if pc.Key != want.key {
			t.Errorf("%s: expected key %s, got %s", kind, want.key, pc.Key)
		}
		if pc.KeyThreshold != want.threshold {
			t.Errorf("%s: expected threshold %g, got %g", kind, want.threshold, pc.KeyThreshold)
		}
	}
	if config.PowerUps[Turbo].Multiplier != 2 {
		t.Errorf("Expected turbo multiplier 2, got %g", config.PowerUps[Turbo].Multiplier)
	}
	if config.MaxSpeed != 5 || config.Acceleration != 0.1 || config.EnergyRegen != 0.05 {
		t.Errorf("Unexpected ramp constants: %+v", config)
	}
}

func TestGameConfig_TickInterval(t *testing.T) {
	config := DefaultConfig()
	if got := config.TickInterval(); got != time.Second/60 {
		t.Errorf("Expected 1/60s, got %v", got)
	}
	config.FrameRate = 0
	if got := config.TickInterval(); got != time.Second/DefaultFrameRate {
		t.Errorf("Expected fallback interval, got %v", got)
	}
}

func TestGameConfig_KindForKey(t *testing.T) {
	config := DefaultConfig()
	for key, want := range map[string]PowerUpKind{"1": Turbo, "2": Flight, "3": Rainbow} {
		kind, ok := config.KindForKey(key)
		if !ok || kind != want {
			t.Errorf("Key %s: expected %s, got %s (%v)", key, want, kind, ok)
		}
	}
	if _, ok := config.KindForKey("4"); ok {
		t.Error("Expected key 4 to be unbound")
	}
}

func TestDecodeGameConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data := []byte(`{
			"name": "json",
			"description": "from json",
			"starting_energy": 50,
			"max_energy": 100,
			"max_speed": 6,
			"acceleration": 0.2,
			"energy_regen": 0.1,
			"steer_step": 0.2,
			"frame_rate": 30,
			"default_car_color": "blue",
			"power_ups": {
				"turbo": {"duration_ms": 1000, "multiplier": 3, "key": "q"},
				"flight": {"duration_ms": 1000, "key": "w"},
				"rainbow": {"duration_ms": 1000, "key": "e"}
			}
		}`)
		config, err := DecodeGameConfig(data, "json")
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if config.PowerUps[Turbo].Multiplier != 3 {
			t.Errorf("Expected multiplier 3, got %g", config.PowerUps[Turbo].Multiplier)
		}
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Expected decoded config to be valid: %v", err)
		}
	})

	t.Run("toml", func(t *testing.T) {
		data := []byte(`
name = "toml"
description = "from toml"
starting_energy = 80.0
max_energy = 100.0
max_speed = 5.0
acceleration = 0.1
energy_regen = 0.05
steer_step = 0.1
frame_rate = 60
default_car_color = "#0f0"

[power_ups.turbo]
duration_ms = 3000
multiplier = 2.0
score_bonus = 1.5
key = "1"

[power_ups.flight]
duration_ms = 2000
key = "2"

[power_ups.rainbow]
duration_ms = 4000
key = "3"
`)
		config, err := DecodeGameConfig(data, "toml")
		if err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if config.StartingEnergy != 80 {
			t.Errorf("Expected starting energy 80, got %g", config.StartingEnergy)
		}
		if config.PowerUps[Flight].DurationMs != 2000 {
			t.Errorf("Expected flight duration 2000, got %d", config.PowerUps[Flight].DurationMs)
		}
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Expected decoded config to be valid: %v", err)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := DecodeGameConfig([]byte("x"), "yaml"); err == nil {
			t.Error("Expected error for unsupported format")
		}
	})
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	validPath := filepath.Join(dir, "valid.json")
	if err := os.WriteFile(validPath, []byte(`{
		"name": "valid", "starting_energy": 100, "max_energy": 100, "max_speed": 5,
		"acceleration": 0.1, "energy_regen": 0.05, "steer_step": 0.1, "frame_rate": 60,
		"default_car_color": "#f00",
		"power_ups": {
			"turbo": {"duration_ms": 3000, "multiplier": 2, "score_bonus": 1.5, "key": "1"},
			"flight": {"duration_ms": 2000, "key": "2"},
			"rainbow": {"duration_ms": 4000, "key": "3"}
		}
	}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadGameConfig(validPath)
	if err != nil {
		t.Fatalf("Failed to load valid config: %v", err)
	}
	if config.Name != "valid" {
		t.Errorf("Expected name 'valid', got %s", config.Name)
	}

	invalidPath := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalidPath, []byte(`{"name": ""}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadGameConfig(invalidPath); err == nil {
		t.Error("Expected validation error for invalid config")
	}

	brokenPath := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(brokenPath, []byte(`{`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadGameConfig(brokenPath); err == nil {
		t.Error("Expected parse error for broken JSON")
	}

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestInitGameStateFromConfig(t *testing.T) {
	config := createValidConfig()
	config.StartingEnergy = 42
	state := InitGameStateFromConfig(config)

	if state.Energy != 42 {
		t.Errorf("Expected energy 42, got %g", state.Energy)
	}
	if state.MaxEnergy != 100 {
		t.Errorf("Expected max energy 100, got %g", state.MaxEnergy)
	}
	if state.Score != 0 || state.Speed != 0 || state.PlayerX != 0 {
		t.Errorf("Expected zeroed motion, got score=%g speed=%g x=%g", state.Score, state.Speed, state.PlayerX)
	}
	if len(state.PowerUps) != len(PowerUpKinds) {
		t.Fatalf("Expected %d power-ups, got %d", len(PowerUpKinds), len(state.PowerUps))
	}
	if state.PowerUps[Flight].Multiplier != 1 {
		t.Errorf("Expected unset multiplier to default to 1, got %g", state.PowerUps[Flight].Multiplier)
	}
	if state.PowerUps[Turbo].ScoreBonus != 1.5 {
		t.Errorf("Expected turbo score bonus 1.5, got %g", state.PowerUps[Turbo].ScoreBonus)
	}
	if state.ConfigName != config.Name {
		t.Errorf("Expected config name %s, got %s", config.Name, state.ConfigName)
	}

	// nil falls back to the classic profile
	state = InitGameStateFromConfig(nil)
	if state.Energy != DefaultMaxEnergy || state.ConfigName != "classic" {
		t.Errorf("Expected classic defaults, got energy=%g config=%s", state.Energy, state.ConfigName)
	}
}
