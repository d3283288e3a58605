package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validProfile = `{
	"name": "test",
	"description": "Test profile",
	"starting_energy": 100,
	"max_energy": 100,
	"max_speed": 5,
	"acceleration": 0.1,
	"energy_regen": 0.05,
	"steer_step": 0.1,
	"frame_rate": 60,
	"default_car_color": "#f00",
	"power_ups": {
		"turbo": {"duration_ms": 3000, "multiplier": 2, "key": "1", "key_threshold": 20},
		"flight": {"duration_ms": 2000, "key": "2", "key_threshold": 30},
		"rainbow": {"duration_ms": 4000, "key": "3"}
	}
}`

// writeProfile writes content to dir/name and returns the path
func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeProfile(t, t.TempDir(), "test.json", validProfile)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}

	for _, want := range []string{
		"✓ Name: test",
		"empty to full in 2000 frames",
		"reached after 50 frames at 60 fps",
		"turbo: key '1', 3000ms, cost 30.0, key gate 20 (redundant",
		"flight: key '2', 2000ms, cost 20.0, key gate 30",
		"rainbow: key '3', 4000ms, cost 40.0",
	} {
		if !hasMessage(result.Errors, want) {
			t.Errorf("Expected info %q in %v", want, result.Errors)
		}
	}
	if hasMessage(result.Errors, "flight: key '2', 2000ms, cost 20.0, key gate 30 (redundant") {
		t.Error("Flight gate is stricter than its cost and should not be flagged redundant")
	}
}

func TestValidateConfig_TOML(t *testing.T) {
	profile := `
name = "toml-test"
starting_energy = 50
max_energy = 100
max_speed = 4
acceleration = 0.5
energy_regen = 0
steer_step = 0.2
frame_rate = 30
default_car_color = "hotpink"

[power_ups.turbo]
duration_ms = 1000
key = "q"

[power_ups.flight]
duration_ms = 1000
key = "w"

[power_ups.rainbow]
duration_ms = 1000
key = "e"
`
	path := writeProfile(t, t.TempDir(), "test.toml", profile)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !hasMessage(result.Errors, "Regen: disabled") {
		t.Errorf("Expected disabled regen info, got %v", result.Errors)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if len(result.Errors) == 0 {
		t.Error("Expected an error message")
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{
			name:    "malformed JSON",
			replace: [2]string{`"name": "test",`, `"name": "test", invalid`},
			want:    "failed to parse config file",
		},
		{
			name:    "starting energy above max",
			replace: [2]string{`"starting_energy": 100`, `"starting_energy": 150`},
			want:    "starting_energy",
		},
		{
			name:    "power-up costs the whole bar",
			replace: [2]string{`"duration_ms": 4000`, `"duration_ms": 10000`},
			want:    "rainbow costs 100.0 energy but max_energy is 100",
		},
		{
			name:    "key gate can never open",
			replace: [2]string{`"key_threshold": 30`, `"key_threshold": 100`},
			want:    "flight key_threshold 100 is not below max_energy 100",
		},
		{
			name:    "unparseable car color",
			replace: [2]string{`"#f00"`, `"not-a-color"`},
			want:    "default_car_color 'not-a-color'",
		},
		{
			name:    "steering key bound to a power-up",
			replace: [2]string{`"key": "2"`, `"key": "ArrowLeft"`},
			want:    "reserved for steering",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := strings.Replace(validProfile, tt.replace[0], tt.replace[1], 1)
			if profile == validProfile {
				t.Fatalf("Replacement %q did not apply", tt.replace[0])
			}
			path := writeProfile(t, t.TempDir(), "bad.json", profile)

			result := validateConfig(path)
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasMessage(result.Errors, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
			if hasMessage(result.Errors, "✓") {
				t.Errorf("Invalid result should not carry info lines: %v", result.Errors)
			}
		})
	}
}

func TestProfileFiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "b.toml", "")
	writeProfile(t, dir, "a.json", "")
	writeProfile(t, dir, "notes.txt", "")

	files, err := profileFiles(dir)
	if err != nil {
		t.Fatalf("profileFiles failed: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if strings.Join(names, ",") != "a.json,b.toml" {
		t.Errorf("Unexpected profile files %v", names)
	}
}

func TestBundledProfilesAreValid(t *testing.T) {
	files, err := profileFiles(filepath.Join("..", defaultConfigDir))
	if err != nil {
		t.Fatalf("profileFiles failed: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected bundled profiles")
	}

	for _, file := range files {
		if result := validateConfig(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
