// Command validate checks the tuning profiles (*.json and *.toml) in a
// config directory. For every profile it checks:
//   - Decoding and the engine's structural validation
//   - Every power-up can be afforded from a full energy bar
//   - Every key gate can open from a full energy bar
//   - The default car color parses
//
// Valid profiles also get an informational summary: speed ramp, regen
// speed, per power-up costs and key gates that never block anything.
//
// Usage:
//
//	go run ./validate [config-dir]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
)

const defaultConfigDir = "configs"

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads a profile through the engine loader and then runs
// gameplay checks the loader does not cover.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	config, err := engine.LoadGameConfig(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if _, ok := render.ParseColor(config.DefaultCarColor); !ok {
		result.fail("default_car_color '%s' is not a recognized color", config.DefaultCarColor)
	}

	for _, kind := range engine.PowerUpKinds {
		// Activation needs energy strictly above the cost
		if cost := engine.PowerUpCost(config, kind); cost >= config.MaxEnergy {
			result.fail("%s costs %.1f energy but max_energy is %g, it can never activate", kind, cost, config.MaxEnergy)
		}
		if threshold := config.PowerUps[kind].KeyThreshold; threshold >= config.MaxEnergy {
			result.fail("%s key_threshold %g is not below max_energy %g, key '%s' can never activate it",
				kind, threshold, config.MaxEnergy, config.PowerUps[kind].Key)
		}
	}

	if !result.Valid {
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Energy: %g/%g (regen %g per frame)", config.StartingEnergy, config.MaxEnergy, config.EnergyRegen)
	if config.EnergyRegen <= 0 {
		result.info("Regen: disabled, spent energy never returns")
	} else {
		result.info("Regen: empty to full in %d frames", engine.RegenTicks(config, config.MaxEnergy))
	}
	result.info("Speed: %g max, reached after %d frames at %d fps",
		config.MaxSpeed, engine.TicksToReach(config, config.MaxSpeed), config.FrameRate)

	for _, kind := range engine.PowerUpKinds {
		pc := config.PowerUps[kind]
		line := fmt.Sprintf("%s: key '%s', %dms, cost %.1f", kind, pc.Key, pc.DurationMs, engine.PowerUpCost(config, kind))
		if pc.KeyThreshold > 0 {
			line += fmt.Sprintf(", key gate %g", pc.KeyThreshold)
			if engine.IsKeyGateRedundant(config, kind) {
				line += " (redundant, never stricter than cost)"
			}
		}
		result.info("%s", line)
	}

	return result
}

// profileFiles lists every *.json and *.toml file in dir, sorted by name
func profileFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.toml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each profile in the config directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	configDir := defaultConfigDir
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := profileFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No profiles found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
