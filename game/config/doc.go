// Package config provides tuning profile management for Neon Drive.
//
// The config package handles:
//   - Loading tuning profiles from JSON or TOML files
//   - Profile validation through the engine rules
//   - Default profile selection with a built-in classic fallback
//   - Profile discovery, listing and saving
//   - Cache invalidation when files change on disk
//
// Profile Format:
//
// Profiles live in the configs directory as <id>.json or <id>.toml. Each
// profile defines the energy economy (starting and max energy, regen), the
// speed ramp (max speed, acceleration), steering, frame rate, the default
// car color and the duration, multipliers, key binding and key threshold
// of every power-up.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific profile
//	gameConfig, err := manager.LoadConfig("arcade")
//
//	// Get default profile
//	defaultConfig := manager.GetDefault()
//
//	// Reload profiles as they are edited
//	manager.Watch(ctx)
package config
