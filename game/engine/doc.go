// Package engine provides the core game logic for Neon Drive.
//
// The engine package implements the game mechanics including:
//   - The per-frame state updater (speed ramp, score accrual, energy regen)
//   - Timed power-ups (turbo, flight, rainbow) with lazy expiry
//   - The energy economy that pays for power-ups
//   - Keyboard and touch steering
//   - Tuning profile loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the mutable state of one
// driver, while GameConfig defines the tuning profile loaded from JSON or
// TOML files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Once per frame
//	gameEngine.Update(time.Now())
//
//	// Between frames
//	gameEngine.HandleKey("1", time.Now())
//
// Game Rules:
//
// Speed ramps up by a fixed step every frame up to a ceiling that turbo
// doubles. Score grows by the current speed each frame, with a bonus while
// turbo is on. Power-ups cost duration/100 energy and are only granted when
// energy strictly exceeds that cost. Energy regenerates slowly, but only
// while no power-up is active. Power-ups expire when the updater observes
// that their end time has passed; there are no timers.
//
// Time is always passed in by the caller so the rules are deterministic
// under test. GameEngine is not safe for concurrent use.
package engine
