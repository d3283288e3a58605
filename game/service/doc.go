// Package service provides the business logic layer for Neon Drive.
//
// The service package implements:
//   - Multi-session game management
//   - Tuning profile selection at session creation
//   - Key, touch and direct power-up input
//   - Headless ticking and live frame stepping
//   - Per-session viewport and car color preferences
//   - Effects log pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages tuning profile loading and saving.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its engine, and every call runs under
// the session lock, so the live frame loop and input from other clients
// never interleave inside a frame.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	// Create a new session
//	sessionInfo, err := gameService.CreateSession(ctx, "arcade")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Press turbo and run one second of frames
//	gameService.PressKey(ctx, sessionInfo.ID, "1")
//	result, err := gameService.Tick(ctx, sessionInfo.ID, 60)
//
// Timekeeping:
//
// Tick advances a session clock by the profile's frame interval per frame
// without waiting. Later calls read max(wall clock, last frame), so power-up
// end times stay consistent after a headless run.
package service
