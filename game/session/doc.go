// Package session provides session management for Neon Drive.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - File-backed persistence of game state, viewport and preferences
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// FilePersistence stores each session as <id>.json in the sessions directory
// and rebuilds the engine from the session's tuning profile on load.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Lookups are
// case-insensitive. IDs containing path separators, dots or spaces are
// rejected.
//
// Concurrency:
//
// The manager guards its map with a RWMutex. Game state inside a session is
// guarded by the session's own lock: UpdateLastAccessed expects the caller
// to hold it, while Save and SaveAllSessions take it themselves.
//
// Usage:
//
//	persistence, _ := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// On shutdown
//	manager.SaveAllSessions()
package session
