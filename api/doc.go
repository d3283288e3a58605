// Package api provides the HTTP REST API for Neon Drive.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "arcade"})
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Session info
//   - DELETE /api/sessions/{id} - Delete a session and stop its frame loop
//
// Game Operations:
//   - GET /api/sessions/{id}/state - GameState snapshot
//   - GET /api/sessions/{id}/frame - Render the current state without advancing it
//   - POST /api/sessions/{id}/tick - Run {"frames": N} update+render steps
//   - POST /api/sessions/{id}/key - Press a key ({"key": "ArrowLeft"})
//   - POST /api/sessions/{id}/touch - Steer to a touch point ({"client_x": 412})
//   - POST /api/sessions/{id}/powerups/{kind} - Activate turbo, flight or rainbow
//   - PUT /api/sessions/{id}/viewport - Set the canvas size
//   - GET|PUT /api/sessions/{id}/preferences/color - Car color preference
//   - GET /api/sessions/{id}/effects - Effects log (page, limit, order)
//
// Configuration:
//   - GET /api/configs - List tuning profiles
//   - POST /api/configs - Save a profile (?id= picks the file name)
//   - GET /api/configs/{name} - Load a profile
//
// Other:
//   - GET /health - Liveness
//   - GET /ws?session=ID - WebSocket frame stream and input; starts the frame loop
//   - GET / - Embedded browser client
//
// Errors are returned as JSON with a status derived from the error chain:
// 404 for unknown sessions and profiles, 400 for malformed bodies and
// rejected arguments, 500 otherwise.
//
//	{"error": "session not found: ab12"}
//
// Sessions created over REST are headless and advance only through tick
// until a WebSocket client attaches.
//
// Input received over the WebSocket goes through the same service calls as
// the REST endpoints. Power-up activations and color changes are pushed to
// the session's connected clients.
package api
