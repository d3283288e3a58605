// Package mcp exposes Neon Drive to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool calls the REST API and formats the JSON
// response as text. The tools are:
//   - create_session, list_sessions, get_session
//   - game_state: score, energy, speed, lane position and active power-ups
//   - press_key, touch, activate_power_up: input
//   - advance_frames: run headless frames
//   - set_car_color, list_effects, list_configs, game_instructions
//
// Transport Modes:
//   - HTTP: the server mounts GetMCPServer().HandleMessage on /mcp
//   - Stdio: server.ServeStdio(client.GetMCPServer()) in stdio-mcp mode
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// API errors are returned as tool error results carrying the server's
// {"error": ...} message, never as Go errors.
package mcp
