// Package render turns a game state into a list of draw operations.
//
// Rendering is a pure function of the state, the viewport, the current
// time and the player's car color preference. The resulting Frame is
// consumed by the browser client over WebSocket, by the REST frame
// endpoint and by the desktop client, which replays the operations
// onto an Ebiten image.
//
// Colors are parsed from #rgb, #rrggbb, rgb()/rgba() or CSS color names
// and serialize to JSON as rgba() strings that a canvas fillStyle accepts
// directly.
package render
