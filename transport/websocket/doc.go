// Package websocket streams rendered frames to browser clients and carries
// their input back to the game.
//
// The Hub keeps the connected clients grouped by session ID. Clients connect
// with ?session=ID and receive newline separated JSON messages:
//
//	{"session_id":"ab12","event":"frame","frame":{...}}
//	{"session_id":"ab12","event":"power_up","data":{...}}
//	{"session_id":"ab12","event":"preferences","data":{"carColor":"#0af"}}
//
// Frames come from the session's frame loop through BroadcastFrame, which
// drops a frame instead of blocking when the hub is busy. Other events are
// always delivered unless the hub has shut down.
//
// Clients send one JSON object per message:
//
//	{"type":"key","key":"ArrowLeft"}
//	{"type":"touch","client_x":412}
//	{"type":"resize","width":1024,"height":768}
//	{"type":"color","color":"#0af"}
//
// Unknown types and malformed JSON are ignored. Known messages are passed to
// the InputHandler installed with SetInputHandler.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.SetInputHandler(func(sessionID string, msg websocket.ClientMessage) { ... })
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// A client whose send buffer fills up is dropped. Cancelling the context
// given to Run closes every connection.
package websocket
