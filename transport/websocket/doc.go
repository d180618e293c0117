// Package websocket pushes memory game updates to browser viewers.
//
// A Hub groups connections by session ID. It implements service.Notifier,
// so the game service pushes every snapshot change to it, including the
// delayed hide of a mismatched pair and the victory event.
//
// Message Protocol:
//
// Every frame is one JSON Message:
//   - {"session_id": "ab12", "event": "state_update", "snapshot": {...}}
//   - {"session_id": "ab12", "event": "hide", "data": {"type": "hide", ...}}
//
// Snapshots never carry the face key of a face-down card. Viewers cannot
// send commands; inbound frames are read only to detect disconnects.
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//	gameService.SetNotifier(hub)
//
//	// in an HTTP handler
//	hub.ServeWS(w, r, sessionID, &snapshot)
package websocket
