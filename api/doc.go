// Package api provides the HTTP REST API for the memory game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id", "pair_count"}, both optional)
//   - GET /api/sessions - List sessions (sort=created|accessed, order=asc|desc, limit)
//   - GET /api/sessions/{id} - Get a session with its snapshot
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/flip - Flip a card ({"index": 3})
//   - POST /api/sessions/{id}/reset - Deal a new game ({"config_id", "pair_count"}, both optional)
//   - GET /api/sessions/{id}/history - Accepted flips (page, limit, order)
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get a preset
//   - POST /api/configs?id=name - Save a preset
//
// Live updates:
//   - GET /ws?session={id} - WebSocket stream of snapshots and game events
//
// Snapshots never carry the face key of a face-down card. A flip that the
// game ignores still answers 200 with "accepted": false.
//
// Errors are returned as JSON:
//
//	{"error": "session ab12: session not found"}
//
// Unknown sessions and presets answer 404, invalid configurations 400.
package api
