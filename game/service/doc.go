// Package service provides the business logic layer for the memory game.
//
// The service sits between the transports (REST, WebSocket, MCP) and the
// engine. It owns no game rules; it resolves presets, creates sessions
// through a SessionManager, classifies flips and pushes updates to a
// Notifier.
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//	gameService.SetNotifier(hub)
//
//	info, err := gameService.CreateSession(ctx, service.CreateOptions{ConfigID: "easy"})
//	result, err := gameService.Flip(ctx, info.ID, 3)
//	// result.Outcome is ignored, revealed, match or mismatch
//
// Mismatched pairs turn face-down when the engine's reveal window expires.
// That happens outside any request, so the service subscribes to each
// engine and forwards the hide and victory to the notifier.
//
// Each session keeps a flip history for the current deal. Unlike the
// snapshot, history records keep the face key of every accepted flip.
package service
