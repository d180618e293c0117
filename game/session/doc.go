// Package session provides the in-memory session registry for the memory game.
//
// Each session owns one engine.GameEngine and its metadata. Sessions live
// only in memory; nothing is written to disk and a restart starts empty.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Lookups are
// case-insensitive, so "AB12" and "ab12" name the same session.
//
// Lifecycle:
//
// Delete, CleanupExpiredSessions and CloseAll close the engines they
// remove, which cancels any pending reveal-window timer.
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess.Engine.Flip(0)
//
//	removed := manager.CleanupExpiredSessions(2 * time.Hour)
package session
