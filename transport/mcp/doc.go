// Package mcp exposes the memory game to MCP clients.
//
// Client registers tools on a mark3labs/mcp-go server and answers every
// tool call by calling the REST API, so an agent plays exactly the game a
// browser would see:
//   - create_session, list_sessions, get_session
//   - board_state, describe_card
//   - flip_card, flip_pair
//   - reset_game, flip_history
//   - list_configs, game_instructions
//
// Boards are rendered row by row with "??" for face-down cards, the face
// key for face-up cards and "[key]" for matched ones.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
