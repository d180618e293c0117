// Package strategy contains an automated player for the memory game.
//
// Memory remembers every face it has seen and always completes a pair it
// knows before exploring an unseen card. It drives cmd/autoplay over the
// REST API and Simulate, which plays whole games in-process on a manual
// clock to summarise how hard a configuration is.
package strategy
