// Package config manages memory game presets stored as JSON files.
//
// Each file in the config directory is one preset: the pair count dealt,
// whether attempts are counted, the reveal window for mismatched pairs, the
// card size shown by clients and the pool of face keys cards are drawn from.
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	easy, err := manager.LoadConfig("easy")
//	presets, err := manager.ListConfigs()
//
// The default preset is "classic" when present, otherwise the first valid
// file, otherwise engine.DefaultGameConfig. Loaded presets are cached until
// RefreshCache or ReloadConfig is called.
package config
