package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.Key = "test-key"
	cfg.API.HTTPTimeout = 5 * time.Second
	cfg.API.UserAgent = "headlines-test/1.0"
	cfg.Database.Path = ":memory:" // callers that need a store open their own under t.TempDir()
	cfg.Database.SearchIndex = ""
	cfg.Log.Level = "off"
	cfg.Log.Path = ""
	return cfg
}
