package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// FeaturesFile is an optional YAML file seeding the backlog of rooms
	// that are joined before being created explicitly.
	FeaturesFile string
	// BacklogDB is an optional sqlite path for archiving finalized
	// backlogs. Empty disables the archive and the redirect URL.
	BacklogDB string
	// PublicURL prefixes the final_backlog redirect URL sent to clients.
	PublicURL string
}

// Load reads .env if present and falls back to process environment.
func Load() *Config {
	// A missing .env is fine: deployments set real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         os.Getenv("ADDR"),
		FeaturesFile: os.Getenv("FEATURES_FILE"),
		BacklogDB:    os.Getenv("BACKLOG_DB"),
		PublicURL:    os.Getenv("PUBLIC_URL"),
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg
}
