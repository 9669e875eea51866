package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Real-Debrid
	RealDebridAPIKey string

	// Torrentio
	TorrentioURL string

	// Resolver cache
	CacheTTLMinutes int // Minutes before a cached availability entry expires (default: 15)

	// Cleanup
	CleanupIntervalMinutes int // Minutes between ledger reconciliation sweeps (default: 10)

	// Dev mode skips all remote mutation; submissions report an empty id
	DevMode bool

	// Server
	ServerPort string

	// Paths
	BlacklistFile string // $CONFIG_DIR/blacklist.txt
	DatabaseFile  string // $CONFIG_DIR/jellbrid.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("TORRENTIO_URL", "https://torrentio.strem.fun")
	viper.SetDefault("CACHE_TTL_MINUTES", 15)
	viper.SetDefault("CLEANUP_INTERVAL_MINUTES", 10)
	viper.SetDefault("DEV_MODE", false)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "jellbrid")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		RealDebridAPIKey: viper.GetString("REAL_DEBRID_API_KEY"),

		TorrentioURL: viper.GetString("TORRENTIO_URL"),

		CacheTTLMinutes:        viper.GetInt("CACHE_TTL_MINUTES"),
		CleanupIntervalMinutes: viper.GetInt("CLEANUP_INTERVAL_MINUTES"),

		DevMode: viper.GetBool("DEV_MODE"),

		ServerPort: viper.GetString("SERVER_PORT"),

		BlacklistFile: filepath.Join(configDir, "blacklist.txt"),
		DatabaseFile:  filepath.Join(configDir, "jellbrid.db"),

		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.RealDebridAPIKey == "" {
		return nil, fmt.Errorf("REAL_DEBRID_API_KEY is required")
	}

	return config, nil
}
