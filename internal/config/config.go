// Package config loads the hub's runtime configuration from a .env file
// and the process environment, the same two-stage dotenv-then-viper
// load the rest of the pack uses.
package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration for the daemon.
type Config struct {
	Port        string `json:"port"`
	DataDir     string `json:"dataDir"`
	SelfURL     string `json:"selfUrl"`
	RouterURL   string `json:"routerUrl"`
	ACSJobName  string `json:"acsJobName"`
	ACSURL      string `json:"acsUrl"`
	Environment string `json:"environment"`
}

// Load reads `.env`/`../.env` if present, then resolves configuration
// from the environment with defaults matching spec.md §6.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			slog.Debug("no .env file found, using process environment", "error", err)
		}
	}

	viper.AutomaticEnv()
	setDefaults()

	port := viper.GetString("CHAT_ROUTER_PORT")

	cfg := &Config{
		Port:        port,
		DataDir:     viper.GetString("CHAT_ROUTER_DATA_DIR"),
		RouterURL:   viper.GetString("CHAT_ROUTER_URL"),
		ACSJobName:  viper.GetString("ACS_JOB_NAME"),
		ACSURL:      viper.GetString("ACS_URL"),
		Environment: viper.GetString("GO_ENV"),
	}

	selfURL := viper.GetString("ROUTER_SELF_URL")
	if selfURL == "" {
		selfURL = fmt.Sprintf("http://localhost:%s", port)
	}
	cfg.SelfURL = selfURL

	slog.Info("configuration loaded",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"trigger_enabled", cfg.ACSJobName != "",
		"environment", cfg.Environment,
	)

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("CHAT_ROUTER_PORT", "3100")
	viper.SetDefault("CHAT_ROUTER_DATA_DIR", "./data")
	viper.SetDefault("CHAT_ROUTER_URL", "http://localhost:3100")
	viper.SetDefault("ACS_JOB_NAME", "")
	viper.SetDefault("ACS_URL", "http://127.0.0.1:8377")
	viper.SetDefault("ROUTER_SELF_URL", "")
	viper.SetDefault("GO_ENV", "development")
}
