package configs

import (
	"flag"
	"os"

	"github.com/meetflow/chat-relay/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the --config
// flag, the CHAT_RELAY_CONFIG env var, or a list of well-known candidates.
// An empty return means "defaults only".
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("CHAT_RELAY_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/chat-relay/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
