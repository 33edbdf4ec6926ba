package cli

import (
	"errors"
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	PlayerID  string
	Output    string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("VINYL_SERVER", "http://localhost:8080"),
		PlayerID:  os.Getenv("VINYL_PLAYER"),
		Output:    "text",
	}
}

// RequirePlayer returns the acting player ID or an error telling the user how to set it
func (c *Config) RequirePlayer() (string, error) {
	if c.PlayerID == "" {
		return "", errors.New("no player: pass --player or set VINYL_PLAYER")
	}
	return c.PlayerID, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
