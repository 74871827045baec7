package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Chat service
	APIBaseURL string `yaml:"api_base_url"`
	APIKey     string `yaml:"api_key"`
	AppID      string `yaml:"app_id"`
	JWKSURL    string `yaml:"jwks_url"` // Optional: enables local token verification

	// Default context applied to new sessions
	DefaultChainIDs []string `yaml:"default_chain_ids"`
	DefaultNetwork  string   `yaml:"default_network"`

	// Local state
	DBPath      string `yaml:"db_path"`  // sqlite archive for offline replay
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`

	// Debug flags
	Debug bool `yaml:"debug"`
}

// Load builds a Config from the environment.
func Load() *Config {
	return &Config{
		APIBaseURL:      getEnv("CHAINCHAT_API_URL", "https://api.chainchat.dev"),
		APIKey:          getEnv("CHAINCHAT_API_KEY", ""),
		AppID:           getEnv("CHAINCHAT_APP_ID", ""),
		JWKSURL:         getEnv("CHAINCHAT_JWKS_URL", ""),
		DefaultChainIDs: splitList(getEnv("CHAINCHAT_CHAIN_IDS", "1")),
		DefaultNetwork:  getEnv("CHAINCHAT_NETWORK", "mainnet"),
		DBPath:          getEnv("CHAINCHAT_DB_PATH", defaultDBPath()),
		LogDir:          getEnv("CHAINCHAT_LOG_DIR", "logs"),
		LogMaxFiles:     getEnvInt("CHAINCHAT_LOG_MAX_FILES", 10),
		Debug:           getEnv("CHAINCHAT_DEBUG", "false") == "true",
	}
}

// ApplyFile overlays settings from a YAML config file. Missing file is not
// an error; env values win only where the file leaves a field unset.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	overlay := Config{}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.APIBaseURL != "" {
		c.APIBaseURL = overlay.APIBaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.AppID != "" {
		c.AppID = overlay.AppID
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if len(overlay.DefaultChainIDs) > 0 {
		c.DefaultChainIDs = overlay.DefaultChainIDs
	}
	if overlay.DefaultNetwork != "" {
		c.DefaultNetwork = overlay.DefaultNetwork
	}
	if overlay.DBPath != "" {
		c.DBPath = overlay.DBPath
	}
	if overlay.LogDir != "" {
		c.LogDir = overlay.LogDir
	}
	if overlay.LogMaxFiles > 0 {
		c.LogMaxFiles = overlay.LogMaxFiles
	}
	if overlay.Debug {
		c.Debug = true
	}
	return nil
}

// Validate checks the config before the client starts.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIBaseURL, validation.Required, is.URL),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.DefaultChainIDs, validation.Each(is.Digit)),
		validation.Field(&c.JWKSURL, is.URL),
	)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chainchat.db"
	}
	return home + "/.chainchat/archive.db"
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
