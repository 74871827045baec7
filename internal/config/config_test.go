package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CHAINCHAT_API_URL", "CHAINCHAT_API_KEY", "CHAINCHAT_APP_ID",
		"CHAINCHAT_JWKS_URL", "CHAINCHAT_CHAIN_IDS", "CHAINCHAT_NETWORK",
		"CHAINCHAT_DB_PATH", "CHAINCHAT_LOG_DIR", "CHAINCHAT_LOG_MAX_FILES",
		"CHAINCHAT_DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.APIBaseURL != "https://api.chainchat.dev" {
		t.Errorf("unexpected default base url: %q", cfg.APIBaseURL)
	}
	if len(cfg.DefaultChainIDs) != 1 || cfg.DefaultChainIDs[0] != "1" {
		t.Errorf("unexpected default chain ids: %v", cfg.DefaultChainIDs)
	}
	if cfg.DefaultNetwork != "mainnet" {
		t.Errorf("unexpected default network: %q", cfg.DefaultNetwork)
	}
	if cfg.LogMaxFiles != 10 {
		t.Errorf("unexpected default log max files: %d", cfg.LogMaxFiles)
	}
	if cfg.Debug {
		t.Error("debug must default to false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHAINCHAT_API_URL", "https://staging.chainchat.dev")
	t.Setenv("CHAINCHAT_API_KEY", "key-123")
	t.Setenv("CHAINCHAT_CHAIN_IDS", "1, 10 ,8453")
	t.Setenv("CHAINCHAT_DEBUG", "true")

	cfg := Load()

	if cfg.APIBaseURL != "https://staging.chainchat.dev" {
		t.Errorf("unexpected base url: %q", cfg.APIBaseURL)
	}
	if cfg.APIKey != "key-123" {
		t.Errorf("unexpected api key: %q", cfg.APIKey)
	}
	if len(cfg.DefaultChainIDs) != 3 || cfg.DefaultChainIDs[1] != "10" {
		t.Errorf("chain id list not split and trimmed: %v", cfg.DefaultChainIDs)
	}
	if !cfg.Debug {
		t.Error("debug not picked up from env")
	}
}

func TestApplyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_key: file-key\ndefault_network: testnet\nlog_max_files: 3\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		APIBaseURL:     "https://api.chainchat.dev",
		APIKey:         "env-key",
		DefaultNetwork: "mainnet",
		LogMaxFiles:    10,
	}
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}

	if cfg.APIKey != "file-key" {
		t.Errorf("file value must win, got %q", cfg.APIKey)
	}
	if cfg.DefaultNetwork != "testnet" {
		t.Errorf("file value must win, got %q", cfg.DefaultNetwork)
	}
	if cfg.LogMaxFiles != 3 {
		t.Errorf("file value must win, got %d", cfg.LogMaxFiles)
	}
	// Fields the file leaves unset keep their env values.
	if cfg.APIBaseURL != "https://api.chainchat.dev" {
		t.Errorf("unset file field must not clobber env value, got %q", cfg.APIBaseURL)
	}
}

func TestApplyFileMissingIsNotAnError(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("missing config file must be tolerated, got %v", err)
	}
}

func TestApplyFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_key: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := (&Config{}).ApplyFile(path); err == nil {
		t.Error("malformed yaml must be an error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIBaseURL:      "https://api.chainchat.dev",
			APIKey:          "key",
			DefaultChainIDs: []string{"1"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.APIBaseURL = "" }, true},
		{"bad base url", func(c *Config) { c.APIBaseURL = "not a url" }, true},
		{"missing api key", func(c *Config) { c.APIKey = "" }, true},
		{"non-numeric chain id", func(c *Config) { c.DefaultChainIDs = []string{"base"} }, true},
		{"optional jwks url valid", func(c *Config) { c.JWKSURL = "https://auth.example/jwks.json" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
