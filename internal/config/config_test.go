package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.json")
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected os.IsNotExist error, got: %v", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := os.WriteFile(configPath, []byte("not valid json"), 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{
		"bot_token": "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11",
		"allowed_users": ["user1", "user2", "user3"]
	}`

	err := os.WriteFile(configPath, []byte(jsonContent), 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BotToken != "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11" {
		t.Errorf("expected bot_token '123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11', got '%s'", cfg.BotToken)
	}

	if len(cfg.AllowedUsers) != 3 {
		t.Fatalf("expected 3 allowed_users, got %d", len(cfg.AllowedUsers))
	}

	expectedUsers := []string{"user1", "user2", "user3"}
	for i, user := range expectedUsers {
		if cfg.AllowedUsers[i] != user {
			t.Errorf("expected allowed_users[%d] = '%s', got '%s'", i, user, cfg.AllowedUsers[i])
		}
	}
}

func TestLoad_EmptyAllowedUsers(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	jsonContent := `{
		"bot_token": "test-token",
		"allowed_users": []
	}`

	err := os.WriteFile(configPath, []byte(jsonContent), 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BotToken != "test-token" {
		t.Errorf("expected bot_token 'test-token', got '%s'", cfg.BotToken)
	}

	if len(cfg.AllowedUsers) != 0 {
		t.Errorf("expected empty allowed_users, got %d users", len(cfg.AllowedUsers))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"bot_token": "t", "backend_url": "http://localhost:3000/"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://localhost:3000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.CatalogURL != DefaultCatalogURL {
		t.Errorf("catalog_url = %q", cfg.CatalogURL)
	}
	if cfg.Session.Driver != "memory" || cfg.Session.RedisPrefix != DefaultRedisPrefix {
		t.Errorf("session defaults = %+v", cfg.Session)
	}
	if cfg.Results.Limit != 10 || cfg.ResultsDelay().Milliseconds() != 300 {
		t.Errorf("results defaults = %+v", cfg.Results)
	}
	if cfg.LogMaxSize != DefaultLogMaxSize {
		t.Errorf("log_max_size = %d", cfg.LogMaxSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_NestedSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"bot_token": "t",
		"backend_url": "https://backend.example",
		"session": {"driver": "redis", "redis_addr": "localhost:6379", "redis_db": 2},
		"results": {"limit": 5, "delay_ms": -1},
		"notify": {"listen_addr": ":8081", "token": "secret"}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Session.Driver != "redis" || cfg.Session.RedisAddr != "localhost:6379" || cfg.Session.RedisDB != 2 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Results.Limit != 5 || cfg.ResultsDelay() != MinResultsDelay*time.Millisecond {
		t.Errorf("results = %+v", cfg.Results)
	}
	if cfg.Notify.ListenAddr != ":8081" || cfg.Notify.Token != "secret" {
		t.Errorf("notify = %+v", cfg.Notify)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("BACKEND_URL", "https://env.example")
	t.Setenv("ALLOWED_USERS", "alice, bob ,")
	t.Setenv("SESSION_DRIVER", "sqlite")
	t.Setenv("RESULTS_LIMIT", "3")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("LOG_MAX_SIZE", "2048")

	cfg, err := Load(writeConfig(t, `{"bot_token": "file-token", "log_max_size": 512, "session": {"redis_db": 4}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BotToken != "env-token" {
		t.Errorf("bot_token = %q", cfg.BotToken)
	}
	if cfg.BackendURL != "https://env.example" {
		t.Errorf("backend_url = %q", cfg.BackendURL)
	}
	if len(cfg.AllowedUsers) != 2 || cfg.AllowedUsers[0] != "alice" || cfg.AllowedUsers[1] != "bob" {
		t.Errorf("allowed_users = %v", cfg.AllowedUsers)
	}
	if cfg.Session.Driver != "sqlite" || cfg.Results.Limit != 3 {
		t.Errorf("unexpected cfg %+v", cfg)
	}
	if cfg.Session.RedisDB != 4 {
		t.Errorf("invalid REDIS_DB should keep file value, got %d", cfg.Session.RedisDB)
	}
	if cfg.LogMaxSize != 2048 {
		t.Errorf("log_max_size = %d, want env value", cfg.LogMaxSize)
	}
}

func TestResultsDelay_Floor(t *testing.T) {
	tests := []struct {
		delayMS int
		want    time.Duration
	}{
		{-1, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{100, 100 * time.Millisecond},
		{750, 750 * time.Millisecond},
	}
	for _, tt := range tests {
		cfg := Config{Results: ResultsConfig{DelayMS: tt.delayMS}}
		if got := cfg.ResultsDelay(); got != tt.want {
			t.Errorf("ResultsDelay(%d) = %v, want %v", tt.delayMS, got, tt.want)
		}
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("BACKEND_URL", "http://backend:3000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("env-only config should validate: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HHBOT_TEST_VALUE=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("HHBOT_TEST_VALUE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("HHBOT_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("HHBOT_TEST_VALUE = %q", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BotToken:   "t",
			BackendURL: "http://localhost:3000",
			CatalogURL: DefaultCatalogURL,
			Locale:     "ru",
			Session:    SessionConfig{Driver: "memory"},
			Results:    ResultsConfig{Limit: 10, DelayMS: 300},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing token", func(c *Config) { c.BotToken = "" }, true},
		{"missing backend", func(c *Config) { c.BackendURL = "" }, true},
		{"backend not http", func(c *Config) { c.BackendURL = "ftp://x" }, true},
		{"socks proxy", func(c *Config) { c.ProxyURL = "socks5://127.0.0.1:1080" }, false},
		{"bad proxy scheme", func(c *Config) { c.ProxyURL = "gopher://127.0.0.1:70" }, true},
		{"bad locale", func(c *Config) { c.Locale = "not a locale!" }, true},
		{"unknown driver", func(c *Config) { c.Session.Driver = "etcd" }, true},
		{"redis without addr", func(c *Config) { c.Session.Driver = "redis" }, true},
		{"redis with addr", func(c *Config) { c.Session.Driver = "redis"; c.Session.RedisAddr = "r:6379" }, false},
		{"negative limit", func(c *Config) { c.Results.Limit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	c := &Config{Locale: "de"}
	if c.Language().String() != "de" {
		t.Errorf("Language() = %s", c.Language())
	}
	c.Locale = "???"
	if c.Language().String() != "en" {
		t.Errorf("fallback Language() = %s", c.Language())
	}
}
