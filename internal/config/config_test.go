package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.StoreDriver != "postgres" {
			t.Errorf("StoreDriver = %q, want postgres", cfg.StoreDriver)
		}
		if cfg.UploadFolder != "/tmp/uploads" {
			t.Errorf("UploadFolder = %q, want /tmp/uploads", cfg.UploadFolder)
		}
		if cfg.DefaultTranscriptionService != "aws" {
			t.Errorf("DefaultTranscriptionService = %q, want aws", cfg.DefaultTranscriptionService)
		}
		if cfg.AWS.Region != "us-east-1" {
			t.Errorf("AWS.Region = %q, want us-east-1", cfg.AWS.Region)
		}
		if cfg.Transcribe.Language != "es-ES" {
			t.Errorf("Transcribe.Language = %q, want es-ES", cfg.Transcribe.Language)
		}
		if cfg.Transcribe.PollInterval != 5*time.Second {
			t.Errorf("Transcribe.PollInterval = %v, want 5s", cfg.Transcribe.PollInterval)
		}
		if cfg.Transcribe.MaxPolls != 360 {
			t.Errorf("Transcribe.MaxPolls = %d, want 360", cfg.Transcribe.MaxPolls)
		}
		if cfg.Whisper.Model != "whisper-1" {
			t.Errorf("Whisper.Model = %q, want whisper-1", cfg.Whisper.Model)
		}
		if cfg.Whisper.Language != "es" {
			t.Errorf("Whisper.Language = %q, want es", cfg.Whisper.Language)
		}
		if cfg.MQTT.Enabled() {
			t.Error("MQTT.Enabled() = true, want false without broker url")
		}
		if cfg.DBPool.MaxConns != 10 || cfg.DBPool.MinConns != 1 {
			t.Errorf("DBPool = %d/%d, want 10/1", cfg.DBPool.MaxConns, cfg.DBPool.MinConns)
		}
		if cfg.UploadMaxAge < cfg.LongestSubmission() {
			t.Errorf("default UploadMaxAge %s < LongestSubmission %s", cfg.UploadMaxAge, cfg.LongestSubmission())
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:      "nonexistent.env",
			HTTPAddr:     ":9090",
			LogLevel:     "debug",
			DatabaseURL:  "postgres://override/db",
			UploadFolder: "/tmp/other",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.UploadFolder != "/tmp/other" {
			t.Errorf("UploadFolder = %q, want /tmp/other", cfg.UploadFolder)
		}
	})

	t.Run("nested_prefixes_read", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{
			"AWS_BUCKET_NAME":          "diario",
			"TRANSCRIBE_POLL_INTERVAL": "250ms",
			"TRANSCRIBE_MAX_POLLS":     "0",
			"UPLOAD_MAX_AGE":           "0",
			"DB_MAX_CONNS":             "4",
			"BEDROCK_MODEL_ID":         "test-model",
			"MQTT_BROKER_URL":          "tcp://localhost:1883",
			"OPENAI_API_KEY":           "sk-test",
		})
		defer restore()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !cfg.ManagedTranscriptionEnabled() {
			t.Error("ManagedTranscriptionEnabled() = false, want true")
		}
		if !cfg.WhisperEnabled() {
			t.Error("WhisperEnabled() = false, want true")
		}
		if cfg.Transcribe.PollInterval != 250*time.Millisecond {
			t.Errorf("PollInterval = %v, want 250ms", cfg.Transcribe.PollInterval)
		}
		if cfg.Transcribe.MaxPolls != 0 {
			t.Errorf("MaxPolls = %d, want 0", cfg.Transcribe.MaxPolls)
		}
		if cfg.DBPool.MaxConns != 4 {
			t.Errorf("DBPool.MaxConns = %d, want 4", cfg.DBPool.MaxConns)
		}
		if cfg.Analysis.ModelID != "test-model" {
			t.Errorf("Analysis.ModelID = %q, want test-model", cfg.Analysis.ModelID)
		}
		if !cfg.MQTT.Enabled() {
			t.Error("MQTT.Enabled() = false, want true")
		}
	})
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{"DATABASE_URL": ""})
	defer cleanup()
	os.Unsetenv("DATABASE_URL")

	if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
		t.Error("expected error when DATABASE_URL is missing for the postgres driver")
	}

	cfg, err := Load(Overrides{EnvFile: "nonexistent.env", StoreDriver: "sqlite"})
	if err != nil {
		t.Fatalf("sqlite driver should not need DATABASE_URL: %v", err)
	}
	if cfg.SQLitePath != "./bitacora.db" {
		t.Errorf("SQLitePath = %q, want ./bitacora.db", cfg.SQLitePath)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StoreDriver:                 "sqlite",
			SQLitePath:                  "x.db",
			DefaultTranscriptionService: "whisper",
			MaxUploadMB:                 32,
			Transcribe:                  TranscribeConfig{PollInterval: time.Second},
			DBPool:                      DBPoolConfig{MaxConns: 10, MinConns: 1},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown_driver", func(c *Config) { c.StoreDriver = "mysql" }, true},
		{"unknown_service", func(c *Config) { c.DefaultTranscriptionService = "google" }, true},
		{"zero_interval", func(c *Config) { c.Transcribe.PollInterval = 0 }, true},
		{"negative_max_polls", func(c *Config) { c.Transcribe.MaxPolls = -1 }, true},
		{"zero_upload_limit", func(c *Config) { c.MaxUploadMB = 0 }, true},
		{"postgres_pool", func(c *Config) { c.StoreDriver, c.DatabaseURL = "postgres", "postgres://x/db" }, false},
		{"postgres_zero_max_conns", func(c *Config) {
			c.StoreDriver, c.DatabaseURL = "postgres", "postgres://x/db"
			c.DBPool.MaxConns = 0
		}, true},
		{"postgres_min_above_max", func(c *Config) {
			c.StoreDriver, c.DatabaseURL = "postgres", "postgres://x/db"
			c.DBPool.MinConns = 20
		}, true},
		{"sweeper_with_unbounded_polling", func(c *Config) {
			c.UploadMaxAge = 2 * time.Hour
			c.Transcribe.MaxPolls = 0
		}, true},
		{"sweeper_shorter_than_submission", func(c *Config) {
			c.UploadMaxAge = 10 * time.Minute
			c.Transcribe.MaxPolls = 360
			c.Analysis.Timeout = 5 * time.Minute
		}, true},
		{"sweeper_covers_submission", func(c *Config) {
			c.UploadMaxAge = 2 * time.Hour
			c.Transcribe.MaxPolls = 360
			c.Analysis.Timeout = 90 * time.Second
		}, false},
		{"sweeper_disabled_unbounded_polling", func(c *Config) {
			c.UploadMaxAge = 0
			c.Transcribe.MaxPolls = 0
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := Config{CORSOrigins: " https://a.example , ,https://b.example"}
	got := c.AllowedOrigins()
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllowedOrigins() = %v, want %v", got, want)
	}
	if got := (&Config{}).AllowedOrigins(); got != nil {
		t.Errorf("AllowedOrigins() on empty = %v, want nil", got)
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
