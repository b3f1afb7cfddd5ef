package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken   string `env:"AUTH_TOKEN"`
	CORSOrigins string `env:"CORS_ORIGINS"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string       `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string       `env:"DATABASE_URL"`
	SQLitePath  string       `env:"SQLITE_PATH" envDefault:"./bitacora.db"`
	DBPool      DBPoolConfig `envPrefix:"DB_"`

	UploadFolder string `env:"UPLOAD_FOLDER" envDefault:"/tmp/uploads"`
	MaxUploadMB  int64  `env:"MAX_UPLOAD_MB" envDefault:"32"`

	UploadMaxAge        time.Duration `env:"UPLOAD_MAX_AGE" envDefault:"2h"`
	UploadSweepInterval time.Duration `env:"UPLOAD_SWEEP_INTERVAL" envDefault:"15m"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// DefaultTranscriptionService is used when a submission does not name one.
	DefaultTranscriptionService string `env:"DEFAULT_TRANSCRIPTION_SERVICE" envDefault:"aws"`

	AWS        AWSConfig        `envPrefix:"AWS_"`
	S3         S3Config         `envPrefix:"S3_"`
	Transcribe TranscribeConfig `envPrefix:"TRANSCRIBE_"`
	Whisper    WhisperConfig    `envPrefix:"WHISPER_"`
	Analysis   AnalysisConfig
	MQTT       MQTTConfig `envPrefix:"MQTT_"`
}

// AWSConfig holds credentials shared by the S3, Transcribe and Bedrock clients.
// Empty keys fall back to the SDK default credential chain.
type AWSConfig struct {
	Region          string `env:"REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	BucketName      string `env:"BUCKET_NAME"`
}

// DBPoolConfig sizes the Postgres connection pool. Each submission holds a
// connection only for its single insert, so small pools are enough.
type DBPoolConfig struct {
	MaxConns        int32         `env:"MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"MIN_CONNS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
}

type S3Config struct {
	Endpoint string `env:"ENDPOINT"`
	Prefix   string `env:"PREFIX"`
}

type TranscribeConfig struct {
	Language      string        `env:"LANGUAGE" envDefault:"es-ES"`
	MediaFormat   string        `env:"MEDIA_FORMAT" envDefault:"wav"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	MaxPolls      int           `env:"MAX_POLLS" envDefault:"360"`
	ResultTimeout time.Duration `env:"RESULT_TIMEOUT" envDefault:"30s"`
}

type WhisperConfig struct {
	URL      string        `env:"URL" envDefault:"https://api.openai.com/v1/audio/transcriptions"`
	Model    string        `env:"MODEL" envDefault:"whisper-1"`
	Language string        `env:"LANGUAGE" envDefault:"es"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"120s"`
}

type AnalysisConfig struct {
	ModelID string        `env:"BEDROCK_MODEL_ID" envDefault:"anthropic.claude-3-5-sonnet-20240620-v1:0"`
	Timeout time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"90s"`
}

type MQTTConfig struct {
	BrokerURL string `env:"BROKER_URL"`
	ClientID  string `env:"CLIENT_ID" envDefault:"bitacora-engine"`
	Topic     string `env:"TOPIC" envDefault:"bitacora/follow-up"`
	Username  string `env:"USERNAME"`
	Password  string `env:"PASSWORD"`
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool { return c.BrokerURL != "" }

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile      string
	HTTPAddr     string
	LogLevel     string
	DatabaseURL  string
	StoreDriver  string
	UploadFolder string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.StoreDriver != "" {
		cfg.StoreDriver = overrides.StoreDriver
	}
	if overrides.UploadFolder != "" {
		cfg.UploadFolder = overrides.UploadFolder
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q: must be postgres or sqlite", c.StoreDriver)
	}

	switch c.DefaultTranscriptionService {
	case "aws", "whisper":
	default:
		return fmt.Errorf("unknown DEFAULT_TRANSCRIPTION_SERVICE %q: must be aws or whisper", c.DefaultTranscriptionService)
	}

	if c.Transcribe.PollInterval <= 0 {
		return fmt.Errorf("TRANSCRIBE_POLL_INTERVAL must be positive")
	}
	if c.Transcribe.MaxPolls < 0 {
		return fmt.Errorf("TRANSCRIBE_MAX_POLLS must be >= 0")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}

	if c.StoreDriver == "postgres" {
		if c.DBPool.MaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be positive")
		}
		if c.DBPool.MinConns < 0 || c.DBPool.MinConns > c.DBPool.MaxConns {
			return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBPool.MaxConns)
		}
	}

	// The sweeper must never see a file that a live submission still owns.
	if c.UploadMaxAge > 0 {
		if c.Transcribe.MaxPolls == 0 {
			return fmt.Errorf("UPLOAD_MAX_AGE must be 0 (sweeper disabled) when TRANSCRIBE_MAX_POLLS=0 polls without limit")
		}
		if longest := c.LongestSubmission(); c.UploadMaxAge < longest {
			return fmt.Errorf("UPLOAD_MAX_AGE %s is shorter than the longest submission (%s)", c.UploadMaxAge, longest)
		}
	}
	return nil
}

// LongestSubmission bounds how long a submission can hold its temp file:
// a full managed-job wait plus the analysis deadline. Zero when polling is
// unbounded.
func (c *Config) LongestSubmission() time.Duration {
	if c.Transcribe.MaxPolls == 0 {
		return 0
	}
	return c.Transcribe.PollInterval*time.Duration(c.Transcribe.MaxPolls) + c.Analysis.Timeout
}

// AllowedOrigins splits CORS_ORIGINS into a list. Empty means any origin.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ManagedTranscriptionEnabled reports whether the S3 + Transcribe path can run.
func (c *Config) ManagedTranscriptionEnabled() bool { return c.AWS.BucketName != "" }

// WhisperEnabled reports whether the synchronous speech-to-text path can run.
func (c *Config) WhisperEnabled() bool { return c.OpenAIAPIKey != "" }
