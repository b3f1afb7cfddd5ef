package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	bitacoraengine "github.com/snarg/bitacora"
	"github.com/snarg/bitacora/internal/analysis"
	"github.com/snarg/bitacora/internal/api"
	"github.com/snarg/bitacora/internal/bitacora"
	"github.com/snarg/bitacora/internal/config"
	"github.com/snarg/bitacora/internal/database"
	"github.com/snarg/bitacora/internal/metrics"
	"github.com/snarg/bitacora/internal/mqttclient"
	"github.com/snarg/bitacora/internal/storage"
	"github.com/snarg/bitacora/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "Path to .env file (default: .env)")
	flag.StringVar(&overrides.HTTPAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL URL (overrides DATABASE_URL)")
	flag.StringVar(&overrides.StoreDriver, "store", "", "Entry store: postgres or sqlite (overrides STORE_DRIVER)")
	flag.StringVar(&overrides.UploadFolder, "upload-folder", "", "Temp directory for uploads (overrides UPLOAD_FOLDER)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("bitacora-engine", version)
		return
	}

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("bitacora-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Entry store
	dbLog := log.With().Str("component", "database").Logger()
	var (
		store database.Store
		pg    *database.DB
	)
	switch cfg.StoreDriver {
	case "sqlite":
		sq, err := database.OpenSQLite(ctx, cfg.SQLitePath, dbLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite store")
		}
		store = sq
	default:
		pg, err = database.Connect(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns:        cfg.DBPool.MaxConns,
			MinConns:        cfg.DBPool.MinConns,
			MaxConnLifetime: cfg.DBPool.MaxConnLifetime,
		}, dbLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := pg.InitSchema(ctx, bitacoraengine.SchemaSQL); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema migration failed")
		}
		store = pg
	}
	defer store.Close()

	// AWS clients share one config. Bedrock needs it even without a bucket.
	awsCfg, err := storage.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load aws config")
	}

	// Transcription backends
	trLog := log.With().Str("component", "transcribe").Logger()
	backends := make(map[bitacora.Variant]transcribe.Backend)
	var uploader bitacora.Uploader
	if cfg.ManagedTranscriptionEnabled() {
		s3Store := storage.NewS3Store(awsCfg, cfg.AWS.BucketName, cfg.S3, log.With().Str("component", "s3").Logger())
		headCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s3Store.HeadBucket(headCtx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.AWS.BucketName).Msg("s3 bucket not reachable, aws transcription may fail")
		}
		cancel()
		uploader = s3Store
		backends[bitacora.VariantAWS] = transcribe.NewManagedBackend(transcribe.ManagedOptions{
			Name:         string(bitacora.VariantAWS),
			Jobs:         transcribe.NewAWSJobClient(awsCfg),
			Results:      transcribe.NewHTTPResultFetcher(cfg.Transcribe.ResultTimeout),
			Language:     cfg.Transcribe.Language,
			MediaFormat:  cfg.Transcribe.MediaFormat,
			PollInterval: cfg.Transcribe.PollInterval,
			MaxPolls:     cfg.Transcribe.MaxPolls,
			Log:          trLog,
		})
	} else {
		log.Warn().Msg("AWS_BUCKET_NAME not set, aws transcription disabled")
	}
	if cfg.WhisperEnabled() {
		backends[bitacora.VariantWhisper] = transcribe.NewWhisperClient(
			cfg.Whisper.URL, cfg.OpenAIAPIKey, cfg.Whisper.Model, cfg.Whisper.Language, cfg.Whisper.Timeout)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, whisper transcription disabled")
	}

	// Analysis
	extractor := analysis.NewExtractor(
		analysis.NewBedrockModel(awsCfg, cfg.Analysis.ModelID),
		cfg.Analysis.Timeout,
		log.With().Str("component", "analysis").Logger(),
	)

	// MQTT (optional)
	var (
		notifier bitacora.Notifier
		mqttConn api.ConnStatus
	)
	if cfg.MQTT.Enabled() {
		pub, err := mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Topic:     cfg.MQTT.Topic,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			Log:       log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer pub.Close()
		notifier, mqttConn = pub, pub
	}

	// Scratch space for uploads
	scratch := storage.NewScratch(cfg.UploadFolder)
	sweeper := storage.NewScratchSweeper(cfg.UploadFolder, cfg.UploadMaxAge, cfg.UploadSweepInterval,
		log.With().Str("component", "scratch").Logger())
	sweeper.Start()
	defer sweeper.Stop()

	defaultVariant, err := bitacora.ParseVariant(cfg.DefaultTranscriptionService, bitacora.VariantAWS)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid default transcription service")
	}

	pipeline := bitacora.New(bitacora.Options{
		Scratch:        scratch,
		Uploader:       uploader,
		Backends:       backends,
		DefaultVariant: defaultVariant,
		Analyzer:       extractor,
		Store:          store,
		Notifier:       notifier,
		Log:            log,
	})

	var pool *pgxpool.Pool
	if pg != nil {
		pool = pg.Pool
	}
	prometheus.MustRegister(metrics.NewCollector(pool, pipeline))

	services := make([]string, 0, len(backends))
	for _, v := range pipeline.Variants() {
		services = append(services, string(v))
	}
	log.Info().Strs("transcription_services", services).Str("default", string(defaultVariant)).Msg("pipeline ready")

	// HTTP Server
	srv := api.NewServer(api.ServerOptions{
		Config:    cfg,
		Store:     store,
		Pipeline:  pipeline,
		MQTT:      mqttConn,
		Services:  services,
		Version:   version,
		StartTime: startTime,
		Log:       log.With().Str("component", "http").Logger(),
	})

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("bitacora-engine stopped")
}
