package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"survey-app/internal/config"
	"survey-app/internal/httpapi"
	"survey-app/internal/sheets"
	"survey-app/internal/survey"
)

func main() {
	configPath := flag.String("config", os.Getenv("SURVEY_CONFIG"), "path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, parseErr := zerolog.ParseLevel(cfg.LogLevel); parseErr == nil {
		logger = logger.Level(level)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	catalog, err := survey.LoadCatalog(cfg.ImageDir, cfg.MaxImages)
	if err != nil {
		// An empty catalog is the one fatal precondition: there is no
		// survey to run without images.
		logger.Fatal().Err(err).Str("image_dir", cfg.ImageDir).Msg("cannot start survey")
	}

	store, err := survey.NewResponseStore(cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Str("sqlite_path", cfg.SQLitePath).Msg("failed to open response store")
	}
	defer store.Close()

	sinks := []survey.RecordSink{store}
	if cfg.SheetsEnabled() {
		client := sheets.NewClient(cfg.SheetsEndpoint, cfg.SheetsSpreadsheetID, cfg.SheetsToken, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if schemaErr := client.EnsureSchema(ctx); schemaErr != nil {
			// Remote persistence is best-effort; the sqlite sink and the
			// session log still capture every response.
			logger.Warn().Err(schemaErr).Msg("sheets schema check failed; remote persistence may be degraded")
		}
		cancel()
		sinks = append(sinks, client)
	}

	service, err := survey.NewService(catalog, cfg.Settings(), sinks, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build survey service")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(service),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("addr", cfg.Addr).Int("images", len(catalog)).Msg("survey-service listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
