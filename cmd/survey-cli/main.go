package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"survey-app/internal/cli"
	"survey-app/internal/config"
	"survey-app/internal/sheets"
	"survey-app/internal/survey"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if configPath == "" {
		configPath = os.Getenv("SURVEY_CONFIG")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	var sinks []survey.RecordSink
	store, err := survey.NewResponseStore(cfg.SQLitePath)
	if err != nil {
		logger.Warn().Err(err).Msg("response store unavailable; recording to CSV only")
	} else {
		defer store.Close()
		sinks = append(sinks, store)
	}
	if cfg.SheetsEnabled() {
		client := sheets.NewClient(cfg.SheetsEndpoint, cfg.SheetsSpreadsheetID, cfg.SheetsToken, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if schemaErr := client.EnsureSchema(ctx); schemaErr != nil {
			logger.Warn().Err(schemaErr).Msg("sheets schema check failed; remote persistence may be degraded")
		}
		cancel()
		sinks = append(sinks, client)
	}

	if err := cli.Run(context.Background(), os.Stdin, os.Stdout, cfg, sinks); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
