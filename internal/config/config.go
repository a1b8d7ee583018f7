// Package config loads survey configuration from an optional YAML file with
// environment variable overrides. Environment values take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"survey-app/internal/survey"
)

type Config struct {
	// Server
	Addr string `koanf:"addr"`

	// Study
	StudyID         string  `koanf:"study_id"`
	ImageDir        string  `koanf:"image_dir"`
	MaxImages       int     `koanf:"max_images"`
	ExposureSeconds float64 `koanf:"exposure_seconds"`
	RatingMin       int     `koanf:"rating_min"`
	RatingMax       int     `koanf:"rating_max"`
	RatingDefault   int     `koanf:"rating_default"`

	// Persistence
	SQLitePath          string `koanf:"sqlite_path"`
	SheetsEndpoint      string `koanf:"sheets_endpoint"`
	SheetsSpreadsheetID string `koanf:"sheets_spreadsheet_id"`
	SheetsToken         string `koanf:"sheets_token"`

	// Export
	ExportDir string `koanf:"export_dir"`

	// Logging
	LogLevel string `koanf:"log_level"`
}

const (
	DefaultAddr            = ":8080"
	DefaultImageDir        = "images"
	DefaultExposureSeconds = 2.0
	DefaultSQLitePath      = "survey.db"
	DefaultExportDir       = "."
	DefaultLogLevel        = "info"
)

var (
	ErrInvalidExposure  = errors.New("exposure_seconds must be positive")
	ErrInvalidMaxImages = errors.New("max_images must be positive")
	ErrInvalidRatings   = errors.New("rating_min must be less than rating_max")
	ErrInvalidDefault   = errors.New("rating_default must lie within the rating bounds")
)

func defaults() Config {
	return Config{
		Addr:            DefaultAddr,
		StudyID:         survey.DefaultStudyID,
		ImageDir:        DefaultImageDir,
		MaxImages:       survey.DefaultMaxImages,
		ExposureSeconds: DefaultExposureSeconds,
		RatingMin:       survey.DefaultRatingMin,
		RatingMax:       survey.DefaultRatingMax,
		RatingDefault:   survey.DefaultRatingDefault,
		SQLitePath:      DefaultSQLitePath,
		ExportDir:       DefaultExportDir,
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads the optional YAML file at path, then applies SURVEY_* env
// overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var envErrs []error
	applyEnvString("SURVEY_ADDR", &cfg.Addr)
	applyEnvString("SURVEY_STUDY_ID", &cfg.StudyID)
	applyEnvString("SURVEY_IMAGE_DIR", &cfg.ImageDir)
	envErrs = append(envErrs, applyEnvInt("SURVEY_MAX_IMAGES", &cfg.MaxImages))
	envErrs = append(envErrs, applyEnvFloat("SURVEY_EXPOSURE_SECONDS", &cfg.ExposureSeconds))
	envErrs = append(envErrs, applyEnvInt("SURVEY_RATING_MIN", &cfg.RatingMin))
	envErrs = append(envErrs, applyEnvInt("SURVEY_RATING_MAX", &cfg.RatingMax))
	envErrs = append(envErrs, applyEnvInt("SURVEY_RATING_DEFAULT", &cfg.RatingDefault))
	applyEnvString("SURVEY_SQLITE_PATH", &cfg.SQLitePath)
	applyEnvString("SURVEY_SHEETS_ENDPOINT", &cfg.SheetsEndpoint)
	applyEnvString("SURVEY_SHEETS_SPREADSHEET_ID", &cfg.SheetsSpreadsheetID)
	applyEnvString("SURVEY_SHEETS_TOKEN", &cfg.SheetsToken)
	applyEnvString("SURVEY_EXPORT_DIR", &cfg.ExportDir)
	applyEnvString("SURVEY_LOG_LEVEL", &cfg.LogLevel)

	if err := errors.Join(envErrs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ExposureSeconds <= 0 {
		errs = append(errs, ErrInvalidExposure)
	}
	if c.MaxImages <= 0 {
		errs = append(errs, ErrInvalidMaxImages)
	}
	if c.RatingMin >= c.RatingMax {
		errs = append(errs, ErrInvalidRatings)
	} else if c.RatingDefault < c.RatingMin || c.RatingDefault > c.RatingMax {
		errs = append(errs, ErrInvalidDefault)
	}
	return errors.Join(errs...)
}

// SheetsEnabled reports whether the remote spreadsheet sink is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsEndpoint != "" && c.SheetsSpreadsheetID != ""
}

func (c *Config) Exposure() time.Duration {
	return time.Duration(c.ExposureSeconds * float64(time.Second))
}

// Settings converts the study parameters into the core package's form.
func (c *Config) Settings() survey.Settings {
	return survey.Settings{
		StudyID:       c.StudyID,
		Exposure:      c.Exposure(),
		RatingMin:     c.RatingMin,
		RatingMax:     c.RatingMax,
		RatingDefault: c.RatingDefault,
	}
}

func applyEnvString(key string, target *string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func applyEnvInt(key string, target *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*target = parsed
	return nil
}

func applyEnvFloat(key string, target *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*target = parsed
	return nil
}
