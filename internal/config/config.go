package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Points   PointsConfig   `yaml:"points"`
	Clock    ClockConfig    `yaml:"clock"`
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // empty means the default sqlite path
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Mode string `yaml:"mode"` // "dev" or "prod"
}

// PointsConfig holds the point amounts awarded for each kind of event.
type PointsConfig struct {
	PaperAnalyzed     int `yaml:"paper_analyzed"`
	PracticeCorrect   int `yaml:"practice_correct"`
	PracticeIncorrect int `yaml:"practice_incorrect"`
	QuizSubmitted     int `yaml:"quiz_submitted"`
	// QuizScoreBonus is the bonus for a 100% quiz; lower scores get a
	// proportional share.
	QuizScoreBonus int `yaml:"quiz_score_bonus"`
}

// ClockConfig controls how "today" is derived.
type ClockConfig struct {
	Timezone string `yaml:"timezone"` // IANA name, default UTC
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Logging:  LoggingConfig{Mode: "dev"},
		Points: PointsConfig{
			PaperAnalyzed:     10,
			PracticeCorrect:   5,
			PracticeIncorrect: 2,
			QuizSubmitted:     10,
			QuizScoreBonus:    20,
		},
		Clock: ClockConfig{Timezone: "UTC"},
	}
}

// Load reads configuration in priority order: defaults, YAML file, then
// environment variables. A .env file in the working directory is loaded
// first if present. path may be empty, in which case EXAMCOACH_CONFIG and
// then ./examcoach.yaml are tried.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("EXAMCOACH_CONFIG")
	}
	if path == "" {
		path = "examcoach.yaml"
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("EXAMCOACH_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("EXAMCOACH_DB"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("EXAMCOACH_LOG_MODE"); v != "" {
		c.Logging.Mode = v
	}
	if v := os.Getenv("EXAMCOACH_TIMEZONE"); v != "" {
		c.Clock.Timezone = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"EXAMCOACH_POINTS_PAPER_ANALYZED", &c.Points.PaperAnalyzed},
		{"EXAMCOACH_POINTS_PRACTICE_CORRECT", &c.Points.PracticeCorrect},
		{"EXAMCOACH_POINTS_PRACTICE_INCORRECT", &c.Points.PracticeIncorrect},
		{"EXAMCOACH_POINTS_QUIZ_SUBMITTED", &c.Points.QuizSubmitted},
		{"EXAMCOACH_POINTS_QUIZ_SCORE_BONUS", &c.Points.QuizScoreBonus},
	}
	for _, it := range ints {
		v := os.Getenv(it.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", it.env, err)
		}
		*it.dst = n
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	p := c.Points
	for name, v := range map[string]int{
		"paper_analyzed":     p.PaperAnalyzed,
		"practice_correct":   p.PracticeCorrect,
		"practice_incorrect": p.PracticeIncorrect,
		"quiz_submitted":     p.QuizSubmitted,
	} {
		if v <= 0 {
			return fmt.Errorf("points.%s must be positive, got %d", name, v)
		}
	}
	if p.QuizScoreBonus < 0 {
		return fmt.Errorf("points.quiz_score_bonus must not be negative, got %d", p.QuizScoreBonus)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Clock.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Clock.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clock.timezone: %w", err)
	}
	return loc, nil
}
