package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Points.PracticeCorrect)
	assert.Equal(t, 2, cfg.Points.PracticeIncorrect)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "coach.yaml")
	content := `
database:
  driver: sqlite
  dsn: /tmp/x.db
points:
  practice_correct: 7
clock:
  timezone: Europe/London
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("EXAMCOACH_POINTS_QUIZ_SUBMITTED", "15")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Points.PracticeCorrect)
	assert.Equal(t, 2, cfg.Points.PracticeIncorrect, "unset keys keep defaults")
	assert.Equal(t, 15, cfg.Points.QuizSubmitted)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoadRejectsBadEnvNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EXAMCOACH_POINTS_PRACTICE_CORRECT", "five")

	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"zero practice points", func(c *Config) { c.Points.PracticeCorrect = 0 }},
		{"negative quiz bonus", func(c *Config) { c.Points.QuizScoreBonus = -1 }},
		{"bad timezone", func(c *Config) { c.Clock.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
