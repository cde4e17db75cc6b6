package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/examcoach/internal/config"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/store"
)

// registry collects the metrics of one command run.
var registry = prometheus.NewRegistry()

var rootCmd = &cobra.Command{
	Use:           "examcoach",
	Short:         "Points, streaks and badges for exam practice",
	Long:          "examcoach tracks a student's exam practice: paper analyses, practice answers and quizzes earn points, build streaks and unlock badges.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("metrics-textfile")
		if path == "" {
			return nil
		}
		if err := prometheus.WriteToTextfile(path, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Database file or DSN (overrides EXAMCOACH_DB and the config file)")
	pf.String("config", "", "Path to a YAML config file (default ./examcoach.yaml)")
	pf.String("student", "", "Student ID (default $EXAMCOACH_STUDENT)")
	pf.String("date", "", "Treat this date (YYYY-MM-DD) as today, for backfilling activity")
	pf.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(awardCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(badgesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

// resolveDSN returns the DSN to open. For sqlite an empty DSN means the
// default XDG path; an explicit path gets its directory created.
func resolveDSN(cfg *config.Config) (string, error) {
	if cfg.Database.Driver == "postgres" {
		return cfg.Database.DSN, nil
	}
	if p := cfg.Database.DSN; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// clockFor returns a fixed clock when --date is set, otherwise the system
// clock in the configured timezone.
func clockFor(cmd *cobra.Command, cfg *config.Config) (gamification.Clock, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	v, _ := cmd.Flags().GetString("date")
	if v == "" {
		return gamification.SystemClock{Location: loc}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid --date %q: %w", v, err)
	}
	return gamification.NewFixedClock(d.Add(12 * time.Hour)), nil
}

var errNoStudent = errors.New("no student: pass --student or set EXAMCOACH_STUDENT")

func studentID(cmd *cobra.Command) (string, error) {
	if id, _ := cmd.Flags().GetString("student"); id != "" {
		return id, nil
	}
	if id := os.Getenv("EXAMCOACH_STUDENT"); id != "" {
		return id, nil
	}
	return "", errNoStudent
}
