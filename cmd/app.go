package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/examcoach/internal/coach"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/logging"
	"github.com/abhisek/examcoach/internal/store"
)

// session is everything a student command needs, built from flags and
// config. close must be called when the command is done.
type session struct {
	store   *store.Store
	coach   *coach.Coach
	log     *logging.Logger
	student string
}

func (s *session) close() {
	s.log.Sync()
	s.store.Close()
}

// openSession wires the store, clock, optional language model and coach.
// A missing model configuration is not an error; commands that need one
// fail with coach.ErrNoModel.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	student, err := studentID(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	clock, err := clockFor(cmd, cfg)
	if err != nil {
		return nil, err
	}
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	var provider llm.Provider
	if llmCfg := llm.ResolveConfig(); llmCfg.Validate() == nil {
		provider, err = llm.New(ctx, llmCfg, s.EventRepo(), log)
		if err != nil {
			s.Close()
			return nil, err
		}
	} else {
		log.Debug("language model disabled", "reason", llmCfg.Validate().Error())
	}

	registry = prometheus.NewRegistry()
	c := coach.New(coach.Options{
		Repo:     s.Repository(),
		Clock:    clock,
		Points:   cfg.Points,
		Provider: provider,
		Metrics:  gamification.NewMetrics(registry),
		Log:      log,
	})
	return &session{store: s, coach: c, log: log, student: student}, nil
}

// withSession runs fn with an open session and closes it afterwards.
func withSession(fn func(ctx context.Context, cmd *cobra.Command, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(ctx, cmd, s)
	}
}
