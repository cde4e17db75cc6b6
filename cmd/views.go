package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/ui/views"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show points, level, streak, badges and progress",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		sum, err := s.coach.Summary(ctx, s.student)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Summary(sum))
		return nil
	}),
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List the badge catalog and which badges are earned",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		badges, err := s.coach.Ledger().Badges(ctx, s.student)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Badges(badges))
		return nil
	}),
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show point history, newest first",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := s.coach.Ledger().History(ctx, s.student, limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.History(entries))
		return nil
	}),
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show practice accuracy per topic",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		records, err := s.coach.Progress(ctx, s.student, subject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Progress(records))
		return nil
	}),
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Show weak topics from analyzed papers and their practice status",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		topics, err := s.coach.WeakTopics(ctx, s.student, subject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.WeakTopics(topics))
		return nil
	}),
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List notifications or mark one read",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		if id, _ := cmd.Flags().GetString("mark-read"); id != "" {
			err := s.coach.MarkRead(ctx, s.student, id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("notification %s not found", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s read.\n", id)
			return nil
		}

		unread, _ := cmd.Flags().GetBool("unread")
		ns, err := s.coach.Notifications(ctx, s.student, unread)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Notifications(ns))
		return nil
	}),
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show (0 = all)")
	progressCmd.Flags().String("subject", "", "Only this subject")
	topicsCmd.Flags().String("subject", "", "Only this subject")
	notificationsCmd.Flags().Bool("unread", false, "Only unread notifications")
	notificationsCmd.Flags().String("mark-read", "", "Mark the notification with this ID read")
}
