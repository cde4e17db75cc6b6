package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/examcoach/internal/analysis"
	"github.com/abhisek/examcoach/internal/coach"
	"github.com/abhisek/examcoach/internal/gamification"
	"github.com/abhisek/examcoach/internal/ui/views"
)

var awardCmd = &cobra.Command{
	Use:   "award",
	Short: "Award points to a student directly",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		points, _ := cmd.Flags().GetInt("points")
		reason, _ := cmd.Flags().GetString("reason")

		res, err := s.coach.Ledger().AddPoints(ctx, gamification.Award{
			StudentID: s.student,
			Points:    points,
			Reason:    reason,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Award(res))
		return nil
	}),
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Record a practice answer",
	Long: `Record a practice answer for a topic.

With --feedback the given feedback text is classified as correct or not.
Otherwise --question and --answer are sent to the language model for
evaluation.`,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		topic, _ := cmd.Flags().GetString("topic")
		feedback, _ := cmd.Flags().GetString("feedback")

		var (
			out *coach.PracticeOutcome
			err error
		)
		if feedback != "" {
			out, err = s.coach.PracticeAnswered(ctx, s.student, subject, topic, feedback)
		} else {
			question, _ := cmd.Flags().GetString("question")
			answer, _ := cmd.Flags().GetString("answer")
			expected, _ := cmd.Flags().GetString("expected")
			if question == "" || answer == "" {
				return fmt.Errorf("either --feedback or both --question and --answer are required")
			}
			out, err = s.coach.AnswerPractice(ctx, coach.PracticeAnswer{
				StudentID:      s.student,
				Subject:        subject,
				Topic:          topic,
				Question:       question,
				Answer:         answer,
				ExpectedAnswer: expected,
			})
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Practice(out))
		return nil
	}),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an exam paper and extract weak topics",
	Long: `Analyze an exam paper.

--file sends the paper text to the language model. --analysis records
analysis text that was produced elsewhere. Either may be "-" for stdin.`,
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		paperPath, _ := cmd.Flags().GetString("file")
		analysisPath, _ := cmd.Flags().GetString("analysis")

		var (
			out *coach.PaperOutcome
			err error
		)
		switch {
		case paperPath != "" && analysisPath != "":
			return fmt.Errorf("--file and --analysis are mutually exclusive")
		case paperPath != "":
			text, rerr := readInput(cmd, paperPath)
			if rerr != nil {
				return rerr
			}
			grade, _ := cmd.Flags().GetString("grade")
			out, err = s.coach.AnalyzePaper(ctx, analysis.PaperRequest{
				StudentID:  s.student,
				Subject:    subject,
				GradeLevel: grade,
				PaperText:  text,
			})
		case analysisPath != "":
			text, rerr := readInput(cmd, analysisPath)
			if rerr != nil {
				return rerr
			}
			out, err = s.coach.PaperAnalyzed(ctx, s.student, subject, text)
		default:
			return fmt.Errorf("one of --file or --analysis is required")
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Paper(out))
		return nil
	}),
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Record quiz submissions and grades",
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record a submitted quiz",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		title, _ := cmd.Flags().GetString("title")
		questions, _ := cmd.Flags().GetInt("questions")

		res, err := s.coach.SubmitQuiz(ctx, coach.QuizSubmission{
			StudentID: s.student,
			Subject:   subject,
			Title:     title,
			Questions: questions,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.Award(res))
		return nil
	}),
}

var quizGradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Record a quiz score and award the score bonus",
	RunE: withSession(func(ctx context.Context, cmd *cobra.Command, s *session) error {
		subject, _ := cmd.Flags().GetString("subject")
		title, _ := cmd.Flags().GetString("title")
		score, _ := cmd.Flags().GetFloat64("score")

		out, err := s.coach.GradeQuiz(ctx, coach.QuizGrade{
			StudentID:    s.student,
			Subject:      subject,
			Title:        title,
			ScorePercent: score,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.QuizGrade(out))
		return nil
	}),
}

func init() {
	awardCmd.Flags().Int("points", 0, "Points to award (must be positive)")
	awardCmd.Flags().String("reason", "manual", "Reason recorded in the point history")
	awardCmd.MarkFlagRequired("points")

	practiceCmd.Flags().String("subject", "", "Subject, e.g. Maths")
	practiceCmd.Flags().String("topic", "", "Topic practised")
	practiceCmd.Flags().String("feedback", "", "Feedback already given for the answer")
	practiceCmd.Flags().String("question", "", "Question text (model evaluation)")
	practiceCmd.Flags().String("answer", "", "Student's answer (model evaluation)")
	practiceCmd.Flags().String("expected", "", "Expected answer, if known")
	practiceCmd.MarkFlagRequired("subject")
	practiceCmd.MarkFlagRequired("topic")

	analyzeCmd.Flags().String("subject", "", "Subject of the paper")
	analyzeCmd.Flags().String("file", "", "Paper text to send to the language model")
	analyzeCmd.Flags().String("analysis", "", "Existing analysis text to record")
	analyzeCmd.Flags().String("grade", "", "Grade or year level, for the model prompt")
	analyzeCmd.MarkFlagRequired("subject")

	for _, c := range []*cobra.Command{quizSubmitCmd, quizGradeCmd} {
		c.Flags().String("subject", "", "Quiz subject")
		c.Flags().String("title", "", "Quiz title")
		c.MarkFlagRequired("subject")
	}
	quizSubmitCmd.Flags().Int("questions", 0, "Number of questions")
	quizGradeCmd.Flags().Float64("score", 0, "Score in percent (0-100)")
	quizGradeCmd.MarkFlagRequired("score")
	quizCmd.AddCommand(quizSubmitCmd, quizGradeCmd)
}
