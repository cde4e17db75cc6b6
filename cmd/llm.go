package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/examcoach/internal/llm"
	"github.com/abhisek/examcoach/internal/store"
	"github.com/abhisek/examcoach/internal/ui/components"
	"github.com/abhisek/examcoach/internal/ui/theme"
	"github.com/abhisek/examcoach/internal/ui/views"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect language-model request/response events",
}

// withEvents opens the database for commands that only read LLM events.
func withEvents(fn func(ctx context.Context, cmd *cobra.Command, events store.EventRepo) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, cmd, s.EventRepo())
	}
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: withEvents(func(ctx context.Context, cmd *cobra.Command, events store.EventRepo) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		since, _ := cmd.Flags().GetDuration("since")

		opts := store.QueryOpts{Limit: limit, Purpose: purpose}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		list, err := events.QueryLLMEvents(ctx, opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), views.LLMEvents(list))
		return nil
	}),
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		return withEvents(func(ctx context.Context, cmd *cobra.Command, events store.EventRepo) error {
			e, err := events.GetLLMEvent(ctx, id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}
			printEvent(cmd, e)
			return nil
		})(cmd, args)
	},
}

func printEvent(cmd *cobra.Command, e *store.LLMRequestEvent) {
	w := cmd.OutOrStdout()
	row := func(k, v string) {
		fmt.Fprintln(w, theme.Label.Render(fmt.Sprintf("%-10s", k))+v)
	}
	row("ID", strconv.Itoa(e.ID))
	row("Time", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
	row("Provider", e.Provider)
	row("Model", e.Model)
	row("Purpose", e.Purpose)
	row("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
	row("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	if e.Success {
		row("Status", theme.Good.Render("ok"))
	} else {
		row("Status", theme.Bad.Render("error"))
		row("Error", e.ErrorMessage)
	}

	sep := theme.Label.Render(strings.Repeat("─", 60))
	for _, part := range []struct{ title, body string }{
		{"REQUEST", e.RequestBody},
		{"RESPONSE", e.ResponseBody},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, theme.Heading.Render(part.title))
		fmt.Fprintln(w, sep)
		if part.body == "" {
			fmt.Fprintln(w, theme.Hint.Render("(not captured)"))
		} else {
			fmt.Fprintln(w, part.body)
		}
	}
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: withEvents(func(ctx context.Context, cmd *cobra.Command, events store.EventRepo) error {
		stats, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, theme.Hint.Render("No LLM usage recorded yet."))
			return nil
		}

		var rows [][]string
		var calls, in, out int
		for _, st := range stats {
			rows = append(rows, []string{st.Purpose, strconv.Itoa(st.Calls),
				strconv.Itoa(st.InputTokens), strconv.Itoa(st.OutputTokens),
				strconv.Itoa(st.InputTokens + st.OutputTokens)})
			calls += st.Calls
			in += st.InputTokens
			out += st.OutputTokens
		}
		rows = append(rows, []string{"TOTAL", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(out), strconv.Itoa(in + out)})
		fmt.Fprintln(w, theme.Heading.Render("Usage by purpose"))
		fmt.Fprintln(w, components.Table([]string{"Purpose", "Calls", "Input", "Output", "Total"}, rows, nil))

		all, err := events.QueryLLMEvents(ctx, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		costs := costByModel(all)
		if len(costs) == 0 {
			return nil
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.Heading.Render("Estimated cost by model"))
		rows = rows[:0]
		var total float64
		for _, c := range costs {
			cost := "unknown"
			if c.priced {
				cost = fmt.Sprintf("$%.4f", c.cost)
				total += c.cost
			}
			rows = append(rows, []string{c.model, strconv.Itoa(c.usage.InputTokens), strconv.Itoa(c.usage.OutputTokens), cost})
		}
		rows = append(rows, []string{"TOTAL", "", "", fmt.Sprintf("$%.4f", total)})
		fmt.Fprintln(w, components.Table([]string{"Model", "Input", "Output", "Cost"}, rows, nil))
		return nil
	}),
}

type modelCost struct {
	model  string
	usage  llm.Usage
	cost   float64
	priced bool
}

// costByModel sums token usage per model and prices it where the model's
// price is known. Results are sorted by model name.
func costByModel(events []store.LLMRequestEvent) []modelCost {
	byModel := make(map[string]*modelCost)
	for _, e := range events {
		if e.Model == "" {
			continue
		}
		c, ok := byModel[e.Model]
		if !ok {
			c = &modelCost{model: e.Model}
			byModel[e.Model] = c
		}
		c.usage.InputTokens += e.InputTokens
		c.usage.OutputTokens += e.OutputTokens
	}

	out := make([]modelCost, 0, len(byModel))
	for _, c := range byModel {
		if p, ok := llm.PriceFor(c.model); ok {
			c.cost = p.Cost(c.usage)
			c.priced = true
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].model < out[j].model })
	return out
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum number of events to show")
	llmListCmd.Flags().String("purpose", "", "Filter by purpose")
	llmListCmd.Flags().Duration("since", 0, "Only events newer than this, e.g. 24h")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
