package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "nivesh/internal/cli"
	"nivesh/internal/config"
	"nivesh/internal/engine"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "nv",
		Short:        "Nivesh quarterly portfolio game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newStartCmd(&apiBase),
		newStatusCmd(&apiBase),
		newResetCmd(&apiBase),
		newCatalogCmd(&apiBase),
		newEventsCmd(&apiBase),
		newReviewCmd(&apiBase),
		newQuizCmd(&apiBase),
		newAnswerCmd(&apiBase),
		newSubmitCmd(&apiBase),
		newQuizResetCmd(&apiBase),
		newRebalanceCmd(&apiBase),
		newSkipCmd(&apiBase),
		newAICmd(&apiBase),
		newPerfCmd(&apiBase),
		newNextCmd(&apiBase),
		newHintCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

// resolveQuarter uses the explicit argument when present, otherwise the
// server's current quarter.
func resolveQuarter(ctx context.Context, client *cl.Client, playerKey string, args []string) (int, error) {
	if len(args) > 0 {
		quarter, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || quarter < 1 {
			return 0, fmt.Errorf("invalid quarter %q", args[0])
		}
		return quarter, nil
	}
	raw, err := client.GameState(ctx, playerKey)
	if err != nil {
		return 0, err
	}
	st, err := decodeInto[engine.GameState](raw)
	if err != nil {
		return 0, err
	}
	if !st.IsStarted {
		return 0, fmt.Errorf("no game in progress, run `nv start`")
	}
	return st.CurrentQuarter, nil
}

func newStartCmd(apiBase *string) *cobra.Command {
	var handle string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a 12-quarter campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.EnsureSession(handle)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			out, err := client.StartGame(ctx, sess.PlayerKey, uuid.NewString())
			if err != nil {
				return err
			}
			printSuccess("Campaign started. ₹10,00,000 in cash, 12 quarters ahead.")
			return renderGameState(out)
		},
	}
	cmd.Flags().StringVar(&handle, "handle", "", "display handle for the session")
	return cmd
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current game state",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).GameState(ctx, sess.PlayerKey)
			if err != nil {
				return err
			}
			return renderGameState(out)
		},
	}
}

func newResetCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the current campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			confirm, err := promptChoice("Discard all progress", []string{"yes", "no"}, "no")
			if err != nil {
				return err
			}
			if confirm != "yes" {
				printInfo("Reset cancelled.")
				return nil
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			if _, err := newClient(apiBase).ResetGame(ctx, sess.PlayerKey, uuid.NewString()); err != nil {
				return err
			}
			printSuccess("Campaign reset. Run `nv start` to begin again.")
			return nil
		},
	}
}

func newCatalogCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the investable stocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Catalog(ctx)
			if err != nil {
				return err
			}
			return renderCatalog(out)
		},
	}
}

func newEventsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events [quarter]",
		Short: "Show the quarter's market events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			out, err := client.QuarterEvents(ctx, sess.PlayerKey, quarter)
			if err != nil {
				return err
			}
			return renderEvents(out)
		},
	}
}

func newReviewCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "review [quarter]",
		Short: "Mark the quarter's events as reviewed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			if _, err := client.MarkEventsReviewed(ctx, sess.PlayerKey, quarter, uuid.NewString()); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Q%d events reviewed. Quiz unlocked.", quarter))
			return nil
		},
	}
}

func newQuizCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz [quarter]",
		Short: "Take the quarter's quiz (answers queue locally until submit)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			raw, err := client.QuizQuestions(ctx, sess.PlayerKey, quarter)
			if err != nil {
				return err
			}
			payload, err := decodeInto[quizPayload](raw)
			if err != nil {
				return err
			}
			if len(payload.Questions) == 0 {
				printInfo("No quiz questions for this quarter.")
				return nil
			}
			for i, q := range payload.Questions {
				renderQuestion(i+1, len(payload.Questions), q)
				ids := make([]string, 0, len(q.Options))
				for _, opt := range q.Options {
					ids = append(ids, opt.ID)
				}
				pick, err := promptChoice("Your answer", ids, ids[0])
				if err != nil {
					return err
				}
				if err := cl.PushAnswer(cl.PendingAnswer{Quarter: quarter, QuestionID: q.ID, AnswerID: pick}); err != nil {
					return err
				}
			}
			printSuccess(fmt.Sprintf("%d answers queued. Run `nv submit %d` to grade.", len(payload.Questions), quarter))
			return nil
		},
	}
}

func newAnswerCmd(apiBase *string) *cobra.Command {
	var quarter int
	cmd := &cobra.Command{
		Use:   "answer <question-id> <option-id>",
		Short: "Queue a single quiz answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cl.LoadSession(); err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			if quarter < 1 {
				return fmt.Errorf("--quarter is required")
			}
			if err := cl.PushAnswer(cl.PendingAnswer{
				Quarter:    quarter,
				QuestionID: strings.TrimSpace(args[0]),
				AnswerID:   strings.TrimSpace(args[1]),
			}); err != nil {
				return err
			}
			printSuccess("Answer queued.")
			return nil
		},
	}
	cmd.Flags().IntVar(&quarter, "quarter", 0, "quarter the question belongs to")
	return cmd
}

func newSubmitCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit [quarter]",
		Short: "Submit queued quiz answers for grading",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			answers, err := cl.TakeQuarterAnswers(quarter)
			if err != nil {
				return err
			}
			if len(answers) == 0 {
				printWarn("No queued answers. Run `nv quiz` first.")
				return nil
			}
			out, err := client.SubmitQuiz(ctx, sess.PlayerKey, quarter, answers, uuid.NewString())
			if err != nil {
				// Keep the answers so a transient failure is retryable.
				for qid, aid := range answers {
					_ = cl.PushAnswer(cl.PendingAnswer{Quarter: quarter, QuestionID: qid, AnswerID: aid})
				}
				return err
			}
			return renderQuizResult(out)
		},
	}
}

func newQuizResetCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz-reset [quarter]",
		Short: "Clear quiz answers and retake",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			if _, err := client.ResetQuiz(ctx, sess.PlayerKey, quarter, uuid.NewString()); err != nil {
				return err
			}
			if _, err := cl.TakeQuarterAnswers(quarter); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Q%d quiz cleared.", quarter))
			return nil
		},
	}
}

func newRebalanceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rebalance [quarter]",
		Short: "Trade and lock in the quarter's portfolio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}

			var trades []cl.Trade
			for {
				action, err := promptChoice("Action", []string{"buy", "sell", "done"}, "done")
				if err != nil {
					return err
				}
				if action == "done" {
					break
				}
				stockID, err := promptRequired("Stock id (see `nv catalog`)")
				if err != nil {
					return err
				}
				amount, err := promptFloat("Amount in ₹", 0)
				if err != nil {
					return err
				}
				trades = append(trades, cl.Trade{
					StockID: strings.ToLower(strings.TrimSpace(stockID)),
					Side:    action,
					Amount:  amount,
				})
			}

			out, err := client.Rebalance(ctx, sess.PlayerKey, quarter, trades, uuid.NewString())
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Q%d rebalance locked in (%d trades).", quarter, len(trades)))
			return renderGameState(out)
		},
	}
}

func newSkipCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "skip [quarter]",
		Short: "Hold the current portfolio through the quarter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			if _, err := client.SkipRebalance(ctx, sess.PlayerKey, quarter, uuid.NewString()); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Q%d held as-is.", quarter))
			return nil
		},
	}
}

func newAICmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ai [quarter]",
		Short: "Get the quarter's portfolio review",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			out, err := client.AIReview(ctx, sess.PlayerKey, quarter, uuid.NewString())
			if err != nil {
				return err
			}
			return renderAIReview(out)
		},
	}
}

func newPerfCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "perf [quarter]",
		Short: "Review the quarter's performance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			quarter, err := resolveQuarter(ctx, client, sess.PlayerKey, args)
			if err != nil {
				return err
			}
			out, err := client.PerformanceReview(ctx, sess.PlayerKey, quarter, uuid.NewString())
			if err != nil {
				return err
			}
			return renderPerformance(out)
		},
	}
}

func newNextCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Advance to the next quarter",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).NextQuarter(ctx, sess.PlayerKey, uuid.NewString())
			if err != nil {
				return err
			}
			return renderGameState(out)
		},
	}
}

func newHintCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hint",
		Short: "Spend one of your hints",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("no session, run `nv start`: %w", err)
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).UseHint(ctx, sess.PlayerKey, uuid.NewString())
			if err != nil {
				return err
			}
			payload, err := decodeInto[hintPayload](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Hint used. %d remaining.", payload.HintsRemaining))
			return nil
		},
	}
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Leaderboard(ctx)
			if err != nil {
				return err
			}
			return renderLeaderboard(out)
		},
	}
}
