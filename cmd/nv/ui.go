package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"nivesh/internal/engine"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

type catalogPayload struct {
	Stocks []engine.Stock `json:"stocks"`
}

type eventsPayload struct {
	Quarter int            `json:"quarter"`
	Events  []engine.Event `json:"events"`
}

type quizPayload struct {
	Quarter   int               `json:"quarter"`
	Questions []engine.Question `json:"questions"`
}

type quizResultPayload struct {
	Quarter int  `json:"quarter"`
	Score   int  `json:"score"`
	Passed  bool `json:"passed"`
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
}

type aiReviewPayload struct {
	Quarter int    `json:"quarter"`
	Review  string `json:"review"`
}

type performancePayload struct {
	Quarter int                   `json:"quarter"`
	Record  *engine.QuarterRecord `json:"record"`
}

type hintPayload struct {
	HintsRemaining int `json:"hints_remaining"`
}

type leaderboardPayload struct {
	Rows []leaderboardRow `json:"rows"`
}

type leaderboardRow struct {
	Rank        int     `json:"rank"`
	Player      string  `json:"player"`
	TotalScore  int     `json:"total_score"`
	TotalReturn float64 `json:"total_return"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.2f", min))
			continue
		}
		return v, nil
	}
}

func renderGameState(raw map[string]any) error {
	st, err := decodeInto[engine.GameState](raw)
	if err != nil {
		return err
	}
	if !st.IsStarted {
		printInfo("No game in progress. Run `nv start`.")
		return nil
	}

	accent.Printf("\n== NIVESH (Quarter %d of %d) ==\n", st.CurrentQuarter, engine.TotalQuarters)
	invested := engine.InvestedValue(st.Portfolio)
	total := st.Cash + invested
	fmt.Printf("Cash:          %s\n", formatRupees(st.Cash))
	fmt.Printf("Invested:      %s\n", formatRupees(invested))
	fmt.Printf("Portfolio:     %s\n", formatRupees(total))
	fmt.Printf("Return:        %s\n", colorizePercent((total-st.StartingCapital)/st.StartingCapital*100))
	fmt.Printf("Score:         %d\n", st.TotalScore)
	fmt.Printf("Hints left:    %d\n", st.HintsRemaining)
	if st.IsComplete {
		success.Println("Campaign complete!")
	}

	fmt.Println()
	accent.Println("Holdings")
	if len(st.Portfolio) == 0 {
		printInfo("All cash. Use `nv rebalance` to invest.")
	} else {
		fmt.Printf("%-12s %-10s %8s %12s %12s %8s\n", "STOCK", "SECTOR", "QTY", "PRICE", "VALUE", "WEIGHT")
		for _, h := range st.Portfolio {
			fmt.Printf("%-12s %-10s %8d %12s %12s %7.1f%%\n",
				h.Stock.Symbol,
				h.Stock.Sector,
				h.Quantity,
				formatRupees(h.Stock.Price),
				formatRupees(h.Value),
				h.Weight,
			)
		}
	}

	if rec := st.Record(st.CurrentQuarter); rec != nil && !st.IsComplete {
		fmt.Println()
		accent.Printf("Q%d checklist\n", rec.Quarter)
		fmt.Printf("  [%s] events reviewed\n", tick(rec.EventsReviewed))
		fmt.Printf("  [%s] quiz passed (score %d)\n", tick(rec.QuizPassed), rec.QuizScore)
		fmt.Printf("  [%s] rebalanced\n", tick(rec.Rebalanced))
		fmt.Printf("  [%s] ai reviewed\n", tick(rec.AIReviewed))
		fmt.Printf("  [%s] performance reviewed\n", tick(rec.PerformanceReviewed))
	}

	if len(st.Achievements) > 0 {
		fmt.Println()
		accent.Println("Achievements")
		fmt.Println("  " + strings.Join(st.Achievements, ", "))
	}
	fmt.Println()
	return nil
}

func renderCatalog(raw map[string]any) error {
	payload, err := decodeInto[catalogPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== STOCK CATALOG ==")
	fmt.Printf("%-12s %-10s %-24s %-8s %12s %8s %8s\n", "ID", "SYMBOL", "NAME", "SECTOR", "PRICE", "P/E", "DIV%")
	for _, s := range payload.Stocks {
		fmt.Printf("%-12s %-10s %-24s %-8s %12s %8.1f %7.2f%%\n",
			s.ID,
			s.Symbol,
			truncate(s.Name, 24),
			s.Sector,
			formatRupees(s.Price),
			s.PERatio,
			s.DividendYield,
		)
	}
	fmt.Println()
	return nil
}

func renderEvents(raw map[string]any) error {
	payload, err := decodeInto[eventsPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== Q%d MARKET EVENTS ==\n", payload.Quarter)
	if len(payload.Events) == 0 {
		printInfo("A quiet quarter. No events.")
		return nil
	}
	for _, ev := range payload.Events {
		fmt.Println()
		if ev.IsUnverifiedTip {
			warn.Printf("[TIP] %s\n", ev.Title)
		} else {
			neutral.Printf("[%s] %s\n", strings.ToUpper(string(ev.Type)), ev.Title)
		}
		fmt.Printf("  %s\n", ev.Description)
		fmt.Printf("  direction=%s impact=%d confidence=%s profile=%s\n",
			directionLabel(ev.Direction), ev.ImpactScore, ev.Confidence, ev.ShockProfile)
		if len(ev.AffectedStocks) > 0 {
			fmt.Printf("  stocks: %s\n", strings.Join(ev.AffectedStocks, ", "))
		}
		if len(ev.AffectedSectors) > 0 {
			sectors := make([]string, 0, len(ev.AffectedSectors))
			for _, s := range ev.AffectedSectors {
				sectors = append(sectors, string(s))
			}
			fmt.Printf("  sectors: %s\n", strings.Join(sectors, ", "))
		}
	}
	fmt.Println()
	return nil
}

func renderQuestion(n, total int, q engine.Question) {
	accent.Printf("\nQuestion %d of %d\n", n, total)
	fmt.Println(q.Prompt)
	for _, opt := range q.Options {
		fmt.Printf("  %s) %s\n", opt.ID, opt.Text)
	}
}

func renderQuizResult(raw map[string]any) error {
	out, err := decodeInto[quizResultPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== Q%d QUIZ RESULT ==\n", out.Quarter)
	fmt.Printf("Correct: %d of %d\n", out.Correct, out.Total)
	fmt.Printf("Score:   %d\n", out.Score)
	if out.Passed {
		printSuccess("Passed. Rebalancing unlocked.")
	} else {
		printWarn("Not passed. Run `nv quiz-reset` and retake.")
	}
	fmt.Println()
	return nil
}

func renderAIReview(raw map[string]any) error {
	out, err := decodeInto[aiReviewPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== Q%d PORTFOLIO REVIEW ==\n", out.Quarter)
	fmt.Println(out.Review)
	fmt.Println()
	return nil
}

func renderPerformance(raw map[string]any) error {
	out, err := decodeInto[performancePayload](raw)
	if err != nil {
		return err
	}
	if out.Record == nil {
		printInfo("No record for that quarter.")
		return nil
	}
	rec := out.Record
	accent.Printf("\n== Q%d PERFORMANCE ==\n", rec.Quarter)
	fmt.Printf("Portfolio value:  %s\n", formatRupees(rec.PortfolioValue))
	fmt.Printf("Quarter return:   %s\n", colorizePercent(rec.QuarterReturn))
	fmt.Printf("Total return:     %s\n", colorizePercent(rec.TotalReturn))
	fmt.Printf("Diversification:  %.1f / 100\n", rec.DiversificationScore)
	fmt.Printf("Risk:             %.1f / 100\n", rec.RiskScore)
	fmt.Println()
	return nil
}

func renderLeaderboard(raw map[string]any) error {
	out, err := decodeInto[leaderboardPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== LEADERBOARD ==")
	if len(out.Rows) == 0 {
		printInfo("No leaderboard rows yet.")
		return nil
	}
	fmt.Printf("%-6s %-20s %12s %12s\n", "RANK", "PLAYER", "SCORE", "RETURN")
	for _, row := range out.Rows {
		fmt.Printf("%-6d %-20s %12d %11.1f%%\n",
			row.Rank,
			truncate(row.Player, 20),
			row.TotalScore,
			row.TotalReturn,
		)
	}
	fmt.Println()
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func tick(done bool) string {
	if done {
		return success.Sprint("x")
	}
	return " "
}

func directionLabel(d int) string {
	switch {
	case d > 0:
		return success.Sprint("up")
	case d < 0:
		return danger.Sprint("down")
	default:
		return neutral.Sprint("flat")
	}
}

func colorizePercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

// formatRupees renders an amount in the Indian digit grouping, e.g.
// ₹10,00,000.00.
func formatRupees(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	frac := int64((v-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, indianComma(whole), frac)
}

// indianComma groups the last three digits, then pairs: 1234567 -> 12,34,567.
func indianComma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	head := s[:len(s)-3]
	tail := s[len(s)-3:]
	var b strings.Builder
	pre := len(head) % 2
	if pre > 0 {
		b.WriteString(head[:1])
		if len(head) > 1 {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(head); i += 2 {
		b.WriteString(head[i : i+2])
		if i+2 < len(head) {
			b.WriteByte(',')
		}
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
