package engine

import "math"

// Achievement badge ids.
const (
	BadgeFirstTrade       = "first-trade"
	BadgeDiversified      = "diversified-70"
	BadgeQuizPerfect      = "quiz-perfect"
	BadgeAllQuizzesPassed = "all-quizzes-passed"
	BadgeFinishedInProfit = "finished-in-profit"
	BadgeCampaignComplete = "campaign-complete"
)

// The controller is a set of pure reducers: each takes a GameState value,
// clones it, applies one transition and returns the result. Callers own
// serialization of mutating calls against a single state (spec'd single
// writer); the reducers themselves never share memory with their inputs.

// StartGame creates a fresh game at quarter 1 with its events already
// synthesized against the empty portfolio.
func StartGame() GameState {
	st := GameState{
		IsStarted:       true,
		StartingCapital: StartingCapital,
		CurrentCapital:  StartingCapital,
		Cash:            StartingCapital,
		CurrentQuarter:  1,
		HintsRemaining:  HintAllowance,
	}
	events := GenerateQuarterEvents(1, nil)
	st.Quarters = []QuarterRecord{newQuarterRecord(1, events, &st)}
	return st
}

// ResetGame returns the pre-start state with initial constants.
func ResetGame() GameState {
	return GameState{
		StartingCapital: StartingCapital,
		CurrentCapital:  StartingCapital,
		Cash:            StartingCapital,
		HintsRemaining:  HintAllowance,
	}
}

// ProceedToNextQuarter advances the quarter counter and synthesizes the new
// quarter's events against the current holdings. Impacts are NOT applied
// here; that happens only at rebalance. Advancing from quarter 12 is the
// terminal transition; anything after that is rejected, never clamped.
func ProceedToNextQuarter(st GameState) (GameState, error) {
	if !st.IsStarted {
		return st, ErrGameNotStarted
	}
	if st.IsComplete || st.CurrentQuarter > TotalQuarters {
		return st, ErrInvalidQuarterTransition
	}

	next := st.Clone()
	if next.CurrentQuarter == TotalQuarters {
		next.CurrentQuarter++
		next.IsComplete = true
		finishGame(&next)
		return next, nil
	}

	next.CurrentQuarter++
	events := GenerateQuarterEvents(next.CurrentQuarter, next.Portfolio)
	next.Quarters = append(next.Quarters, newQuarterRecord(next.CurrentQuarter, events, &next))
	return next, nil
}

// RebalancePortfolio applies the player's target holdings, reprices them with
// the quarter's already-generated events, and records the quarter's final
// valuation and metrics. A quarter reprices at most once: calling this again
// after the quarter is already rebalanced returns the state unchanged, so
// event impacts and the diversification bonus land exactly one time.
func RebalancePortfolio(st GameState, target []Holding, cashRemaining float64) (GameState, error) {
	if !st.IsStarted {
		return st, ErrGameNotStarted
	}
	if cashRemaining < 0 {
		return st, ErrInvalidTrade
	}
	for _, h := range target {
		if h.Quantity < 0 {
			return st, ErrInvalidTrade
		}
	}

	next := st.Clone()
	rec := next.Record(next.CurrentQuarter)
	if rec == nil {
		return st, ErrQuarterNotFound
	}
	if rec.Rebalanced {
		return next, nil
	}

	repriced := RecalcWeights(ApplyEventImpacts(target, rec.Events, rec.Quarter))
	next.Portfolio = repriced
	next.Cash = cashRemaining
	next.CurrentCapital = cashRemaining + InvestedValue(repriced)

	rec.Rebalanced = true
	snapshotRecord(rec, &next)
	next.TotalScore += int(math.Round(rec.DiversificationScore / 10))

	if len(repriced) > 0 {
		award(&next, BadgeFirstTrade)
	}
	if rec.DiversificationScore >= 70 {
		award(&next, BadgeDiversified)
	}
	return next, nil
}

// MarkRebalanced is the skip path: it sets the flag without repricing, so a
// player who stands pat still moves through the gate.
func MarkRebalanced(st GameState, quarter int) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, next *GameState) {
		rec.Rebalanced = true
		snapshotRecord(rec, next)
	})
}

func MarkEventsReviewed(st GameState, quarter int) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, _ *GameState) {
		rec.EventsReviewed = true
	})
}

func MarkAIReviewed(st GameState, quarter int) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, _ *GameState) {
		rec.AIReviewed = true
	})
}

func MarkPerformanceReviewed(st GameState, quarter int) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, _ *GameState) {
		rec.PerformanceReviewed = true
	})
}

// SubmitQuizResult records the graded quiz. A repeat submission without an
// explicit ResetQuiz is a no-op, which keeps the pass flag monotonic.
func SubmitQuizResult(st GameState, quarter, score int, passed bool) (GameState, error) {
	if !st.IsStarted {
		return st, ErrGameNotStarted
	}
	next := st.Clone()
	rec := next.Record(quarter)
	if rec == nil {
		return st, ErrQuarterNotFound
	}
	if rec.QuizSubmitted {
		return next, nil
	}
	rec.QuizSubmitted = true
	rec.QuizScore = score
	rec.QuizPassed = passed
	if passed {
		next.TotalScore += score
	}
	if score >= 100 {
		award(&next, BadgeQuizPerfect)
	}
	return next, nil
}

func SaveQuizAnswer(st GameState, quarter int, questionID, answerID string) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, _ *GameState) {
		if rec.QuizAnswers == nil {
			rec.QuizAnswers = make(map[string]string)
		}
		rec.QuizAnswers[questionID] = answerID
	})
}

// ResetQuiz clears only the quiz fields for one quarter so it can be retaken.
// No other step flag is ever reset.
func ResetQuiz(st GameState, quarter int) (GameState, error) {
	return setFlag(st, quarter, func(rec *QuarterRecord, _ *GameState) {
		rec.QuizSubmitted = false
		rec.QuizPassed = false
		rec.QuizScore = 0
		rec.QuizAnswers = nil
	})
}

func UseHint(st GameState) (GameState, error) {
	if !st.IsStarted {
		return st, ErrGameNotStarted
	}
	if st.HintsRemaining <= 0 {
		return st, ErrNoHintsRemaining
	}
	next := st.Clone()
	next.HintsRemaining--
	next.HintsUsed++
	return next, nil
}

func setFlag(st GameState, quarter int, apply func(*QuarterRecord, *GameState)) (GameState, error) {
	if !st.IsStarted {
		return st, ErrGameNotStarted
	}
	next := st.Clone()
	rec := next.Record(quarter)
	if rec == nil {
		return st, ErrQuarterNotFound
	}
	apply(rec, &next)
	return next, nil
}

// newQuarterRecord snapshots the state as the quarter opens; the rebalance
// overwrites the valuation fields with the quarter's final numbers.
func newQuarterRecord(quarter int, events []Event, st *GameState) QuarterRecord {
	rec := QuarterRecord{
		Quarter: quarter,
		Events:  events,
	}
	snapshotRecord(&rec, st)
	return rec
}

func snapshotRecord(rec *QuarterRecord, st *GameState) {
	rec.PortfolioValue = st.Cash + InvestedValue(st.Portfolio)
	if st.StartingCapital > 0 {
		rec.TotalReturn = (rec.PortfolioValue - st.StartingCapital) / st.StartingCapital * 100
	}
	rec.QuarterReturn = 0
	if prev := st.Record(rec.Quarter - 1); prev != nil && prev.PortfolioValue > 0 {
		rec.QuarterReturn = (rec.PortfolioValue - prev.PortfolioValue) / prev.PortfolioValue * 100
	}
	rec.DiversificationScore = DiversificationScore(st.Portfolio)
	rec.RiskScore = RiskScore(st.Portfolio)
}

func finishGame(st *GameState) {
	award(st, BadgeCampaignComplete)
	if st.CurrentCapital > st.StartingCapital {
		award(st, BadgeFinishedInProfit)
	}
	allPassed := len(st.Quarters) == TotalQuarters
	for _, rec := range st.Quarters {
		if !rec.QuizPassed {
			allPassed = false
			break
		}
	}
	if allPassed {
		award(st, BadgeAllQuizzesPassed)
	}
}

func award(st *GameState, badge string) {
	if !st.HasAchievement(badge) {
		st.Achievements = append(st.Achievements, badge)
	}
}
