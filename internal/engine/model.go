package engine

import "errors"

const (
	// StartingCapital is the fixed bankroll every new game begins with, in rupees.
	StartingCapital = 1_000_000.0

	TotalQuarters = 12
	HintAllowance = 3

	// QuizPassMark is the minimum score (0-100) the grading layer treats as a pass.
	QuizPassMark = 60
)

// Generation probabilities. These are part of the engine contract, not tuning
// knobs: changing any of them changes every replayed game.
const (
	probEarningsBeat = 0.6
	probSecondMacro  = 0.4
	probTip          = 0.25
	probBiasFlip     = 0.2
	probTipUp        = 0.6
)

const (
	// maxEventOverlay bounds the summed event overlay per holding per quarter.
	maxEventOverlay = 0.06

	// quarterWeeks is the decay window one quarter spans.
	quarterWeeks = 12.0

	sectorSensitivity = 0.4
	stockSensitivity  = 1.0
)

var (
	ErrGameNotStarted           = errors.New("game has not been started")
	ErrInvalidTrade             = errors.New("invalid trade")
	ErrInvalidQuarterTransition = errors.New("invalid quarter transition")
	ErrQuarterNotFound          = errors.New("quarter record not found")
	ErrNoHintsRemaining         = errors.New("no hints remaining")
)
