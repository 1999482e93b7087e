package store

import (
	"fmt"

	"nivesh/internal/engine"
)

// Migrate upgrades a loaded save to the current schema and returns the state
// the engine can use. Upgrades are best-effort by policy: a stale layout must
// never destroy a player's progress, so missing aggregates are recomputed
// from whatever was persisted rather than failing the load.
func Migrate(saved SavedGame) (engine.GameState, error) {
	if saved.SchemaVersion > CurrentSchemaVersion {
		return engine.GameState{}, fmt.Errorf("save schema %d is newer than supported %d", saved.SchemaVersion, CurrentSchemaVersion)
	}
	st := saved.State
	if saved.SchemaVersion == CurrentSchemaVersion {
		return st, nil
	}

	// v1 saves predate diversification/risk scores on quarter records and
	// the hint allowance. Backfill the most recent record from the persisted
	// portfolio; older records keep whatever they carried.
	if len(st.Quarters) > 0 {
		rec := &st.Quarters[len(st.Quarters)-1]
		if rec.DiversificationScore == 0 && rec.RiskScore == 0 && len(st.Portfolio) > 0 {
			weighted := engine.RecalcWeights(st.Portfolio)
			rec.DiversificationScore = engine.DiversificationScore(weighted)
			rec.RiskScore = engine.RiskScore(weighted)
		}
	}
	if st.HintsRemaining == 0 && st.HintsUsed == 0 && st.IsStarted {
		st.HintsRemaining = engine.HintAllowance
	}
	return st, nil
}
