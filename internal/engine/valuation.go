package engine

import "math"

var confidenceMultiplier = map[Confidence]float64{
	ConfidenceHigh:   1.0,
	ConfidenceMedium: 0.75,
	ConfidenceLow:    0.5,
}

var shapeWeight = map[ShockProfile]float64{
	ShockImpulse: 0.6,
	ShockRamp:    0.8,
	ShockStep:    1.0,
}

// ApplyEventImpacts reprices holdings for the quarter: per-sector base return
// plus a clamped event overlay. It never trades; quantity and avgPrice pass
// through untouched, and the inputs are not mutated. Called exactly once per
// quarter, when the rebalance is submitted.
func ApplyEventImpacts(holdings []Holding, events []Event, quarter int) []Holding {
	out := make([]Holding, len(holdings))
	for i, h := range holdings {
		rBase := baseSectorReturn(quarter, h.Stock.Sector)
		overlay := eventOverlay(h, events)

		next := h
		next.Stock.Price = h.Stock.Price * (1 + rBase + overlay)
		next.Value = float64(next.Quantity) * next.Stock.Price
		out[i] = next
	}
	return out
}

// baseSectorReturn draws the quarter's sector drift in [-vol, +vol]. The seed
// depends on (quarter, sector) only, so every player sees the same drift in a
// given quarter regardless of what they hold.
func baseSectorReturn(quarter int, sector Sector) float64 {
	rng := NewStream(sectorSeed(quarter, sector))
	vol := SectorVolatility(sector)
	return (rng.Next()*2 - 1) * vol
}

// eventOverlay sums each touching event's contribution and clamps the total
// so no single quarter's event cluster can dislocate a price beyond ±6%.
func eventOverlay(h Holding, events []Event) float64 {
	var sum float64
	for _, ev := range events {
		sensitivity := 0.0
		if containsString(ev.AffectedStocks, h.Stock.ID) {
			sensitivity = stockSensitivity
		} else if containsSector(ev.AffectedSectors, h.Stock.Sector) {
			sensitivity = sectorSensitivity
		}
		if sensitivity == 0 {
			continue
		}
		sum += float64(ev.ImpactScore) / 100 *
			float64(ev.Direction) *
			sensitivity *
			confidenceMultiplier[ev.Confidence] *
			shapeWeight[ev.ShockProfile] *
			decayWeight(ev.DecayHalfLife)
	}
	return clamp(sum, -maxEventOverlay, maxEventOverlay)
}

// decayWeight is the time-average of 2^(-t/halfLife) over the quarter's
// 12-week window, clamped to [0.25, 1.0].
func decayWeight(halfLife float64) float64 {
	if halfLife <= 0 {
		return 0.25
	}
	avg := halfLife / (quarterWeeks * math.Ln2) * (1 - math.Exp2(-quarterWeeks/halfLife))
	return clamp(avg, 0.25, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func containsSector(xs []Sector, s Sector) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
