package engine

import (
	"math"
	"testing"
)

func TestEventOverlayClampsAtBound(t *testing.T) {
	h := Holding{Stock: Stock{ID: "tcs", Sector: SectorIT, Price: 4000}, Quantity: 10}
	big := Event{
		ID:             "ev",
		AffectedStocks: []string{"tcs"},
		Direction:      1,
		ImpactScore:    100,
		Confidence:     ConfidenceHigh,
		ShockProfile:   ShockStep,
		DecayHalfLife:  1000,
	}
	if got := eventOverlay(h, []Event{big}); got != maxEventOverlay {
		t.Fatalf("positive overlay: got %v want %v", got, maxEventOverlay)
	}
	big.Direction = -1
	if got := eventOverlay(h, []Event{big}); got != -maxEventOverlay {
		t.Fatalf("negative overlay: got %v want %v", got, -maxEventOverlay)
	}
}

func TestEventOverlaySectorVsStockSensitivity(t *testing.T) {
	ev := Event{
		AffectedSectors: []Sector{SectorIT},
		AffectedStocks:  []string{"tcs"},
		Direction:       1,
		ImpactScore:     10,
		Confidence:      ConfidenceHigh,
		ShockProfile:    ShockStep,
		DecayHalfLife:   8,
	}
	direct := Holding{Stock: Stock{ID: "tcs", Sector: SectorIT}}
	peer := Holding{Stock: Stock{ID: "infosys", Sector: SectorIT}}
	outside := Holding{Stock: Stock{ID: "itc", Sector: SectorFMCG}}

	d := eventOverlay(direct, []Event{ev})
	p := eventOverlay(peer, []Event{ev})
	o := eventOverlay(outside, []Event{ev})

	if o != 0 {
		t.Fatalf("untouched holding got overlay %v", o)
	}
	if p <= 0 || d <= 0 {
		t.Fatalf("touched holdings must move with the event: direct=%v peer=%v", d, p)
	}
	ratio := p / d
	if math.Abs(ratio-sectorSensitivity/stockSensitivity) > 1e-9 {
		t.Fatalf("sector/stock sensitivity ratio: got %v want %v", ratio, sectorSensitivity/stockSensitivity)
	}
}

func TestDecayWeightBoundsAndMonotonic(t *testing.T) {
	if got := decayWeight(0.001); got != 0.25 {
		t.Fatalf("tiny half-life must clamp to floor, got %v", got)
	}
	if got := decayWeight(0); got != 0.25 {
		t.Fatalf("zero half-life must use the floor, got %v", got)
	}
	prev := 0.0
	for _, h := range []float64{2, 4, 6, 8, 10} {
		w := decayWeight(h)
		if w < 0.25 || w > 1.0 {
			t.Fatalf("half-life %v: weight %v out of bounds", h, w)
		}
		if w < prev {
			t.Fatalf("half-life %v: weight %v not monotonic", h, w)
		}
		prev = w
	}
}

func TestApplyEventImpactsDoesNotMutateInput(t *testing.T) {
	holdings := []Holding{
		{Stock: Stock{ID: "tcs", Sector: SectorIT, Price: 4000}, Quantity: 10, Value: 40000, AvgPrice: 3900},
	}
	events := []Event{{
		AffectedStocks: []string{"tcs"},
		Direction:      -1,
		ImpactScore:    40,
		Confidence:     ConfidenceHigh,
		ShockProfile:   ShockImpulse,
		DecayHalfLife:  4,
	}}

	out := ApplyEventImpacts(holdings, events, 3)

	if holdings[0].Stock.Price != 4000 || holdings[0].Value != 40000 {
		t.Fatalf("input holding mutated: %+v", holdings[0])
	}
	if out[0].Quantity != 10 || out[0].AvgPrice != 3900 {
		t.Fatalf("repricing must not touch quantity or avg price: %+v", out[0])
	}
	wantValue := float64(out[0].Quantity) * out[0].Stock.Price
	if math.Abs(out[0].Value-wantValue) > 1e-9 {
		t.Fatalf("value %v inconsistent with qty*price %v", out[0].Value, wantValue)
	}
}

func TestApplyEventImpactsWithinReturnEnvelope(t *testing.T) {
	holdings := []Holding{
		{Stock: Stock{ID: "tatasteel", Sector: SectorMetals, Price: 165}, Quantity: 100, Value: 16500},
	}
	events := GenerateQuarterEvents(5, holdings)
	out := ApplyEventImpacts(holdings, events, 5)

	r := out[0].Stock.Price/holdings[0].Stock.Price - 1
	bound := SectorVolatility(SectorMetals) + maxEventOverlay
	if math.Abs(r) > bound+1e-9 {
		t.Fatalf("quarterly return %v exceeds envelope %v", r, bound)
	}
}

func TestBaseSectorReturnSharedAcrossPlayers(t *testing.T) {
	a := baseSectorReturn(7, SectorBanking)
	b := baseSectorReturn(7, SectorBanking)
	if a != b {
		t.Fatalf("sector drift must be reproducible: %v vs %v", a, b)
	}
	if math.Abs(a) > SectorVolatility(SectorBanking) {
		t.Fatalf("drift %v exceeds sector volatility", a)
	}
	if baseSectorReturn(7, SectorBanking) == baseSectorReturn(8, SectorBanking) {
		t.Fatalf("different quarters should draw different drifts")
	}
}
