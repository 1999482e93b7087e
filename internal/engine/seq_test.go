package engine

import "testing"

func testHolding(id string, sector Sector, weight float64) Holding {
	return Holding{
		Stock:  Stock{ID: id, Symbol: id, Sector: sector, Price: 100},
		Weight: weight,
	}
}

func TestSeedForIgnoresHoldingOrder(t *testing.T) {
	a := []Holding{
		testHolding("tcs", SectorIT, 40),
		testHolding("itc", SectorFMCG, 60),
	}
	b := []Holding{
		testHolding("itc", SectorFMCG, 60),
		testHolding("tcs", SectorIT, 40),
	}
	if SeedFor(3, a) != SeedFor(3, b) {
		t.Fatalf("seed must not depend on holding order")
	}
}

func TestSeedForVariesByQuarterAndWeight(t *testing.T) {
	holdings := []Holding{testHolding("tcs", SectorIT, 100)}
	if SeedFor(1, holdings) == SeedFor(2, holdings) {
		t.Fatalf("different quarters produced the same seed")
	}
	shifted := []Holding{testHolding("tcs", SectorIT, 99.5)}
	if SeedFor(1, holdings) == SeedFor(1, shifted) {
		t.Fatalf("different weights produced the same seed")
	}
}

func TestSeedForRoundsWeightsToTwoDecimals(t *testing.T) {
	a := []Holding{testHolding("tcs", SectorIT, 33.333333)}
	b := []Holding{testHolding("tcs", SectorIT, 33.3349)}
	if SeedFor(1, a) != SeedFor(1, b) {
		t.Fatalf("weights equal at 2dp must produce the same seed")
	}
}

func TestSeedForPanicsOnNaNWeight(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on NaN weight")
		}
	}()
	bad := []Holding{{Stock: Stock{ID: "tcs"}, Weight: nan()}}
	SeedFor(1, bad)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestStreamDeterministicAndBounded(t *testing.T) {
	a := NewStream(12345)
	b := NewStream(12345)
	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("draw %d diverged: %v vs %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("draw %d out of [0,1): %v", i, va)
		}
	}
}

func TestStreamIntN(t *testing.T) {
	rng := NewStream(99)
	for i := 0; i < 500; i++ {
		v := rng.IntN(10, 28)
		if v < 10 || v > 28 {
			t.Fatalf("IntN out of range: %d", v)
		}
	}
	if got := NewStream(1).IntN(7, 7); got != 7 {
		t.Fatalf("degenerate range: got %d want 7", got)
	}
}
