package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
)

// The salts pin the two independent draw domains. Changing either invalidates
// every replay, so they are versioned.
const (
	eventSeedSalt  = "nivesh-events-v1"
	sectorSeedSalt = "nivesh-sector-v1"
)

// SeedFor derives the quarter's event seed from the quarter number and the
// canonicalized portfolio composition: the {stockID, weight@2dp} multiset
// sorted by stock id. Equal inputs always yield equal seeds; nothing else
// (wall clock, entropy) may enter.
//
// NaN weights are a caller contract violation: they would silently break
// replay, so they fail loudly instead of being smoothed over.
func SeedFor(quarter int, holdings []Holding) uint32 {
	type part struct {
		id     string
		weight float64
	}
	parts := make([]part, 0, len(holdings))
	for _, h := range holdings {
		if math.IsNaN(h.Weight) || math.IsInf(h.Weight, 0) {
			panic(fmt.Sprintf("engine: non-finite weight for %q breaks seed reproducibility", h.Stock.ID))
		}
		parts = append(parts, part{id: h.Stock.ID, weight: h.Weight})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].id < parts[j].id })

	var b strings.Builder
	b.WriteString(eventSeedSalt)
	fmt.Fprintf(&b, "|q%d", quarter)
	for _, p := range parts {
		fmt.Fprintf(&b, "|%s:%.2f", p.id, p.weight)
	}
	return hash32(b.String())
}

func sectorSeed(quarter int, sector Sector) uint32 {
	return hash32(fmt.Sprintf("%s|q%d|%s", sectorSeedSalt, quarter, sector))
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// Stream is a mulberry32 generator: a tiny 32-bit stream that is identical
// across platforms for a given seed. Draw order is part of the engine
// contract; see GenerateQuarterEvents.
type Stream struct {
	state uint32
}

func NewStream(seed uint32) *Stream {
	return &Stream{state: seed}
}

// Next returns the next float in [0, 1).
func (s *Stream) Next() float64 {
	s.state += 0x6D2B79F5
	z := s.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// IntN returns a uniform integer in [lo, hi], consuming one draw.
func (s *Stream) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(s.Next()*float64(hi-lo+1))
}

// Chance consumes one draw and reports whether it fell below p.
func (s *Stream) Chance(p float64) bool {
	return s.Next() < p
}
