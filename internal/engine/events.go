package engine

import (
	"fmt"
	"sort"
)

type macroTemplate struct {
	Title       string
	Description string
	Type        EventType
	Sectors     []Sector
	// Bias is the template's directional lean: -1, 0 or +1. Zero means a fair
	// coin decides; otherwise the lean applies with a bounded chance of flip.
	Bias      int
	ImpactMin int
	ImpactMax int
	Shock     ShockProfile
	HalfLife  float64
}

type quarterTheme struct {
	Name      string
	Templates [2]macroTemplate
}

// quarterThemes is the static ordered catalog; quarter q draws from
// quarterThemes[(q-1) mod len].
var quarterThemes = []quarterTheme{
	{
		Name: "Budget & Guidance",
		Templates: [2]macroTemplate{
			{
				Title:       "Union Budget bets big on capex",
				Description: "The budget raises capital expenditure sharply, with roads, rail and defence orders expected to flow through the next two years.",
				Type:        EventPolicy,
				Sectors:     []Sector{SectorInfra, SectorMetals},
				Bias:        1, ImpactMin: 25, ImpactMax: 55, Shock: ShockStep, HalfLife: 8,
			},
			{
				Title:       "Fiscal deficit guidance spooks bond desks",
				Description: "A wider-than-expected deficit path pushes yields up, squeezing bank treasury books and rate-sensitive lenders.",
				Type:        EventPolicy,
				Sectors:     []Sector{SectorBanking, SectorInfra},
				Bias:        -1, ImpactMin: 20, ImpactMax: 45, Shock: ShockStep, HalfLife: 6,
			},
		},
	},
	{
		Name: "RBI Policy & Inflation",
		Templates: [2]macroTemplate{
			{
				Title:       "RBI holds rates, softens stance",
				Description: "The MPC keeps the repo rate unchanged and hints at a shallower path, easing pressure on borrowers and credit growth.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorBanking, SectorAuto},
				Bias:        1, ImpactMin: 20, ImpactMax: 45, Shock: ShockStep, HalfLife: 8,
			},
			{
				Title:       "Sticky food inflation tests the MPC",
				Description: "Vegetable and cereal prices refuse to cool, reviving talk of a longer pause and squeezing consumption baskets.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorFMCG, SectorBanking},
				Bias:        -1, ImpactMin: 18, ImpactMax: 40, Shock: ShockRamp, HalfLife: 6,
			},
		},
	},
	{
		Name: "Monsoon & Rural Demand",
		Templates: [2]macroTemplate{
			{
				Title:       "Above-normal monsoon forecast lifts rural hopes",
				Description: "IMD projects a strong monsoon, setting up a good kharif season and a rural demand revival for staples and entry-level vehicles.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorFMCG, SectorAuto},
				Bias:        1, ImpactMin: 20, ImpactMax: 42, Shock: ShockRamp, HalfLife: 10,
			},
			{
				Title:       "Patchy rains dent sowing in key belts",
				Description: "Deficient rainfall across central India delays sowing, clouding the outlook for rural wages and consumption.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorFMCG, SectorAuto},
				Bias:        -1, ImpactMin: 18, ImpactMax: 40, Shock: ShockRamp, HalfLife: 8,
			},
		},
	},
	{
		Name: "Global Crude Swings",
		Templates: [2]macroTemplate{
			{
				Title:       "Crude spikes on supply cuts",
				Description: "An extended round of production cuts sends Brent sharply higher, fattening upstream realisations and squeezing fuel consumers.",
				Type:        EventCommodity,
				Sectors:     []Sector{SectorEnergy},
				Bias:        1, ImpactMin: 25, ImpactMax: 55, Shock: ShockImpulse, HalfLife: 4,
			},
			{
				Title:       "Crude slides as demand wobbles",
				Description: "Weak global demand data drags crude lower, trimming upstream margins while easing input costs elsewhere.",
				Type:        EventCommodity,
				Sectors:     []Sector{SectorEnergy},
				Bias:        -1, ImpactMin: 22, ImpactMax: 48, Shock: ShockImpulse, HalfLife: 4,
			},
		},
	},
	{
		Name: "US Fed & FII Flows",
		Templates: [2]macroTemplate{
			{
				Title:       "Fed pivot hopes pull FII money back",
				Description: "Softer US inflation prints revive rate-cut bets and foreign flows return to Indian large caps.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorBanking, SectorIT},
				Bias:        1, ImpactMin: 22, ImpactMax: 50, Shock: ShockStep, HalfLife: 6,
			},
			{
				Title:       "Hawkish Fed minutes trigger FII selling",
				Description: "Higher-for-longer language drives a risk-off week, with foreign investors trimming index heavyweights.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorBanking, SectorIT},
				Bias:        -1, ImpactMin: 22, ImpactMax: 50, Shock: ShockImpulse, HalfLife: 4,
			},
		},
	},
	{
		Name: "Rupee & Exports",
		Templates: [2]macroTemplate{
			{
				Title:       "Rupee weakens past comfort levels",
				Description: "A sliding rupee flatters software and pharma export realisations while raising imported input costs.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorIT, SectorPharma},
				Bias:        1, ImpactMin: 18, ImpactMax: 40, Shock: ShockRamp, HalfLife: 8,
			},
			{
				Title:       "Rupee rallies on dollar retreat",
				Description: "A broad dollar pullback lifts the rupee, shaving the currency tailwind exporters have leaned on.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorIT, SectorPharma},
				Bias:        -1, ImpactMin: 16, ImpactMax: 36, Shock: ShockRamp, HalfLife: 6,
			},
		},
	},
	{
		Name: "Geopolitical Flashpoints",
		Templates: [2]macroTemplate{
			{
				Title:       "Shipping lanes disrupted by regional conflict",
				Description: "Rerouted freight and war-risk premiums raise logistics costs and stoke energy supply worries.",
				Type:        EventGeopolitical,
				Sectors:     []Sector{SectorEnergy, SectorMetals},
				Bias:        -1, ImpactMin: 25, ImpactMax: 55, Shock: ShockImpulse, HalfLife: 3,
			},
			{
				Title:       "De-escalation talks calm commodity markets",
				Description: "A negotiated pause cools freight rates and safe-haven flows, unwinding part of the war premium.",
				Type:        EventGeopolitical,
				Sectors:     []Sector{SectorEnergy, SectorMetals},
				Bias:        1, ImpactMin: 18, ImpactMax: 40, Shock: ShockStep, HalfLife: 6,
			},
		},
	},
	{
		Name: "Manufacturing & PLI Push",
		Templates: [2]macroTemplate{
			{
				Title:       "PLI disbursals accelerate for auto and electronics",
				Description: "Faster incentive payouts and fresh scheme tranches brighten the capex outlook for domestic manufacturing.",
				Type:        EventPolicy,
				Sectors:     []Sector{SectorAuto, SectorInfra},
				Bias:        1, ImpactMin: 20, ImpactMax: 45, Shock: ShockStep, HalfLife: 10,
			},
			{
				Title:       "Import duty tweak raises input costs",
				Description: "Revised duties on key components pinch margins for assemblers until pass-through pricing catches up.",
				Type:        EventPolicy,
				Sectors:     []Sector{SectorAuto, SectorMetals},
				Bias:        -1, ImpactMin: 16, ImpactMax: 38, Shock: ShockStep, HalfLife: 6,
			},
		},
	},
	{
		Name: "Tech Spending Cycles",
		Templates: [2]macroTemplate{
			{
				Title:       "Global IT budgets thaw after freeze",
				Description: "Large deal pipelines convert as clients restart discretionary programmes, lifting revenue visibility for exporters.",
				Type:        EventSentiment,
				Sectors:     []Sector{SectorIT},
				Bias:        1, ImpactMin: 22, ImpactMax: 50, Shock: ShockRamp, HalfLife: 10,
			},
			{
				Title:       "Clients defer discretionary tech spend",
				Description: "Renewals hold up but new programmes slip to later quarters, muting near-term growth guidance.",
				Type:        EventSentiment,
				Sectors:     []Sector{SectorIT},
				Bias:        -1, ImpactMin: 20, ImpactMax: 45, Shock: ShockRamp, HalfLife: 8,
			},
		},
	},
	{
		Name: "Credit Growth & Asset Quality",
		Templates: [2]macroTemplate{
			{
				Title:       "Credit growth prints in double digits",
				Description: "Broad-based loan growth with stable slippages supports lender earnings momentum.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorBanking},
				Bias:        1, ImpactMin: 20, ImpactMax: 45, Shock: ShockStep, HalfLife: 8,
			},
			{
				Title:       "Unsecured lending draws regulatory frown",
				Description: "Higher risk weights on unsecured retail books raise capital costs and cool a fast-growing segment.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorBanking},
				Bias:        -1, ImpactMin: 20, ImpactMax: 45, Shock: ShockStep, HalfLife: 6,
			},
		},
	},
	{
		Name: "Commodity Supercycle Whispers",
		Templates: [2]macroTemplate{
			{
				Title:       "China stimulus lifts metal prices",
				Description: "Fresh infrastructure stimulus in China firms up steel and base-metal prices, improving domestic realisations.",
				Type:        EventCommodity,
				Sectors:     []Sector{SectorMetals},
				Bias:        1, ImpactMin: 25, ImpactMax: 55, Shock: ShockImpulse, HalfLife: 5,
			},
			{
				Title:       "Global steel glut pressures prices",
				Description: "Export surpluses flood regional markets, compressing spreads for domestic producers.",
				Type:        EventCommodity,
				Sectors:     []Sector{SectorMetals},
				Bias:        -1, ImpactMin: 22, ImpactMax: 50, Shock: ShockRamp, HalfLife: 6,
			},
		},
	},
	{
		Name: "Healthcare & Generic Exports",
		Templates: [2]macroTemplate{
			{
				Title:       "US generics pricing stabilises",
				Description: "Price erosion in the US generics market bottoms out, restoring margin visibility for exporters.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorPharma},
				Bias:        1, ImpactMin: 18, ImpactMax: 42, Shock: ShockStep, HalfLife: 8,
			},
			{
				Title:       "Surprise plant inspection flags observations",
				Description: "A regulatory inspection at a key facility raises remediation worries and clouds upcoming launches.",
				Type:        EventMacro,
				Sectors:     []Sector{SectorPharma},
				Bias:        -1, ImpactMin: 20, ImpactMax: 48, Shock: ShockImpulse, HalfLife: 4,
			},
		},
	},
	{
		Name: "Market Sentiment & Retail Flows",
		Templates: [2]macroTemplate{
			{
				Title:       "SIP inflows hit a fresh record",
				Description: "Monthly systematic investment inflows set another record, cushioning dips with steady domestic buying.",
				Type:        EventSentiment,
				Sectors:     []Sector{SectorBanking, SectorFMCG, SectorIT},
				Bias:        1, ImpactMin: 15, ImpactMax: 35, Shock: ShockRamp, HalfLife: 10,
			},
			{
				Title:       "Froth warnings trigger broad profit-booking",
				Description: "Valuation warnings from fund houses set off a round of profit-taking across crowded trades.",
				Type:        EventSentiment,
				Sectors:     []Sector{SectorAuto, SectorInfra, SectorMetals},
				Bias:        -1, ImpactMin: 18, ImpactMax: 40, Shock: ShockImpulse, HalfLife: 4,
			},
		},
	},
}

// GenerateQuarterEvents synthesizes the quarter's market events from the
// seeded stream. The draw order below is the contract; reordering any draw
// changes every replayed game:
//
//  1. per earnings subject: beat, impact
//  2. primary macro: template, direction (one or two draws), impact
//  3. second-macro gate, then floor cut, template, direction, impact
//  4. tip gate, then stock, up/down, impact
func GenerateQuarterEvents(quarter int, holdings []Holding) []Event {
	rng := NewStream(SeedFor(quarter, holdings))
	events := make([]Event, 0, 6)

	for _, subject := range earningsSubjects(holdings) {
		beat := rng.Chance(probEarningsBeat)
		impact := rng.IntN(20, 55)
		direction := 1
		verdict := "beats"
		versus := "ahead of"
		if !beat {
			direction = -1
			verdict = "misses"
			versus = "below"
		}
		events = append(events, Event{
			ID:              fmt.Sprintf("q%d-earnings-%s", quarter, subject.ID),
			Title:           fmt.Sprintf("%s %s street estimates", subject.Name, verdict),
			Description:     fmt.Sprintf("Quarterly results for %s come in %s consensus, moving the stock and its %s peers.", subject.Name, versus, subject.Sector),
			Type:            EventEarnings,
			AffectedSectors: []Sector{subject.Sector},
			AffectedStocks:  []string{subject.ID},
			Direction:       direction,
			ImpactScore:     impact,
			Confidence:      ConfidenceHigh,
			ShockProfile:    ShockImpulse,
			DecayHalfLife:   4,
		})
	}

	theme := quarterThemes[(quarter-1)%len(quarterThemes)]
	primary := drawMacro(rng, theme, 0, fmt.Sprintf("q%d-macro-1", quarter))
	events = append(events, primary)

	if rng.Chance(probSecondMacro) {
		floorCut := rng.IntN(0, 4)
		events = append(events, drawMacro(rng, theme, floorCut, fmt.Sprintf("q%d-macro-2", quarter)))
	}

	if rng.Chance(probTip) {
		catalog := Catalog()
		pick := catalog[rng.IntN(0, len(catalog)-1)]
		up := rng.Chance(probTipUp)
		impact := rng.IntN(10, 28)
		direction := 1
		slant := "run up"
		if !up {
			direction = -1
			slant = "fall sharply"
		}
		events = append(events, Event{
			ID:              fmt.Sprintf("q%d-tip-%s", quarter, pick.ID),
			Title:           fmt.Sprintf("Forwarded tip: %s set to %s", pick.Symbol, slant),
			Description:     fmt.Sprintf("A widely forwarded message claims insider knowledge that %s will %s this quarter. The source is unverified.", pick.Name, slant),
			Type:            EventSentiment,
			AffectedSectors: []Sector{pick.Sector},
			AffectedStocks:  []string{pick.ID},
			Direction:       direction,
			ImpactScore:     impact,
			Confidence:      ConfidenceLow,
			IsUnverifiedTip: true,
			ShockProfile:    ShockRamp,
			DecayHalfLife:   2,
		})
	}

	return events
}

// drawMacro consumes template, direction and impact draws for one theme event.
// floorCut lowers the impact floor for the follow-on event, bounded at 10.
func drawMacro(rng *Stream, theme quarterTheme, floorCut int, id string) Event {
	tmpl := theme.Templates[rng.IntN(0, 1)]

	direction := tmpl.Bias
	if direction == 0 {
		direction = 1
		if rng.Chance(0.5) {
			direction = -1
		}
	} else if rng.Chance(probBiasFlip) {
		direction = -direction
	}

	lo := tmpl.ImpactMin - floorCut
	if lo < 10 {
		lo = 10
	}
	impact := rng.IntN(lo, tmpl.ImpactMax)

	return Event{
		ID:              id,
		Title:           tmpl.Title,
		Description:     tmpl.Description,
		Type:            tmpl.Type,
		AffectedSectors: append([]Sector(nil), tmpl.Sectors...),
		Direction:       direction,
		ImpactScore:     impact,
		Confidence:      ConfidenceMedium,
		ShockProfile:    tmpl.Shock,
		DecayHalfLife:   tmpl.HalfLife,
	}
}

// earningsSubjects picks the top-3 holdings by weight, ties broken by stock
// id for stability, or the fallback trio for an empty portfolio.
func earningsSubjects(holdings []Holding) []Stock {
	if len(holdings) == 0 {
		subjects := make([]Stock, 0, len(fallbackEarningsTrio))
		for _, id := range fallbackEarningsTrio {
			if s, ok := StockByID(id); ok {
				subjects = append(subjects, s)
			}
		}
		return subjects
	}

	ranked := append([]Holding(nil), holdings...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Stock.ID < ranked[j].Stock.ID
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	subjects := make([]Stock, len(ranked))
	for i, h := range ranked {
		subjects[i] = h.Stock
	}
	return subjects
}
