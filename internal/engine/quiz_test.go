package engine

import (
	"strings"
	"testing"
)

func quizFixtureEvents() []Event {
	return []Event{
		{
			ID: "q3-earnings-tcs", Type: EventEarnings,
			Title:           "Tata Consultancy Services beats street estimates",
			AffectedSectors: []Sector{SectorIT}, AffectedStocks: []string{"tcs"},
			Direction: 1, ImpactScore: 35, Confidence: ConfidenceHigh,
			ShockProfile: ShockImpulse, DecayHalfLife: 4,
		},
		{
			ID: "q3-macro-1", Type: EventMacro,
			Title:           "Sticky food inflation tests the MPC",
			AffectedSectors: []Sector{SectorFMCG, SectorBanking},
			Direction:       -1, ImpactScore: 30, Confidence: ConfidenceMedium,
			ShockProfile: ShockRamp, DecayHalfLife: 6,
		},
		{
			ID: "q3-tip-ongc", Type: EventSentiment,
			Title:           "Forwarded tip: ONGC set to run up",
			AffectedSectors: []Sector{SectorEnergy}, AffectedStocks: []string{"ongc"},
			Direction: 1, ImpactScore: 18, Confidence: ConfidenceLow,
			IsUnverifiedTip: true, ShockProfile: ShockRamp, DecayHalfLife: 2,
		},
	}
}

func TestBuildQuestionsCapAndOrder(t *testing.T) {
	holdings := []Holding{
		{Stock: Stock{ID: "itc", Symbol: "ITC", Sector: SectorFMCG}, Weight: 65},
		{Stock: Stock{ID: "tcs", Symbol: "TCS", Sector: SectorIT}, Weight: 35},
	}
	questions := BuildQuestionsFromEvents(quizFixtureEvents(), holdings)
	if len(questions) > maxQuizQuestions {
		t.Fatalf("question count %d exceeds cap %d", len(questions), maxQuizQuestions)
	}
	if questions[0].ID != "quiz-direction" {
		t.Fatalf("first question must be direction, got %q", questions[0].ID)
	}
	seen := make(map[string]bool)
	for _, q := range questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if len(q.Options) != 3 {
			t.Fatalf("%s: want 3 options, got %d", q.ID, len(q.Options))
		}
		found := false
		for _, opt := range q.Options {
			if opt.ID == q.CorrectOptionID {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: correct option %q not among options", q.ID, q.CorrectOptionID)
		}
	}
}

func TestBuildQuestionsDeterministic(t *testing.T) {
	events := quizFixtureEvents()
	holdings := []Holding{{Stock: Stock{ID: "itc", Sector: SectorFMCG}, Weight: 100}}
	a := BuildQuestionsFromEvents(events, holdings)
	b := BuildQuestionsFromEvents(events, holdings)
	if len(a) != len(b) {
		t.Fatalf("question counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Prompt != b[i].Prompt || a[i].CorrectOptionID != b[i].CorrectOptionID {
			t.Fatalf("question %d differs between builds", i)
		}
	}
}

func TestDirectionQuestionFollowsEvent(t *testing.T) {
	up := quizFixtureEvents()[1]
	up.Direction = 1
	if q := directionQuestion(up); q.CorrectOptionID != "a" {
		t.Fatalf("positive event: correct %q want a", q.CorrectOptionID)
	}
	up.Direction = -1
	if q := directionQuestion(up); q.CorrectOptionID != "b" {
		t.Fatalf("negative event: correct %q want b", q.CorrectOptionID)
	}
}

func TestComplianceQuestionFramesTip(t *testing.T) {
	events := quizFixtureEvents()
	questions := BuildQuestionsFromEvents(events, nil)
	var compliance *Question
	for i := range questions {
		if questions[i].ID == "quiz-compliance" {
			compliance = &questions[i]
		}
	}
	if compliance == nil {
		t.Fatalf("compliance question missing")
	}
	if !strings.Contains(compliance.Prompt, "Forwarded tip") {
		t.Fatalf("tip quarter: compliance prompt should cite the tip, got %q", compliance.Prompt)
	}
	correct := ""
	for _, opt := range compliance.Options {
		if opt.ID == compliance.CorrectOptionID {
			correct = opt.Text
		}
	}
	if !strings.Contains(correct, "SEBI") {
		t.Fatalf("compliance answer should point at SEBI-registered sources, got %q", correct)
	}
}

func TestConcentrationQuestionThreshold(t *testing.T) {
	below := []Holding{{Stock: Stock{ID: "itc", Symbol: "ITC", Sector: SectorFMCG}, Weight: 29}}
	for _, q := range BuildQuestionsFromEvents(quizFixtureEvents(), below) {
		if q.ID == "quiz-concentration" {
			t.Fatalf("concentration question must not fire below 30%%")
		}
	}
	above := []Holding{{Stock: Stock{ID: "itc", Symbol: "ITC", Sector: SectorFMCG}, Weight: 55}}
	found := false
	for _, q := range BuildQuestionsFromEvents(quizFixtureEvents(), above) {
		if q.ID == "quiz-concentration" {
			found = true
			if !strings.Contains(q.Prompt, "ITC") {
				t.Fatalf("concentration prompt should name the holding, got %q", q.Prompt)
			}
		}
	}
	if !found {
		t.Fatalf("concentration question missing at 55%% weight")
	}
}

func TestQuizWithoutMacroStillTeachesBasics(t *testing.T) {
	// Earnings-only quarter: the macro-dependent rules skip, the pedagogy
	// rules still produce a battery.
	events := quizFixtureEvents()[:1]
	questions := BuildQuestionsFromEvents(events, nil)
	want := map[string]bool{"quiz-diversification": false, "quiz-earnings": false, "quiz-compliance": false}
	for _, q := range questions {
		if _, ok := want[q.ID]; ok {
			want[q.ID] = true
		}
	}
	for id, ok := range want {
		if !ok {
			t.Fatalf("expected %s in earnings-only quarter", id)
		}
	}
}
