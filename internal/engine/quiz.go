package engine

import "fmt"

// maxQuizQuestions caps the battery output.
const maxQuizQuestions = 7

// BuildQuestionsFromEvents derives the quarter's comprehension check from the
// event set and current holdings. It is a pure function: no RNG, no state.
// The rules run in a fixed order and a rule is skipped when its precondition
// fails. Every correct option encodes conservative, verification-first
// investing behavior; that is deliberate pedagogy, not derived data.
func BuildQuestionsFromEvents(events []Event, holdings []Holding) []Question {
	questions := make([]Question, 0, maxQuizQuestions)

	primary := PrimaryMacroEvent(events)
	earnings := firstEventOfType(events, EventEarnings)
	tip := firstTipEvent(events)

	if primary != nil {
		questions = append(questions, directionQuestion(*primary))
	}
	if primary != nil && len(primary.AffectedSectors) > 0 {
		questions = append(questions, sectorQuestion(*primary))
	}
	if primary != nil {
		questions = append(questions, shockProfileQuestion(*primary))
	}
	questions = append(questions, diversificationQuestion(primary, holdings))
	if earnings != nil {
		questions = append(questions, earningsNuanceQuestion(*earnings))
	}
	questions = append(questions, complianceQuestion(tip))
	if primary != nil {
		questions = append(questions, confidenceQuestion(*primary))
	}
	if h := mostConcentratedHolding(holdings); h != nil {
		questions = append(questions, concentrationQuestion(*h))
	}

	if len(questions) > maxQuizQuestions {
		questions = questions[:maxQuizQuestions]
	}
	return questions
}

// PrimaryMacroEvent returns the quarter's lead theme event: the first
// non-earnings, non-tip event in generation order.
func PrimaryMacroEvent(events []Event) *Event {
	for i := range events {
		if events[i].Type != EventEarnings && !events[i].IsUnverifiedTip {
			return &events[i]
		}
	}
	return nil
}

func firstEventOfType(events []Event, t EventType) *Event {
	for i := range events {
		if events[i].Type == t && !events[i].IsUnverifiedTip {
			return &events[i]
		}
	}
	return nil
}

func firstTipEvent(events []Event) *Event {
	for i := range events {
		if events[i].IsUnverifiedTip {
			return &events[i]
		}
	}
	return nil
}

func mostConcentratedHolding(holdings []Holding) *Holding {
	var top *Holding
	for i := range holdings {
		if holdings[i].Weight >= 30 && (top == nil || holdings[i].Weight > top.Weight) {
			top = &holdings[i]
		}
	}
	return top
}

func largestSector(holdings []Holding) (Sector, float64) {
	weights := make(map[Sector]float64)
	for _, h := range holdings {
		weights[h.Stock.Sector] += h.Weight
	}
	var best Sector
	var bestWeight float64
	for _, s := range allSectors {
		if weights[s] > bestWeight {
			best, bestWeight = s, weights[s]
		}
	}
	return best, bestWeight
}

func directionQuestion(ev Event) Question {
	if ev.Direction == 0 {
		return Question{
			ID:     "quiz-direction",
			Prompt: fmt.Sprintf("%q gives no clear direction. What is the prudent response?", ev.Title),
			Options: []Option{
				{ID: "a", Text: "Go all-in on the most affected sector before others react"},
				{ID: "b", Text: "Wait for confirmation and avoid large one-way bets"},
				{ID: "c", Text: "Exit the market entirely until the news cycle passes"},
			},
			CorrectOptionID: "b",
		}
	}
	correct := "a"
	if ev.Direction < 0 {
		correct = "b"
	}
	return Question{
		ID:     "quiz-direction",
		Prompt: fmt.Sprintf("Which way is %q most likely to push the affected sectors this quarter?", ev.Title),
		Options: []Option{
			{ID: "a", Text: "Upward, supporting prices in the affected sectors"},
			{ID: "b", Text: "Downward, pressuring prices in the affected sectors"},
			{ID: "c", Text: "No effect at all on any sector"},
		},
		CorrectOptionID: correct,
	}
}

func sectorQuestion(ev Event) Question {
	correct := ev.AffectedSectors[0]
	distractors := make([]Sector, 0, 2)
	for _, s := range allSectors {
		if containsSector(ev.AffectedSectors, s) {
			continue
		}
		distractors = append(distractors, s)
		if len(distractors) == 2 {
			break
		}
	}
	return Question{
		ID:     "quiz-sector",
		Prompt: fmt.Sprintf("Which sector is most directly exposed to %q?", ev.Title),
		Options: []Option{
			{ID: "a", Text: string(correct)},
			{ID: "b", Text: string(distractors[0])},
			{ID: "c", Text: string(distractors[1])},
		},
		CorrectOptionID: "a",
	}
}

func shockProfileQuestion(ev Event) Question {
	texts := map[ShockProfile]string{
		ShockImpulse: "A sharp move that fades quickly",
		ShockStep:    "A lasting re-pricing that persists through the quarter",
		ShockRamp:    "A gradual build-up over several weeks",
	}
	order := []ShockProfile{ShockImpulse, ShockStep, ShockRamp}
	options := make([]Option, 3)
	correct := ""
	for i, p := range order {
		id := string(rune('a' + i))
		options[i] = Option{ID: id, Text: texts[p]}
		if p == ev.ShockProfile {
			correct = id
		}
	}
	return Question{
		ID:              "quiz-shock",
		Prompt:          fmt.Sprintf("How would the price impact of %q most likely play out over time?", ev.Title),
		Options:         options,
		CorrectOptionID: correct,
	}
}

func diversificationQuestion(primary *Event, holdings []Holding) Question {
	sector, weight := largestSector(holdings)
	hitNegatively := primary != nil && primary.Direction < 0 &&
		sector != "" && containsSector(primary.AffectedSectors, sector)

	prompt := "Your portfolio is concentrated. What is the sound way to manage that risk?"
	if hitNegatively {
		prompt = fmt.Sprintf("%s is your largest sector at %.0f%% of the portfolio and this quarter's news works against it. What should you do?", sector, weight)
	}
	return Question{
		ID:     "quiz-diversification",
		Prompt: prompt,
		Options: []Option{
			{ID: "a", Text: "Double down while prices are low"},
			{ID: "b", Text: "Rebalance gradually toward a more diversified mix"},
			{ID: "c", Text: "Concentrate further into your best-performing stock"},
		},
		CorrectOptionID: "b",
	}
}

func earningsNuanceQuestion(ev Event) Question {
	return Question{
		ID:     "quiz-earnings",
		Prompt: fmt.Sprintf("After %q, what should drive your decision on the stock?", ev.Title),
		Options: []Option{
			{ID: "a", Text: "The headline number alone; act before the market digests it"},
			{ID: "b", Text: "The full results and management guidance, read in context"},
			{ID: "c", Text: "Whatever direction the stock moved in the first hour"},
		},
		CorrectOptionID: "b",
	}
}

func complianceQuestion(tip *Event) Question {
	if tip != nil {
		return Question{
			ID:     "quiz-compliance",
			Prompt: fmt.Sprintf("You received %q. How should a SEBI-compliant investor treat it?", tip.Title),
			Options: []Option{
				{ID: "a", Text: "Act fast; tips lose value once they spread"},
				{ID: "b", Text: "Verify through official disclosures and SEBI-registered sources before acting"},
				{ID: "c", Text: "Forward it to friends so everyone can benefit"},
			},
			CorrectOptionID: "b",
		}
	}
	return Question{
		ID:     "quiz-compliance",
		Prompt: "Which habit best protects a retail investor over the long run?",
		Options: []Option{
			{ID: "a", Text: "Chasing whichever stock moved most last week"},
			{ID: "b", Text: "Staying diversified and dealing only through regulated channels"},
			{ID: "c", Text: "Using borrowed money to amplify conviction trades"},
		},
		CorrectOptionID: "b",
	}
}

func confidenceQuestion(ev Event) Question {
	return Question{
		ID:     "quiz-confidence",
		Prompt: fmt.Sprintf("%q carries %s confidence. How much portfolio weight should the signal get?", ev.Title, ev.Confidence),
		Options: []Option{
			{ID: "a", Text: "Full weight; confident-sounding news deserves conviction"},
			{ID: "b", Text: "Weight proportional to its confidence, sized within your risk limits"},
			{ID: "c", Text: "None; macro news never matters for stock prices"},
		},
		CorrectOptionID: "b",
	}
}

func concentrationQuestion(h Holding) Question {
	return Question{
		ID:     "quiz-concentration",
		Prompt: fmt.Sprintf("%s alone is %.0f%% of your portfolio. What does prudent risk management suggest?", h.Stock.Symbol, h.Weight),
		Options: []Option{
			{ID: "a", Text: "Keep adding while the story is working"},
			{ID: "b", Text: "Trim gradually to bring single-stock risk down"},
			{ID: "c", Text: "Sell everything else and hold only the winner"},
		},
		CorrectOptionID: "b",
	}
}
