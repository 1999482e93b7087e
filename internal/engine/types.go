package engine

type Sector string

const (
	SectorIT      Sector = "IT"
	SectorBanking Sector = "Banking"
	SectorPharma  Sector = "Pharma"
	SectorEnergy  Sector = "Energy"
	SectorFMCG    Sector = "FMCG"
	SectorAuto    Sector = "Auto"
	SectorInfra   Sector = "Infra"
	SectorMetals  Sector = "Metals"
)

// Stock is an immutable catalog entry. Price changes never mutate the catalog;
// a Holding carries its own Stock snapshot so historical valuations stay fixed.
type Stock struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        Sector  `json:"sector"`
	Price         float64 `json:"price"`
	MarketCapCr   float64 `json:"market_cap_cr"`
	PERatio       float64 `json:"pe_ratio"`
	DividendYield float64 `json:"dividend_yield"`
}

type Holding struct {
	Stock    Stock   `json:"stock"`
	Quantity int64   `json:"quantity"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	AvgPrice float64 `json:"avg_price"`
}

type EventType string

const (
	EventEarnings     EventType = "earnings"
	EventMacro        EventType = "macro"
	EventGeopolitical EventType = "geopolitical"
	EventPolicy       EventType = "policy"
	EventCommodity    EventType = "commodity"
	EventSentiment    EventType = "sentiment"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type ShockProfile string

const (
	ShockImpulse ShockProfile = "impulse"
	ShockStep    ShockProfile = "step"
	ShockRamp    ShockProfile = "ramp"
)

// Event is generated fresh each quarter and immutable once created. IDs are
// deterministic strings so two generations from equal inputs compare equal.
type Event struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Type            EventType    `json:"type"`
	AffectedSectors []Sector     `json:"affected_sectors"`
	AffectedStocks  []string     `json:"affected_stocks"`
	Direction       int          `json:"direction"`
	ImpactScore     int          `json:"impact_score"`
	Confidence      Confidence   `json:"confidence"`
	IsUnverifiedTip bool         `json:"is_unverified_tip"`
	ShockProfile    ShockProfile `json:"shock_profile"`
	DecayHalfLife   float64      `json:"decay_half_life"`
}

// QuarterRecord tracks one quarter's events, results and step flags. Created
// when the quarter begins, mutated as the player completes steps, never
// deleted during a game.
type QuarterRecord struct {
	Quarter              int               `json:"quarter"`
	Events               []Event           `json:"events"`
	PortfolioValue       float64           `json:"portfolio_value"`
	TotalReturn          float64           `json:"total_return"`
	QuarterReturn        float64           `json:"quarter_return"`
	DiversificationScore float64           `json:"diversification_score"`
	RiskScore            float64           `json:"risk_score"`
	Rebalanced           bool              `json:"rebalanced"`
	EventsReviewed       bool              `json:"events_reviewed"`
	QuizSubmitted        bool              `json:"quiz_submitted"`
	QuizPassed           bool              `json:"quiz_passed"`
	QuizScore            int               `json:"quiz_score"`
	AIReviewed           bool              `json:"ai_reviewed"`
	PerformanceReviewed  bool              `json:"performance_reviewed"`
	QuizAnswers          map[string]string `json:"quiz_answers"`
}

type GameState struct {
	IsStarted       bool            `json:"is_started"`
	IsComplete      bool            `json:"is_complete"`
	StartingCapital float64         `json:"starting_capital"`
	CurrentCapital  float64         `json:"current_capital"`
	Cash            float64         `json:"cash"`
	CurrentQuarter  int             `json:"current_quarter"`
	HintsRemaining  int             `json:"hints_remaining"`
	HintsUsed       int             `json:"hints_used"`
	Portfolio       []Holding       `json:"portfolio"`
	Quarters        []QuarterRecord `json:"quarters"`
	TotalScore      int             `json:"total_score"`
	Achievements    []string        `json:"achievements"`
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question's correct option never crosses the wire; grading happens where
// the questions are built.
type Question struct {
	ID              string   `json:"id"`
	Prompt          string   `json:"prompt"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"-"`
}

// Clone returns a deep copy. Every reducer clones before mutating so callers
// keep a usable prior state.
func (st GameState) Clone() GameState {
	out := st
	if st.Portfolio != nil {
		out.Portfolio = append([]Holding(nil), st.Portfolio...)
	}
	if st.Achievements != nil {
		out.Achievements = append([]string(nil), st.Achievements...)
	}
	if st.Quarters != nil {
		out.Quarters = make([]QuarterRecord, len(st.Quarters))
		for i, rec := range st.Quarters {
			out.Quarters[i] = rec.clone()
		}
	}
	return out
}

func (rec QuarterRecord) clone() QuarterRecord {
	out := rec
	if rec.Events != nil {
		out.Events = make([]Event, len(rec.Events))
		for i, ev := range rec.Events {
			out.Events[i] = ev
			if ev.AffectedSectors != nil {
				out.Events[i].AffectedSectors = append([]Sector(nil), ev.AffectedSectors...)
			}
			if ev.AffectedStocks != nil {
				out.Events[i].AffectedStocks = append([]string(nil), ev.AffectedStocks...)
			}
		}
	}
	if rec.QuizAnswers != nil {
		out.QuizAnswers = make(map[string]string, len(rec.QuizAnswers))
		for k, v := range rec.QuizAnswers {
			out.QuizAnswers[k] = v
		}
	}
	return out
}

// Record returns a pointer to the record for the given quarter, or nil.
func (st *GameState) Record(quarter int) *QuarterRecord {
	for i := range st.Quarters {
		if st.Quarters[i].Quarter == quarter {
			return &st.Quarters[i]
		}
	}
	return nil
}

func (st *GameState) HasAchievement(id string) bool {
	for _, a := range st.Achievements {
		if a == id {
			return true
		}
	}
	return false
}
