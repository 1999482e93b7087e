package engine

// The catalog is loaded once and never mutated; Catalog() hands out copies.
var stockCatalog = []Stock{
	{ID: "reliance", Symbol: "RELIANCE", Name: "Reliance Industries", Sector: SectorEnergy, Price: 2950, MarketCapCr: 1_995_000, PERatio: 28.4, DividendYield: 0.31},
	{ID: "tcs", Symbol: "TCS", Name: "Tata Consultancy Services", Sector: SectorIT, Price: 4100, MarketCapCr: 1_480_000, PERatio: 32.1, DividendYield: 1.18},
	{ID: "infosys", Symbol: "INFY", Name: "Infosys", Sector: SectorIT, Price: 1850, MarketCapCr: 765_000, PERatio: 27.6, DividendYield: 2.05},
	{ID: "hdfcbank", Symbol: "HDFCBANK", Name: "HDFC Bank", Sector: SectorBanking, Price: 1650, MarketCapCr: 1_255_000, PERatio: 19.2, DividendYield: 1.12},
	{ID: "icicibank", Symbol: "ICICIBANK", Name: "ICICI Bank", Sector: SectorBanking, Price: 1200, MarketCapCr: 845_000, PERatio: 18.7, DividendYield: 0.82},
	{ID: "sbin", Symbol: "SBIN", Name: "State Bank of India", Sector: SectorBanking, Price: 830, MarketCapCr: 740_000, PERatio: 10.9, DividendYield: 1.64},
	{ID: "sunpharma", Symbol: "SUNPHARMA", Name: "Sun Pharmaceutical", Sector: SectorPharma, Price: 1550, MarketCapCr: 372_000, PERatio: 35.8, DividendYield: 0.85},
	{ID: "cipla", Symbol: "CIPLA", Name: "Cipla", Sector: SectorPharma, Price: 1480, MarketCapCr: 119_500, PERatio: 28.9, DividendYield: 0.88},
	{ID: "itc", Symbol: "ITC", Name: "ITC", Sector: SectorFMCG, Price: 440, MarketCapCr: 549_000, PERatio: 26.3, DividendYield: 3.12},
	{ID: "hindunilvr", Symbol: "HINDUNILVR", Name: "Hindustan Unilever", Sector: SectorFMCG, Price: 2650, MarketCapCr: 623_000, PERatio: 58.4, DividendYield: 1.48},
	{ID: "tatamotors", Symbol: "TATAMOTORS", Name: "Tata Motors", Sector: SectorAuto, Price: 980, MarketCapCr: 326_000, PERatio: 16.8, DividendYield: 0.21},
	{ID: "maruti", Symbol: "MARUTI", Name: "Maruti Suzuki", Sector: SectorAuto, Price: 12400, MarketCapCr: 390_000, PERatio: 29.5, DividendYield: 1.01},
	{ID: "larsen", Symbol: "LT", Name: "Larsen & Toubro", Sector: SectorInfra, Price: 3600, MarketCapCr: 495_000, PERatio: 38.2, DividendYield: 0.77},
	{ID: "tatasteel", Symbol: "TATASTEEL", Name: "Tata Steel", Sector: SectorMetals, Price: 165, MarketCapCr: 206_000, PERatio: 48.7, DividendYield: 2.18},
	{ID: "ongc", Symbol: "ONGC", Name: "Oil & Natural Gas Corp", Sector: SectorEnergy, Price: 265, MarketCapCr: 333_500, PERatio: 8.3, DividendYield: 4.62},
}

// fallbackEarningsTrio is used for quarter-1 earnings subjects before the
// player holds anything.
var fallbackEarningsTrio = []string{"reliance", "hdfcbank", "tcs"}

// Per-sector quarterly volatility bound for the base return draw.
var sectorVolatility = map[Sector]float64{
	SectorIT:      0.030,
	SectorBanking: 0.025,
	SectorPharma:  0.022,
	SectorEnergy:  0.028,
	SectorFMCG:    0.020,
	SectorAuto:    0.030,
	SectorInfra:   0.027,
	SectorMetals:  0.035,
}

// Per-sector risk weight for the risk score.
var sectorRiskWeight = map[Sector]float64{
	SectorFMCG:    0.70,
	SectorPharma:  0.85,
	SectorBanking: 1.00,
	SectorIT:      1.00,
	SectorInfra:   1.05,
	SectorEnergy:  1.10,
	SectorAuto:    1.15,
	SectorMetals:  1.30,
}

// allSectors is the fixed pool quiz distractors draw from, in a stable order.
var allSectors = []Sector{
	SectorIT, SectorBanking, SectorPharma, SectorEnergy,
	SectorFMCG, SectorAuto, SectorInfra, SectorMetals,
}

func Catalog() []Stock {
	out := make([]Stock, len(stockCatalog))
	copy(out, stockCatalog)
	return out
}

func StockByID(id string) (Stock, bool) {
	for _, s := range stockCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return Stock{}, false
}

func SectorVolatility(sector Sector) float64 {
	if v, ok := sectorVolatility[sector]; ok {
		return v
	}
	return 0.025
}

func riskWeight(sector Sector) float64 {
	if w, ok := sectorRiskWeight[sector]; ok {
		return w
	}
	return 1.0
}
