package engine

import "math"

// RecalcWeights recomputes each holding's weight as a percentage of total
// invested value. A zero-value portfolio is returned unchanged.
func RecalcWeights(holdings []Holding) []Holding {
	total := InvestedValue(holdings)
	out := make([]Holding, len(holdings))
	copy(out, holdings)
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i].Weight = 100 * out[i].Value / total
	}
	return out
}

func InvestedValue(holdings []Holding) float64 {
	var total float64
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// DiversificationScore averages a stock-level and a sector-level
// Herfindahl sub-score, each mapped to 0-100. Empty portfolio scores 0.
func DiversificationScore(holdings []Holding) float64 {
	if len(holdings) == 0 {
		return 0
	}
	var stockHHI float64
	sectorWeight := make(map[Sector]float64)
	for _, h := range holdings {
		share := h.Weight / 100
		stockHHI += share * share
		sectorWeight[h.Stock.Sector] += share
	}
	var sectorHHI float64
	for _, share := range sectorWeight {
		sectorHHI += share * share
	}
	score := (100*(1-stockHHI) + 100*(1-sectorHHI)) / 2
	return clamp(score, 0, 100)
}

// RiskScore weights each holding by its sector's risk table entry, scaled to
// 0-100. Empty portfolio scores 0.
func RiskScore(holdings []Holding) float64 {
	var sum float64
	for _, h := range holdings {
		sum += h.Weight / 100 * riskWeight(h.Stock.Sector)
	}
	return clamp(sum*50, 0, 100)
}

// BuyStock executes a whole-share buy of up to amount rupees. The trade is
// all-or-nothing: if it cannot execute cleanly the inputs come back unchanged
// with ErrInvalidTrade.
func BuyStock(holdings []Holding, cash float64, stock Stock, amount float64) ([]Holding, float64, error) {
	if amount <= 0 || stock.Price <= 0 {
		return holdings, cash, ErrInvalidTrade
	}
	if amount > cash {
		return holdings, cash, ErrInvalidTrade
	}
	shares := int64(math.Floor(amount / stock.Price))
	if shares <= 0 {
		return holdings, cash, ErrInvalidTrade
	}
	cost := float64(shares) * stock.Price

	out := append([]Holding(nil), holdings...)
	merged := false
	for i := range out {
		if out[i].Stock.ID != stock.ID {
			continue
		}
		prevQty := out[i].Quantity
		prevCost := out[i].AvgPrice * float64(prevQty)
		out[i].Quantity = prevQty + shares
		out[i].AvgPrice = (prevCost + cost) / float64(out[i].Quantity)
		out[i].Stock.Price = stock.Price
		out[i].Value = float64(out[i].Quantity) * stock.Price
		merged = true
		break
	}
	if !merged {
		out = append(out, Holding{
			Stock:    stock,
			Quantity: shares,
			Value:    cost,
			AvgPrice: stock.Price,
		})
	}
	return RecalcWeights(out), cash - cost, nil
}

// SellStock removes whole shares worth up to amount rupees and credits the
// cash. Selling more than the held quantity is rejected rather than clamped;
// a full exit deletes the holding.
func SellStock(holdings []Holding, cash float64, stockID string, amount float64) ([]Holding, float64, error) {
	if amount <= 0 {
		return holdings, cash, ErrInvalidTrade
	}
	idx := -1
	for i := range holdings {
		if holdings[i].Stock.ID == stockID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return holdings, cash, ErrInvalidTrade
	}
	price := holdings[idx].Stock.Price
	if price <= 0 {
		return holdings, cash, ErrInvalidTrade
	}
	shares := int64(math.Floor(amount / price))
	if shares <= 0 || shares > holdings[idx].Quantity {
		return holdings, cash, ErrInvalidTrade
	}
	proceeds := float64(shares) * price

	out := append([]Holding(nil), holdings...)
	out[idx].Quantity -= shares
	if out[idx].Quantity == 0 {
		out = append(out[:idx], out[idx+1:]...)
	} else {
		out[idx].Value = float64(out[idx].Quantity) * price
	}
	return RecalcWeights(out), cash + proceeds, nil
}
