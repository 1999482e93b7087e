// Package ai talks to the external review-text collaborator. The engine never
// depends on it: when the service is unconfigured or down, callers get a
// locally composed summary instead of an error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nivesh/internal/engine"
)

type Reviewer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewReviewer(baseURL, apiKey string) *Reviewer {
	return &Reviewer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type reviewRequest struct {
	Quarter              int      `json:"quarter"`
	PortfolioValue       float64  `json:"portfolio_value"`
	TotalReturn          float64  `json:"total_return"`
	QuarterReturn        float64  `json:"quarter_return"`
	DiversificationScore float64  `json:"diversification_score"`
	RiskScore            float64  `json:"risk_score"`
	Holdings             []string `json:"holdings"`
}

type reviewResponse struct {
	Review string `json:"review"`
}

// QuarterReview returns free-text commentary for the given quarter. Always
// returns usable text; the error is informational (the remote call that was
// skipped or failed).
func (r *Reviewer) QuarterReview(ctx context.Context, st engine.GameState, quarter int) (string, error) {
	rec := st.Record(quarter)
	if rec == nil {
		return "", engine.ErrQuarterNotFound
	}
	if r.baseURL == "" {
		return localReview(st, *rec), nil
	}

	payload := reviewRequest{
		Quarter:              rec.Quarter,
		PortfolioValue:       rec.PortfolioValue,
		TotalReturn:          rec.TotalReturn,
		QuarterReturn:        rec.QuarterReturn,
		DiversificationScore: rec.DiversificationScore,
		RiskScore:            rec.RiskScore,
	}
	for _, h := range st.Portfolio {
		payload.Holdings = append(payload.Holdings, fmt.Sprintf("%s %.1f%%", h.Stock.Symbol, h.Weight))
	}

	var out reviewResponse
	if err := r.postJSON(ctx, "/v1/review", payload, &out); err != nil {
		return localReview(st, *rec), fmt.Errorf("review service: %w", err)
	}
	if strings.TrimSpace(out.Review) == "" {
		return localReview(st, *rec), nil
	}
	return out.Review, nil
}

func (r *Reviewer) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func localReview(st engine.GameState, rec engine.QuarterRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quarter %d recap: your portfolio is worth ₹%.0f", rec.Quarter, rec.PortfolioValue)
	switch {
	case rec.QuarterReturn > 0:
		fmt.Fprintf(&b, ", up %.2f%% on the quarter.", rec.QuarterReturn)
	case rec.QuarterReturn < 0:
		fmt.Fprintf(&b, ", down %.2f%% on the quarter.", -rec.QuarterReturn)
	default:
		b.WriteString(", flat on the quarter.")
	}
	switch {
	case rec.DiversificationScore >= 70:
		b.WriteString(" Diversification looks healthy; keep spreading risk across sectors.")
	case rec.DiversificationScore > 0:
		fmt.Fprintf(&b, " Diversification sits at %.0f/100; consider widening sector exposure gradually.", rec.DiversificationScore)
	default:
		b.WriteString(" You are not invested yet; a spread of 4-6 stocks across sectors is a sound start.")
	}
	if rec.RiskScore >= 60 {
		fmt.Fprintf(&b, " Risk score %.0f/100 is on the higher side for a learning portfolio.", rec.RiskScore)
	}
	return b.String()
}
