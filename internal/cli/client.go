package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) StartGame(ctx context.Context, playerKey, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/start", playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) GameState(ctx context.Context, playerKey string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/game", playerKey, nil, &out, "")
	return out, err
}

func (c *Client) ResetGame(ctx context.Context, playerKey, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/reset", playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) NextQuarter(ctx context.Context, playerKey, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/next-quarter", playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) UseHint(ctx context.Context, playerKey, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/hint", playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) Catalog(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", "", nil, &out, "")
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/leaderboard", "", nil, &out, "")
	return out, err
}

func (c *Client) QuarterEvents(ctx context.Context, playerKey string, quarter int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/quarters/%d/events", quarter), playerKey, nil, &out, "")
	return out, err
}

func (c *Client) MarkEventsReviewed(ctx context.Context, playerKey string, quarter int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/events-reviewed", quarter), playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) QuizQuestions(ctx context.Context, playerKey string, quarter int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/quarters/%d/quiz", quarter), playerKey, nil, &out, "")
	return out, err
}

func (c *Client) SaveQuizAnswer(ctx context.Context, playerKey string, quarter int, questionID, answerID, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/quiz/answers", quarter), playerKey, map[string]any{
		"question_id": questionID,
		"answer_id":   answerID,
	}, &out, idem)
	return out, err
}

func (c *Client) SubmitQuiz(ctx context.Context, playerKey string, quarter int, answers map[string]string, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/quiz/submit", quarter), playerKey, map[string]any{
		"answers": answers,
	}, &out, idem)
	return out, err
}

func (c *Client) ResetQuiz(ctx context.Context, playerKey string, quarter int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/quiz/reset", quarter), playerKey, map[string]any{}, &out, idem)
	return out, err
}

type Trade struct {
	StockID string  `json:"stock_id"`
	Side    string  `json:"side"`
	Amount  float64 `json:"amount"`
}

func (c *Client) Rebalance(ctx context.Context, playerKey string, quarter int, trades []Trade, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/rebalance", quarter), playerKey, map[string]any{
		"trades": trades,
	}, &out, idem)
	return out, err
}

func (c *Client) SkipRebalance(ctx context.Context, playerKey string, quarter int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/rebalance/skip", quarter), playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) AIReview(ctx context.Context, playerKey string, quarter int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/ai-review", quarter), playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) PerformanceReview(ctx context.Context, playerKey string, quarter int, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/quarters/%d/performance-review", quarter), playerKey, map[string]any{}, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, playerKey string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerKey != "" {
		req.Header.Set("X-Player-Key", playerKey)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
