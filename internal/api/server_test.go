package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nivesh/internal/ai"
	"nivesh/internal/config"
	"nivesh/internal/engine"
	"nivesh/internal/store"
)

type memStore struct {
	mu    sync.Mutex
	saves map[string]store.SavedGame
}

func newMemStore() *memStore {
	return &memStore{saves: make(map[string]store.SavedGame)}
}

func (m *memStore) Load(_ context.Context, key string) (*store.SavedGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved, ok := m.saves[key]
	if !ok {
		return nil, nil
	}
	return &saved, nil
}

func (m *memStore) Save(_ context.Context, key string, state engine.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[key] = store.SavedGame{SchemaVersion: store.CurrentSchemaVersion, State: state}
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	cfg := config.APIConfig{RequestTimeout: 30 * time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ms := newMemStore()
	srv := New(cfg, logger, ms, ai.NewReviewer("", ""))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, ms
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Player-Key", "test-player")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && err != io.EOF {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestPlayerKeyRequired(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/game")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing header: status %d want 400", resp.StatusCode)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/catalog")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out struct {
		Stocks []engine.Stock `json:"stocks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Stocks) == 0 {
		t.Fatalf("empty catalog")
	}
}

func TestQuarterWorkflow(t *testing.T) {
	ts, ms := newTestServer(t)

	status, _ := doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("start: status %d", status)
	}

	status, events := doJSON(t, ts, http.MethodGet, "/v1/quarters/1/events", nil)
	if status != http.StatusOK {
		t.Fatalf("events: status %d", status)
	}
	if evs, ok := events["events"].([]any); !ok || len(evs) == 0 {
		t.Fatalf("no events returned: %v", events)
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/v1/quarters/1/events-reviewed", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("events-reviewed: status %d", status)
	}

	// The wire payload hides correct options; recompute them from the saved
	// state to grade a perfect submission.
	saved, err := ms.Load(context.Background(), "test-player")
	if err != nil || saved == nil {
		t.Fatalf("load save: %v", err)
	}
	questions := engine.BuildQuestionsFromEvents(saved.State.Record(1).Events, saved.State.Portfolio)
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = q.CorrectOptionID
	}

	status, result := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/quiz/submit", map[string]any{"answers": answers})
	if status != http.StatusOK {
		t.Fatalf("quiz submit: status %d body %v", status, result)
	}
	if passed, _ := result["passed"].(bool); !passed {
		t.Fatalf("all-correct submission must pass: %v", result)
	}
	if score, _ := result["score"].(float64); score != 100 {
		t.Fatalf("score: got %v want 100", result["score"])
	}

	trades := []map[string]any{
		{"stock_id": "tcs", "side": "buy", "amount": 300000},
		{"stock_id": "itc", "side": "buy", "amount": 200000},
	}
	status, state := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/rebalance", map[string]any{"trades": trades})
	if status != http.StatusOK {
		t.Fatalf("rebalance: status %d body %v", status, state)
	}
	if holdings, ok := state["portfolio"].([]any); !ok || len(holdings) != 2 {
		t.Fatalf("expected 2 holdings after rebalance: %v", state["portfolio"])
	}

	status, review := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/ai-review", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("ai-review: status %d", status)
	}
	if text, _ := review["review"].(string); text == "" {
		t.Fatalf("unconfigured reviewer must still return the local review")
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/v1/quarters/1/performance-review", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("performance-review: status %d", status)
	}

	status, state = doJSON(t, ts, http.MethodPost, "/v1/game/next-quarter", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("next-quarter: status %d", status)
	}
	if q, _ := state["current_quarter"].(float64); q != 2 {
		t.Fatalf("current quarter: got %v want 2", state["current_quarter"])
	}
}

func TestRebalanceRepeatLeavesStateUnchanged(t *testing.T) {
	ts, ms := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})

	trades := []map[string]any{{"stock_id": "tcs", "side": "buy", "amount": 300000}}
	status, first := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/rebalance", map[string]any{"trades": trades})
	if status != http.StatusOK {
		t.Fatalf("rebalance: status %d body %v", status, first)
	}

	saved, err := ms.Load(context.Background(), "test-player")
	if err != nil || saved == nil {
		t.Fatalf("load save: %v", err)
	}
	priceOnce := saved.State.Portfolio[0].Stock.Price
	scoreOnce := saved.State.TotalScore
	cashOnce := saved.State.Cash

	again := []map[string]any{{"stock_id": "itc", "side": "buy", "amount": 100000}}
	status, second := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/rebalance", map[string]any{"trades": again})
	if status != http.StatusOK {
		t.Fatalf("repeat rebalance: status %d body %v", status, second)
	}

	saved, err = ms.Load(context.Background(), "test-player")
	if err != nil || saved == nil {
		t.Fatalf("reload save: %v", err)
	}
	if len(saved.State.Portfolio) != 1 {
		t.Fatalf("repeat rebalance traded: %d holdings", len(saved.State.Portfolio))
	}
	if got := saved.State.Portfolio[0].Stock.Price; got != priceOnce {
		t.Fatalf("same quarter repriced twice: first %v then %v", priceOnce, got)
	}
	if saved.State.TotalScore != scoreOnce {
		t.Fatalf("diversification bonus added twice: %d -> %d", scoreOnce, saved.State.TotalScore)
	}
	if saved.State.Cash != cashOnce {
		t.Fatalf("cash changed on repeated rebalance: %v -> %v", cashOnce, saved.State.Cash)
	}
}

func TestQuizResubmitReturnsRecordedResult(t *testing.T) {
	ts, ms := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})

	saved, err := ms.Load(context.Background(), "test-player")
	if err != nil || saved == nil {
		t.Fatalf("load save: %v", err)
	}
	questions := engine.BuildQuestionsFromEvents(saved.State.Record(1).Events, saved.State.Portfolio)
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = q.CorrectOptionID
	}

	status, first := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/quiz/submit", map[string]any{"answers": answers})
	if status != http.StatusOK {
		t.Fatalf("quiz submit: status %d body %v", status, first)
	}
	if score, _ := first["score"].(float64); score != 100 {
		t.Fatalf("score: got %v want 100", first["score"])
	}

	// Resubmit with blank answers; the response must echo the kept record,
	// not a freshly graded zero.
	status, second := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/quiz/submit", map[string]any{"answers": map[string]string{}})
	if status != http.StatusOK {
		t.Fatalf("quiz resubmit: status %d body %v", status, second)
	}
	if score, _ := second["score"].(float64); score != 100 {
		t.Fatalf("resubmit score: got %v want recorded 100", second["score"])
	}
	if passed, _ := second["passed"].(bool); !passed {
		t.Fatalf("resubmit must report the recorded pass: %v", second)
	}

	saved, err = ms.Load(context.Background(), "test-player")
	if err != nil || saved == nil {
		t.Fatalf("reload save: %v", err)
	}
	if rec := saved.State.Record(1); rec.QuizScore != 100 || !rec.QuizPassed {
		t.Fatalf("recorded quiz result changed: score %d passed %v", rec.QuizScore, rec.QuizPassed)
	}
}

func TestRebalanceRejectsBadTrades(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})

	tests := []struct {
		name   string
		trades []map[string]any
	}{
		{name: "unknown stock", trades: []map[string]any{{"stock_id": "nosuch", "side": "buy", "amount": 1000}}},
		{name: "overspend", trades: []map[string]any{{"stock_id": "tcs", "side": "buy", "amount": 2_000_000}}},
		{name: "sell unheld", trades: []map[string]any{{"stock_id": "tcs", "side": "sell", "amount": 1000}}},
		{name: "bad side", trades: []map[string]any{{"stock_id": "tcs", "side": "short", "amount": 1000}}},
	}
	for _, tc := range tests {
		status, _ := doJSON(t, ts, http.MethodPost, "/v1/quarters/1/rebalance", map[string]any{"trades": tc.trades})
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status %d want 400", tc.name, status)
		}
	}
}

func TestDomainErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})

	if status, _ := doJSON(t, ts, http.MethodGet, "/v1/quarters/9/events", nil); status != http.StatusNotFound {
		t.Fatalf("future quarter: status %d want 404", status)
	}

	for i := 0; i < engine.HintAllowance; i++ {
		if status, _ := doJSON(t, ts, http.MethodPost, "/v1/game/hint", map[string]any{}); status != http.StatusOK {
			t.Fatalf("hint %d: status %d", i+1, status)
		}
	}
	if status, _ := doJSON(t, ts, http.MethodPost, "/v1/game/hint", map[string]any{}); status != http.StatusBadRequest {
		t.Fatalf("exhausted hints: status %d want 400", status)
	}

	for q := 2; q <= engine.TotalQuarters+1; q++ {
		if status, _ := doJSON(t, ts, http.MethodPost, "/v1/game/next-quarter", map[string]any{}); status != http.StatusOK {
			t.Fatalf("advance %d: status %d", q, status)
		}
	}
	if status, _ := doJSON(t, ts, http.MethodPost, "/v1/game/next-quarter", map[string]any{}); status != http.StatusConflict {
		t.Fatalf("past terminal: status %d want 409", status)
	}
}

func TestStartIsIdempotentMidGame(t *testing.T) {
	ts, _ := newTestServer(t)
	doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})
	doJSON(t, ts, http.MethodPost, "/v1/game/next-quarter", map[string]any{})

	status, state := doJSON(t, ts, http.MethodPost, "/v1/game/start", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("restart: status %d", status)
	}
	if q, _ := state["current_quarter"].(float64); q != 2 {
		t.Fatalf("mid-game start must resume, got quarter %v", state["current_quarter"])
	}

	status, _ = doJSON(t, ts, http.MethodPost, "/v1/game/reset", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("reset: status %d", status)
	}
	status, state = doJSON(t, ts, http.MethodGet, "/v1/game", nil)
	if status != http.StatusOK {
		t.Fatalf("state after reset: status %d", status)
	}
	if started, _ := state["is_started"].(bool); started {
		t.Fatalf("reset must return to the pre-start state")
	}
}
