package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nivesh/internal/engine"
)

func TestQuarterReviewLocalFallback(t *testing.T) {
	r := NewReviewer("", "")
	st := engine.StartGame()

	text, err := r.QuarterReview(context.Background(), st, 1)
	if err != nil {
		t.Fatalf("unconfigured reviewer must not error: %v", err)
	}
	if !strings.Contains(text, "Quarter 1") {
		t.Fatalf("local review missing quarter reference: %q", text)
	}

	if _, err := r.QuarterReview(context.Background(), st, 9); !errors.Is(err, engine.ErrQuarterNotFound) {
		t.Fatalf("unknown quarter: got %v want ErrQuarterNotFound", err)
	}
}

func TestQuarterReviewRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/review" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization header: %q", got)
		}
		var in reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if in.Quarter != 1 {
			t.Fatalf("quarter: got %d want 1", in.Quarter)
		}
		json.NewEncoder(w).Encode(reviewResponse{Review: "remote take"})
	}))
	defer ts.Close()

	r := NewReviewer(ts.URL, "secret")
	text, err := r.QuarterReview(context.Background(), engine.StartGame(), 1)
	if err != nil {
		t.Fatalf("remote review: %v", err)
	}
	if text != "remote take" {
		t.Fatalf("got %q want remote text", text)
	}
}

func TestQuarterReviewRemoteFailureDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	r := NewReviewer(ts.URL, "")
	text, err := r.QuarterReview(context.Background(), engine.StartGame(), 1)
	if err == nil {
		t.Fatalf("expected informational error from failed remote call")
	}
	if text == "" {
		t.Fatalf("degraded call must still return the local review")
	}
}
