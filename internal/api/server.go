package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"nivesh/internal/ai"
	"nivesh/internal/config"
	"nivesh/internal/engine"
	"nivesh/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const playerContextKey contextKey = "player"

type Server struct {
	cfg      config.APIConfig
	log      *slog.Logger
	store    store.Store
	reviewer *ai.Reviewer
	mux      *chi.Mux

	// One lock per save slot: all mutating calls against a single
	// GameState must be serialized.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(cfg config.APIConfig, logger *slog.Logger, st store.Store, reviewer *ai.Reviewer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		store:    st,
		reviewer: reviewer,
		mux:      chi.NewRouter(),
		locks:    make(map[string]*sync.Mutex),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(s.playerMiddleware)
			r.Post("/game/start", s.handleStartGame)
			r.Get("/game", s.handleGameState)
			r.Post("/game/reset", s.handleResetGame)
			r.Post("/game/next-quarter", s.handleNextQuarter)
			r.Post("/game/hint", s.handleUseHint)

			r.Get("/quarters/{quarter}/events", s.handleQuarterEvents)
			r.Post("/quarters/{quarter}/events-reviewed", s.handleEventsReviewed)
			r.Get("/quarters/{quarter}/quiz", s.handleQuizQuestions)
			r.Post("/quarters/{quarter}/quiz/answers", s.handleQuizAnswer)
			r.Post("/quarters/{quarter}/quiz/submit", s.handleQuizSubmit)
			r.Post("/quarters/{quarter}/quiz/reset", s.handleQuizReset)
			r.Post("/quarters/{quarter}/rebalance", s.handleRebalance)
			r.Post("/quarters/{quarter}/rebalance/skip", s.handleSkipRebalance)
			r.Post("/quarters/{quarter}/ai-review", s.handleAIReview)
			r.Post("/quarters/{quarter}/performance-review", s.handlePerformanceReview)
		})
	})
}

func (s *Server) playerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("X-Player-Key"))
		if key == "" {
			writeError(w, http.StatusBadRequest, "missing X-Player-Key header")
			return
		}
		ctx := context.WithValue(r.Context(), playerContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFromContext(ctx context.Context) (string, error) {
	key, ok := ctx.Value(playerContextKey).(string)
	if !ok || key == "" {
		return "", errors.New("missing player context")
	}
	return key, nil
}

func (s *Server) playerLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	return mu
}

// withState loads the player's save, migrates it, applies one transition
// under the player lock, and persists the result when mutate is set. The
// transition returns the payload to write; nil writes the resulting state.
func (s *Server) withState(w http.ResponseWriter, r *http.Request, mutate bool, fn func(st *engine.GameState) (any, error)) {
	key, err := playerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mu := s.playerLock(key)
	mu.Lock()
	defer mu.Unlock()

	st := engine.ResetGame()
	saved, err := s.store.Load(r.Context(), key)
	if err != nil {
		s.log.Error("load failed", "player", key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	if saved != nil {
		st, err = store.Migrate(*saved)
		if err != nil {
			s.log.Error("migrate failed", "player", key, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to load game")
			return
		}
	}

	payload, err := fn(&st)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if mutate {
		if err := s.store.Save(r.Context(), key, st); err != nil {
			s.log.Error("save failed", "player", key, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to save game")
			return
		}
		s.log.Info("state saved",
			"player", key,
			"quarter", st.CurrentQuarter,
			"idempotency_key", idempotencyKey(r),
		)
	}
	if payload == nil {
		payload = st
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		if st.IsStarted && !st.IsComplete {
			// Starting twice resumes the campaign in flight.
			return nil, nil
		}
		*st = engine.StartGame()
		return nil, nil
	})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	s.withState(w, r, false, func(st *engine.GameState) (any, error) {
		return nil, nil
	})
}

func (s *Server) handleResetGame(w http.ResponseWriter, r *http.Request) {
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		*st = engine.ResetGame()
		return nil, nil
	})
}

func (s *Server) handleNextQuarter(w http.ResponseWriter, r *http.Request) {
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		next, err := engine.ProceedToNextQuarter(*st)
		if err != nil {
			return nil, err
		}
		*st = next
		return nil, nil
	})
}

func (s *Server) handleUseHint(w http.ResponseWriter, r *http.Request) {
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		next, err := engine.UseHint(*st)
		if err != nil {
			return nil, err
		}
		*st = next
		return map[string]any{"hints_remaining": next.HintsRemaining}, nil
	})
}

func (s *Server) handleQuarterEvents(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, false, func(st *engine.GameState) (any, error) {
		rec := st.Record(quarter)
		if rec == nil {
			return nil, engine.ErrQuarterNotFound
		}
		return map[string]any{"quarter": rec.Quarter, "events": rec.Events}, nil
	})
}

func (s *Server) handleEventsReviewed(w http.ResponseWriter, r *http.Request) {
	s.markHandler(w, r, engine.MarkEventsReviewed)
}

func (s *Server) handleQuizQuestions(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, false, func(st *engine.GameState) (any, error) {
		rec := st.Record(quarter)
		if rec == nil {
			return nil, engine.ErrQuarterNotFound
		}
		questions := engine.BuildQuestionsFromEvents(rec.Events, st.Portfolio)
		return map[string]any{"quarter": quarter, "questions": questions}, nil
	})
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in struct {
		QuestionID string `json:"question_id"`
		AnswerID   string `json:"answer_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		next, err := engine.SaveQuizAnswer(*st, quarter, in.QuestionID, in.AnswerID)
		if err != nil {
			return nil, err
		}
		*st = next
		return nil, nil
	})
}

func (s *Server) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		rec := st.Record(quarter)
		if rec == nil {
			return nil, engine.ErrQuarterNotFound
		}
		if rec.QuizSubmitted {
			// The reducer would no-op anyway; answer with what was recorded
			// so a resubmission never reports a score that was not kept.
			return map[string]any{
				"quarter": quarter,
				"score":   rec.QuizScore,
				"passed":  rec.QuizPassed,
			}, nil
		}
		questions := engine.BuildQuestionsFromEvents(rec.Events, st.Portfolio)
		if len(questions) == 0 {
			return nil, engine.ErrQuarterNotFound
		}
		correct := 0
		next := *st
		for _, q := range questions {
			answer := in.Answers[q.ID]
			next, err = engine.SaveQuizAnswer(next, quarter, q.ID, answer)
			if err != nil {
				return nil, err
			}
			if answer == q.CorrectOptionID {
				correct++
			}
		}
		score := 100 * correct / len(questions)
		passed := score >= engine.QuizPassMark
		next, err = engine.SubmitQuizResult(next, quarter, score, passed)
		if err != nil {
			return nil, err
		}
		*st = next
		return map[string]any{
			"quarter": quarter,
			"score":   score,
			"passed":  passed,
			"correct": correct,
			"total":   len(questions),
		}, nil
	})
}

func (s *Server) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	s.markHandler(w, r, engine.ResetQuiz)
}

type tradeInput struct {
	StockID string  `json:"stock_id"`
	Side    string  `json:"side"`
	Amount  float64 `json:"amount"`
}

func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in struct {
		Trades []tradeInput `json:"trades"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		if quarter != st.CurrentQuarter {
			return nil, engine.ErrQuarterNotFound
		}
		if rec := st.Record(quarter); rec != nil && rec.Rebalanced {
			// Impacts land once per quarter; a repeat submission changes
			// nothing, so skip the trades instead of repricing twice.
			return nil, nil
		}
		target := append([]engine.Holding(nil), st.Portfolio...)
		cash := st.Cash
		for _, t := range in.Trades {
			switch strings.ToLower(strings.TrimSpace(t.Side)) {
			case "buy":
				stock, ok := tradeStock(target, t.StockID)
				if !ok {
					return nil, engine.ErrInvalidTrade
				}
				target, cash, err = engine.BuyStock(target, cash, stock, t.Amount)
			case "sell":
				target, cash, err = engine.SellStock(target, cash, t.StockID, t.Amount)
			default:
				return nil, engine.ErrInvalidTrade
			}
			if err != nil {
				return nil, err
			}
		}
		next, err := engine.RebalancePortfolio(*st, target, cash)
		if err != nil {
			return nil, err
		}
		*st = next
		return nil, nil
	})
}

func (s *Server) handleSkipRebalance(w http.ResponseWriter, r *http.Request) {
	s.markHandler(w, r, engine.MarkRebalanced)
}

func (s *Server) handleAIReview(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		review, err := s.reviewer.QuarterReview(r.Context(), *st, quarter)
		if err != nil {
			if errors.Is(err, engine.ErrQuarterNotFound) {
				return nil, err
			}
			// Remote reviewer failed; the local fallback text still serves.
			s.log.Warn("ai review degraded", "player_quarter", quarter, "err", err)
		}
		next, err := engine.MarkAIReviewed(*st, quarter)
		if err != nil {
			return nil, err
		}
		*st = next
		return map[string]any{"quarter": quarter, "review": review}, nil
	})
}

func (s *Server) handlePerformanceReview(w http.ResponseWriter, r *http.Request) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		next, err := engine.MarkPerformanceReviewed(*st, quarter)
		if err != nil {
			return nil, err
		}
		*st = next
		return map[string]any{"quarter": quarter, "record": next.Record(quarter)}, nil
	})
}

func (s *Server) markHandler(w http.ResponseWriter, r *http.Request, apply func(engine.GameState, int) (engine.GameState, error)) {
	quarter, err := quarterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withState(w, r, true, func(st *engine.GameState) (any, error) {
		next, err := apply(*st, quarter)
		if err != nil {
			return nil, err
		}
		*st = next
		return nil, nil
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stocks": engine.Catalog()})
}

// The leaderboard is cosmetic: fixed rows so the UI has something to render.
// Cross-player ranking is not synchronized.
func (s *Server) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rows": []map[string]any{
		{"rank": 1, "player": "steady_sip", "total_score": 1180, "total_return": 21.4},
		{"rank": 2, "player": "margin_of_safety", "total_score": 1045, "total_return": 17.8},
		{"rank": 3, "player": "contra_bets", "total_score": 910, "total_return": 12.3},
	}})
}

func tradeStock(holdings []engine.Holding, stockID string) (engine.Stock, bool) {
	// Prefer the held snapshot's evolved price over the static catalog price.
	for _, h := range holdings {
		if h.Stock.ID == stockID {
			return h.Stock, true
		}
	}
	return engine.StockByID(stockID)
}

func quarterParam(r *http.Request) (int, error) {
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil || quarter < 1 {
		return 0, errors.New("invalid quarter")
	}
	return quarter, nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidTrade), errors.Is(err, engine.ErrNoHintsRemaining):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrQuarterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrInvalidQuarterTransition), errors.Is(err, engine.ErrGameNotStarted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
