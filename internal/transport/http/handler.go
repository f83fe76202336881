package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"ordprov-service/internal/app"
	"ordprov-service/internal/bank"
	"ordprov-service/internal/domain"
)

const (
	defaultQuestionLimit = 40
	defaultAICount       = 10
	maxAICount           = 40
)

// API serves the JSON endpoints: bank questions, AI-generated questions,
// score submission and the leaderboard.
type API struct {
	bank      *bank.Bank
	generator app.QuestionGenerator
	scores    *app.ScoreService
}

func NewAPI(b *bank.Bank, generator app.QuestionGenerator, scores *app.ScoreService) *API {
	return &API{bank: b, generator: generator, scores: scores}
}

// Register wires the API routes onto mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/questions", a.handleQuestions)
	mux.HandleFunc("/ai-questions", a.handleAIQuestions)
	mux.HandleFunc("/scores", a.handleScores)
}

func (a *API) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultQuestionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	questions := a.bank.Pick(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
	})
}

func (a *API) handleAIQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count := defaultAICount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}
	if count > maxAICount {
		count = maxAICount
	}

	if a.generator == nil {
		writeGenerationFailure(w, "generator not configured")
		return
	}

	questions, err := a.generator.GenerateQuestions(r.Context(), count)
	if err != nil {
		log.Printf("ai generation failed: %v", err)
		writeGenerationFailure(w, err.Error())
		return
	}
	if questions == nil {
		questions = []domain.QuizItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": questions,
	})
}

func (a *API) handleScores(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleLeaderboard(w, r)
	case http.MethodPost:
		a.handleSubmit(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode := domain.DefaultMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := domain.ParseMode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown mode")
			return
		}
		mode = parsed
	}

	records, err := a.scores.Leaderboard(r.Context(), mode)
	if err != nil {
		log.Printf("leaderboard fetch failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": records,
	})
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub app.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := a.scores.Submit(r.Context(), sub, IdentityFromRequest(r)); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSubmission), errors.Is(err, domain.ErrUnknownMode):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("score submission failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save score")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// IdentityFromRequest reads the player identity that the sign-in proxy
// attaches to forwarded requests. All headers absent means a guest.
func IdentityFromRequest(r *http.Request) domain.Identity {
	return domain.Identity{
		Subject: r.Header.Get("X-Auth-Subject"),
		Name:    r.Header.Get("X-Auth-Name"),
		Email:   r.Header.Get("X-Auth-Email"),
		Image:   r.Header.Get("X-Auth-Picture"),
	}
}

func writeGenerationFailure(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"questions": []domain.QuizItem{},
		"error":     "Failed to generate AI questions",
		"details":   details,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
