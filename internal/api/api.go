// Package api exposes the engine's read-only HTTP surface: a user's
// current reputation and the latest leaderboard snapshot. All mutation
// happens in the background jobs; these handlers never write.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockforumx/reputation-engine/internal/model"
	"github.com/stockforumx/reputation-engine/internal/reputation"
	"github.com/stockforumx/reputation-engine/internal/store"
)

const defaultLeaderboardLimit = 50

// Service handles the read endpoints.
type Service struct {
	store store.Store
}

// NewService creates the read API service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// ReputationResponse is the JSON body for a user reputation read.
type ReputationResponse struct {
	UserID              string          `json:"user_id"`
	Username            string          `json:"username,omitempty"`
	Reputation          float64         `json:"reputation"`
	Tier                reputation.Tier `json:"tier"`
	TotalPredictions    int             `json:"total_predictions"`
	AccuratePredictions int             `json:"accurate_predictions"`
	Accuracy            float64         `json:"accuracy"`
}

// GetUserReputation handles GET /api/v1/users/{userID}/reputation
func (s *Service) GetUserReputation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := s.store.GetUserStats(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to load user stats", http.StatusInternalServerError)
		return
	}

	resp := ReputationResponse{
		UserID:              stats.UserID,
		Username:            stats.Username,
		Reputation:          stats.Reputation,
		Tier:                reputation.TierFor(stats.Reputation),
		TotalPredictions:    stats.TotalPredictions,
		AccuratePredictions: stats.AccuratePredictions,
		Accuracy:            reputation.Accuracy(stats.AccuratePredictions, stats.TotalPredictions),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetLeaderboard handles GET /api/v1/leaderboard?limit=N
// Returns the most recent snapshot batch ordered by rank.
func (s *Service) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	snapshots, err := s.store.LatestSnapshots(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []model.ReputationSnapshot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshots)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
