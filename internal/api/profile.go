package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/database"
)

// EmotionLister reads a user's emotional history.
type EmotionLister interface {
	ListEmotions(ctx context.Context, userID string) ([]database.EmotionPoint, error)
}

type ProfileSummary struct {
	TotalEntries  int        `json:"total_entries"`
	LatestEmotion string     `json:"latest_emotion,omitempty"`
	LatestDate    *time.Time `json:"latest_date,omitempty"`
}

type ProfileResponse struct {
	Emotions []database.EmotionPoint `json:"emotions"`
	Summary  ProfileSummary          `json:"summary"`
}

// ProfileHandler serves the per-user emotion history.
type ProfileHandler struct {
	emotions EmotionLister
	log      zerolog.Logger
}

func NewProfileHandler(emotions EmotionLister, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{emotions: emotions, log: log.With().Str("handler", "profile").Logger()}
}

// Get handles GET /api/user_profile/{user_id}. A user without entries gets
// 404 with an empty profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	points, err := h.emotions.ListEmotions(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("list emotions failed")
		WriteErrorDetail(w, http.StatusInternalServerError, ErrInternal, "Error fetching emotion data", err.Error())
		return
	}

	if len(points) == 0 {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "No emotion data found for user",
			Code:  ErrNotFound,
			Data:  ProfileResponse{Emotions: []database.EmotionPoint{}},
		})
		return
	}

	latest := points[0]
	WriteData(w, http.StatusOK, "Emotion data retrieved successfully", ProfileResponse{
		Emotions: points,
		Summary: ProfileSummary{
			TotalEntries:  len(points),
			LatestEmotion: latest.EmotionState,
			LatestDate:    &latest.CreatedAt,
		},
	})
}
