package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/goccy/go-json"
)

// POST /api/recommend
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Missing category parameter")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Missing category parameter")
		return
	}

	category := *req.Category
	log := logging.With().Str("category", category).Logger()
	log.Info().Msg("received recommendation request")

	result, err := h.service.Recommend(r.Context(), category)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout",
				"Request timed out, please try again")
			return
		}
		log.Error().Err(err).Msg("recommendation failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An error occurred processing your request")
		return
	}

	w.Header().Set("X-Cache", cacheHeader(result.CacheHit))
	writeJSON(w, http.StatusOK, result.Recommendation)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
