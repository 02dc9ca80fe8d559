package handler

import (
	"net/http"

	"github.com/actuallystonmai/beautybot/internal/logging"
)

// GET /api/categories
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("fetch categories")
		writeError(w, http.StatusInternalServerError, "internal_error", "An error occurred fetching categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Message: "Welcome to the Beauty Bot API",
		Endpoints: map[string]string{
			"/api/categories": "GET - List available makeup categories",
			"/api/recommend":  "POST - Get product recommendations for a category",
		},
	})
}
