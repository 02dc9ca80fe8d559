package handler

import (
	"context"
	"net/http"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

type Recommender interface {
	Categories(ctx context.Context) ([]string, error)
	Recommend(ctx context.Context, category string) (*domain.RecommendationResult, error)
}

type Handler struct {
	service  Recommender
	validate *validator.Validate
}

func NewHandler(svc Recommender) *Handler {
	return &Handler{service: svc, validate: validator.New()}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}
