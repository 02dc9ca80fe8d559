package domain

import "fmt"

// Recommendation is the wire shape of POST /api/recommend.
type Recommendation struct {
	TopProducts       []Product `json:"top_products"`
	GPTRecommendation string    `json:"gpt_recommendation"`
}

// RecommendRequest only requires the key to be present; an empty category
// is forwarded like any other.
type RecommendRequest struct {
	Category *string `json:"category" validate:"required"`
}

type RecommendationResult struct {
	Recommendation Recommendation
	CacheHit       bool
}

func NoProductsMessage(category string) string {
	return fmt.Sprintf("No products found for %s. Please try a different category.", category)
}
