package model

import (
	"math"
	"sort"

	"github.com/actuallystonmai/beautybot/internal/domain"
)

const DefaultTopN = 10

type Client struct {
	topN int
}

func NewClient(topN int) *Client {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Client{topN: topN}
}

type ScoredProduct struct {
	domain.Product
	Score float64
}

// Rank orders products by value score, best first, and keeps the top N.
// Ties keep their input order.
func (c *Client) Rank(products []domain.Product) []ScoredProduct {
	scored := make([]ScoredProduct, 0, len(products))
	for _, p := range products {
		scored = append(scored, ScoredProduct{Product: p, Score: ValueScore(p)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > c.topN {
		scored = scored[:c.topN]
	}
	return scored
}

// ValueScore rewards rating and review volume per unit price. Reviews are
// log-scaled so heavily reviewed products don't dominate.
func ValueScore(p domain.Product) float64 {
	if p.Price <= 0 {
		return 0
	}
	return p.Rating * math.Log(float64(p.Reviews)+1) / p.Price
}

func Products(scored []ScoredProduct) []domain.Product {
	out := make([]domain.Product, len(scored))
	for i, s := range scored {
		out[i] = s.Product
	}
	return out
}
