package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/actuallystonmai/beautybot/internal/repository"
)

const productsPerCategory = 24

var brands = []string{
	"Fenty Beauty", "Rare Beauty", "NARS", "Charlotte Tilbury", "Too Faced",
	"Huda Beauty", "Benefit Cosmetics", "Tarte", "MAKEUP BY MARIO", "Anastasia Beverly Hills",
	"Urban Decay", "Glossier", "Milk Makeup", "Dior", "Sephora Collection",
}

var finishes = []string{
	"Soft Matte", "Luminous", "Velvet", "Satin", "Dewy", "Longwear",
	"Pro Filt'r", "Radiant", "Hydrating", "Blurring", "Glow", "Sculpt",
}

func Setup(ctx context.Context, db repository.DB) error {
	rng := rand.New(rand.NewSource(42))

	// Truncate existing data before insert
	logging.Info().Msg("[seed] truncating existing data")
	if _, err := db.Exec(ctx, `
		TRUNCATE products, categories RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	logging.Info().Msg("[seed] inserting categories")
	if err := seedCategories(ctx, db, domain.DefaultCategories); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	logging.Info().Msg("[seed] inserting products")
	for i, category := range domain.DefaultCategories {
		if err := seedProducts(ctx, db, rng, int64(i+1), category, productsPerCategory); err != nil {
			return fmt.Errorf("seed products for %s: %w", category, err)
		}
	}

	logging.Info().Msg("[seed] seeding complete")
	return nil
}

func seedCategories(ctx context.Context, db repository.DB, names []string) error {
	if len(names) == 0 {
		return nil
	}

	rows := []string{}
	args := []any{}
	for i, name := range names {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, name, i)
	}

	query := "INSERT INTO categories (name, position) VALUES " + strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

func seedProducts(ctx context.Context, db repository.DB, rng *rand.Rand, categoryID int64, category string, n int) error {
	if n <= 0 {
		return nil
	}

	rows := []string{}
	args := []any{}
	for i := range n {
		p := fakeProduct(rng, category, i)
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, categoryID, p.Name, p.Brand, p.Price, p.Rating, p.Reviews, p.Description, p.URL)
	}

	query := "INSERT INTO products (category_id, name, brand, price, rating, reviews, description, url) VALUES " +
		strings.Join(rows, ", ")
	_, err := db.Exec(ctx, query, args...)
	return err
}

func fakeProduct(rng *rand.Rand, category string, i int) domain.Product {
	brand := brands[rng.Intn(len(brands))]
	finish := finishes[rng.Intn(len(finishes))]
	name := fmt.Sprintf("%s %s", finish, titleCase(category))
	if i >= len(finishes) {
		name = fmt.Sprintf("%s No. %d", name, i+1)
	}

	p := domain.Product{
		Name:    name,
		Brand:   brand,
		Price:   priceScore(rng),
		Rating:  math.Round((3.2+rng.Float64()*1.8)*10) / 10,
		Reviews: reviewCount(rng),
		URL:     fmt.Sprintf("https://www.sephora.com/product/%s-%d", strings.ReplaceAll(strings.ToLower(name), " ", "-"), i+1),
	}
	if rng.Float64() < 0.6 {
		p.Description = fmt.Sprintf("A %s %s from %s.", strings.ToLower(finish), category, brand)
	}
	return p
}

// Prices cluster around $20-$45 with a long tail of luxury items.
func priceScore(rng *rand.Rand) float64 {
	raw := 8 + math.Pow(rng.Float64(), 2.2)*72
	return math.Round(raw*100) / 100
}

// Review counts follow a rough power law: most products have few, a handful have many.
func reviewCount(rng *rand.Rand) int {
	u := rng.Float64()
	if u == 0 {
		u = 0.001
	}
	return int(math.Pow(u, 3) * 20000)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
