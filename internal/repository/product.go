package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) categoryID(ctx context.Context, category string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM categories WHERE name = $1`, category,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrCategoryNotFound
		}
		return 0, fmt.Errorf("query category %q: %w", category, err)
	}
	return id, nil
}

// Get all products of a category. Returns domain.ErrCategoryNotFound for an
// unknown category name.
func (r *Repository) Products(ctx context.Context, category string) ([]domain.Product, error) {
	id, err := r.categoryID(ctx, category)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT name, brand, price, rating, reviews,
			COALESCE(description, ''), COALESCE(url, '')
		FROM products
		WHERE category_id = $1
		ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query products for %q: %w", category, err)
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Name, &p.Brand, &p.Price, &p.Rating, &p.Reviews, &p.Description, &p.URL); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}
