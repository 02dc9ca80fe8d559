package domain

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrModelUnavailable = errors.New("recommendation model unavailable")
)
