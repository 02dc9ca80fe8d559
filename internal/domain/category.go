package domain

// DefaultCategories is the category list offered when the catalog has no
// categories table to read from (scrape mode) and the seed for a fresh catalog.
var DefaultCategories = []string{
	"makeup", "foundation", "concealer", "face primer",
	"powder", "blush", "bronzer", "highlighter",
	"eyeshadow", "eyeliner", "mascara", "eyebrow",
	"lipstick", "lip gloss", "lip liner",
}
