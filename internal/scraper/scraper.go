// Package scraper reads product tiles from Sephora category pages.
//
// The selectors track Sephora's markup and break whenever it changes; a page
// without recognisable tiles yields an empty product list, not an error.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/go-resty/resty/v2"
)

const (
	tileSelector    = "div[data-comp='ProductGrid'] div[data-comp='ProductTile']"
	nameSelector    = "span[data-at='sku_item_name']"
	brandSelector   = "span[data-at='sku_item_brand']"
	priceSelector   = "span[data-at='price']"
	ratingSelector  = "div[data-comp='StarRating']"
	reviewsSelector = "span[data-at='number_of_reviews']"
	linkSelector    = "a[data-comp='ProductTile-link']"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

type Scraper struct {
	http    *resty.Client
	baseURL string
	siteURL string
	delay   time.Duration
}

// New builds a scraper for category pages under baseURL, e.g.
// https://www.sephora.com/shop. delay is slept before every request.
func New(baseURL string, delay time.Duration) (*Scraper, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse scrape url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("scrape url %q must be absolute", baseURL)
	}

	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")

	return &Scraper{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		siteURL: u.Scheme + "://" + u.Host,
		delay:   delay,
	}, nil
}

// Slug turns a category name into its URL path segment.
func Slug(category string) string {
	return strings.ReplaceAll(strings.ToLower(category), " ", "-")
}

func (s *Scraper) Categories(ctx context.Context) ([]string, error) {
	return append([]string(nil), domain.DefaultCategories...), nil
}

// Products scrapes one category page. Transport failures are logged and give
// an empty list; only context cancellation is returned as an error.
func (s *Scraper) Products(ctx context.Context, category string) ([]domain.Product, error) {
	pageURL := s.baseURL + "/" + Slug(category)
	log := logging.With().Str("component", "scraper").Str("category", category).Logger()

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgents[rand.IntN(len(userAgents))]).
		Get(pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("url", pageURL).Msg("scrape request failed")
		return []domain.Product{}, nil
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("url", pageURL).Msg("scrape request rejected")
		return []domain.Product{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		log.Error().Err(err).Msg("parse product page")
		return []domain.Product{}, nil
	}

	products := s.parse(doc)
	log.Info().Int("count", len(products)).Msg("scraped products")
	return products, nil
}

func (s *Scraper) parse(doc *goquery.Document) []domain.Product {
	products := []domain.Product{}

	tiles := doc.Find(tileSelector)
	if tiles.Length() == 0 {
		logging.Warn().Msg("no product tiles found, markup may have changed or the request was blocked")
		return products
	}

	tiles.Each(func(_ int, tile *goquery.Selection) {
		name := strings.TrimSpace(tile.Find(nameSelector).First().Text())
		priceText := strings.TrimSpace(tile.Find(priceSelector).First().Text())
		if name == "" || priceText == "" {
			return
		}

		price, err := parsePrice(priceText)
		if err != nil {
			logging.Debug().Err(err).Str("name", name).Msg("skip tile with bad price")
			return
		}

		p := domain.Product{
			Name:    name,
			Brand:   strings.TrimSpace(tile.Find(brandSelector).First().Text()),
			Price:   price,
			Rating:  parseRating(tile.Find(ratingSelector).First().AttrOr("aria-label", "")),
			Reviews: parseReviews(tile.Find(reviewsSelector).First().Text()),
		}
		if href, ok := tile.Find(linkSelector).First().Attr("href"); ok {
			p.URL = s.siteURL + href
		}
		products = append(products, p)
	})
	return products
}

func parsePrice(text string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "").Replace(text)
	// ranges such as "$10.00 - $25.00" use the low end
	if i := strings.Index(clean, "-"); i > 0 {
		clean = clean[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(clean), 64)
}

// "4.5 stars" -> 4.5, anything else -> 0
func parseRating(label string) float64 {
	before, _, found := strings.Cut(label, "stars")
	if !found {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(before), 64)
	if err != nil {
		return 0
	}
	return v
}

// "(1,234)" -> 1234, anything else -> 0
func parseReviews(text string) int {
	clean := strings.NewReplacer("(", "", ")", "", ",", "").Replace(strings.TrimSpace(text))
	v, err := strconv.Atoi(clean)
	if err != nil {
		return 0
	}
	return v
}
