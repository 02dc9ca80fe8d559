// Package session holds the interaction state of one Beauty Bot session and
// the two transitions that change it: loading the category list once at
// start, and fetching a recommendation for each category selection.
//
// A Session is owned by a single goroutine. Fetches run concurrently and hand
// their results back as tagged Outcomes on a channel; only the owner applies
// them, so the state needs no locking. An Outcome whose tag is not the latest
// selection is discarded, which keeps a slow response for an old selection
// from overwriting a newer one.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	CategoryLoadFailedMessage   = "Failed to load categories"
	RecommendationFailedMessage = "Failed to fetch recommendations"
)

var (
	ErrCategoryLoad        = errors.New("category load failed")
	ErrRecommendationFetch = errors.New("recommendation fetch failed")

	ErrAlreadyStarted = errors.New("session already started")
	ErrIdle           = errors.New("no request in flight")
)

type CategoryLoader interface {
	Categories(ctx context.Context) ([]string, error)
}

type RecommendationFetcher interface {
	Recommend(ctx context.Context, category string) (domain.Recommendation, error)
}

// State is what the view renders. Empty strings mean unset.
type State struct {
	Categories         []string
	SelectedCategory   string
	Products           []domain.Product
	RecommendationText string
	Loading            bool
	ErrorMessage       string
}

// Outcome is the result of one recommendation fetch, tagged with the
// selection it belongs to.
type Outcome struct {
	Seq            uint64
	Category       string
	Recommendation domain.Recommendation
	Err            error
}

type Session struct {
	id      string
	loader  CategoryLoader
	fetcher RecommendationFetcher
	log     zerolog.Logger

	state    State
	started  bool
	seq      uint64
	inflight int
	lastErr  error
	outcomes chan Outcome
}

func New(loader CategoryLoader, fetcher RecommendationFetcher) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		loader:  loader,
		fetcher: fetcher,
		log:     logging.With().Str("session", id).Logger(),
		state: State{
			Categories: []string{},
			Products:   []domain.Product{},
		},
		outcomes: make(chan Outcome, 4),
	}
}

func (s *Session) ID() string { return s.id }

// State returns a copy safe to hand to a renderer.
func (s *Session) State() State {
	st := s.state
	st.Categories = append([]string{}, s.state.Categories...)
	st.Products = append([]domain.Product{}, s.state.Products...)
	return st
}

// Err is the error behind the current ErrorMessage, nil when none is shown.
func (s *Session) Err() error { return s.lastErr }

// Start loads the category list. It makes exactly one attempt and must run
// before the first selection; later calls return ErrAlreadyStarted.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	categories, err := s.loader.Categories(ctx)
	if err != nil {
		s.lastErr = fmt.Errorf("%w: %w", ErrCategoryLoad, err)
		s.state.ErrorMessage = CategoryLoadFailedMessage
		s.log.Error().Err(err).Msg("load categories")
		return s.lastErr
	}

	if categories == nil {
		categories = []string{}
	}
	s.state.Categories = categories
	s.log.Debug().Int("count", len(categories)).Msg("categories loaded")
	return nil
}

// Select resets the result fields, marks the session loading and starts a
// fetch for category. The returned tag identifies this selection; only the
// Outcome carrying the latest tag is applied. The category is forwarded
// as-is, even if it was never offered.
func (s *Session) Select(ctx context.Context, category string) uint64 {
	s.started = true
	s.seq++
	seq := s.seq

	s.state.SelectedCategory = category
	s.state.Products = []domain.Product{}
	s.state.RecommendationText = ""
	s.state.ErrorMessage = ""
	s.state.Loading = true
	s.lastErr = nil

	s.inflight++
	s.log.Debug().Uint64("seq", seq).Str("category", category).Msg("recommendation requested")

	go func() {
		rec, err := s.fetcher.Recommend(ctx, category)
		o := Outcome{Seq: seq, Category: category, Recommendation: rec, Err: err}
		// a cancelled fetch still resolves the selection; only give up
		// on delivery when the buffer is full and nobody is receiving
		select {
		case s.outcomes <- o:
			return
		default:
		}
		select {
		case s.outcomes <- o:
		case <-ctx.Done():
		}
	}()
	return seq
}

// Outcomes delivers finished fetches. An owner running its own event loop
// receives from it and passes each value to Apply.
func (s *Session) Outcomes() <-chan Outcome { return s.outcomes }

// Apply folds a finished fetch into the state. It reports false, leaving the
// state untouched, when the outcome belongs to a superseded selection.
func (s *Session) Apply(o Outcome) bool {
	if s.inflight > 0 {
		s.inflight--
	}

	if o.Seq != s.seq || o.Category != s.state.SelectedCategory {
		s.log.Debug().
			Uint64("seq", o.Seq).
			Uint64("current", s.seq).
			Str("category", o.Category).
			Msg("discarding stale recommendation")
		return false
	}

	s.state.Loading = false
	if o.Err != nil {
		s.lastErr = fmt.Errorf("%w: %w", ErrRecommendationFetch, o.Err)
		s.state.ErrorMessage = RecommendationFailedMessage
		s.state.Products = []domain.Product{}
		s.state.RecommendationText = ""
		s.log.Error().Err(o.Err).Str("category", o.Category).Msg("fetch recommendations")
		return true
	}

	products := o.Recommendation.TopProducts
	if products == nil {
		products = []domain.Product{}
	}
	s.state.Products = products
	s.state.RecommendationText = o.Recommendation.GPTRecommendation
	s.log.Debug().Str("category", o.Category).Int("count", len(products)).Msg("recommendation applied")
	return true
}

// Next blocks for one outcome and applies it. It returns ErrIdle when
// nothing is in flight.
func (s *Session) Next(ctx context.Context) (bool, error) {
	if s.inflight == 0 {
		return false, ErrIdle
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	select {
	case o := <-s.outcomes:
		return s.Apply(o), nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Await applies outcomes until the latest selection has resolved, discarding
// stale ones on the way.
func (s *Session) Await(ctx context.Context) error {
	for s.state.Loading {
		if _, err := s.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}
