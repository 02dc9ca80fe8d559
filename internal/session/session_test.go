package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/actuallystonmai/beautybot/internal/domain"
)

type fakeLoader struct {
	categories []string
	err        error
	calls      int
}

func (f *fakeLoader) Categories(ctx context.Context) ([]string, error) {
	f.calls++
	return f.categories, f.err
}

type reply struct {
	rec domain.Recommendation
	err error
}

// gatedFetcher holds every request until the test releases it.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan reply
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: map[string]chan reply{}}
}

func (f *gatedFetcher) gate(category string) chan reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[category]
	if !ok {
		ch = make(chan reply, 1)
		f.gates[category] = ch
	}
	return ch
}

func (f *gatedFetcher) Recommend(ctx context.Context, category string) (domain.Recommendation, error) {
	select {
	case r := <-f.gate(category):
		return r.rec, r.err
	case <-ctx.Done():
		return domain.Recommendation{}, ctx.Err()
	}
}

func (f *gatedFetcher) release(category string, rec domain.Recommendation, err error) {
	f.gate(category) <- reply{rec: rec, err: err}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func creamRecommendation() domain.Recommendation {
	return domain.Recommendation{
		TopProducts:       []domain.Product{{Name: "Cream", Brand: "X", Price: 10, Rating: 4.5, Reviews: 12}},
		GPTRecommendation: "Try this cream",
	}
}

func checkInvariants(t *testing.T, st State) {
	t.Helper()
	if st.Loading && st.ErrorMessage != "" {
		t.Errorf("loading together with error %q", st.ErrorMessage)
	}
	if st.Loading && len(st.Products) > 0 {
		t.Errorf("loading together with %d products", len(st.Products))
	}
	if st.ErrorMessage != "" && (len(st.Products) > 0 || st.RecommendationText != "") {
		t.Errorf("error %q shown together with results", st.ErrorMessage)
	}
	if st.Products == nil || st.Categories == nil {
		t.Error("slices in state must never be nil")
	}
}

func TestStartLoadsCategoriesInOrder(t *testing.T) {
	loader := &fakeLoader{categories: []string{"Skincare", "Makeup", "Skincare"}}
	s := New(loader, newGatedFetcher())

	if err := s.Start(testCtx(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}

	st := s.State()
	want := []string{"Skincare", "Makeup", "Skincare"}
	if len(st.Categories) != len(want) {
		t.Fatalf("expected %v, got %v", want, st.Categories)
	}
	for i := range want {
		if st.Categories[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], st.Categories[i])
		}
	}
	if st.ErrorMessage != "" {
		t.Errorf("unexpected error %q", st.ErrorMessage)
	}
	checkInvariants(t, st)
}

func TestStartFailure(t *testing.T) {
	loader := &fakeLoader{err: errors.New("connection refused")}
	s := New(loader, newGatedFetcher())

	err := s.Start(testCtx(t))
	if !errors.Is(err, ErrCategoryLoad) {
		t.Fatalf("expected ErrCategoryLoad, got %v", err)
	}

	st := s.State()
	if st.ErrorMessage != "Failed to load categories" {
		t.Errorf("unexpected error message %q", st.ErrorMessage)
	}
	if len(st.Categories) != 0 {
		t.Errorf("categories should stay empty, got %v", st.Categories)
	}
	if !errors.Is(s.Err(), ErrCategoryLoad) {
		t.Errorf("Err() should report the load failure, got %v", s.Err())
	}
	checkInvariants(t, st)
}

func TestStartOnlyOnce(t *testing.T) {
	loader := &fakeLoader{categories: []string{"a"}}
	s := New(loader, newGatedFetcher())
	ctx := testCtx(t)

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("expected exactly one load attempt, got %d", loader.calls)
	}
}

func TestSelectResetsSynchronously(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{err: errors.New("down")}, fetcher)
	ctx := testCtx(t)

	s.Start(ctx) // leaves an error message behind

	// previous cycle with results
	s.Select(ctx, "Skincare")
	fetcher.release("Skincare", creamRecommendation(), nil)
	if err := s.Await(ctx); err != nil {
		t.Fatal(err)
	}

	s.Select(ctx, "Makeup")
	st := s.State()
	if st.SelectedCategory != "Makeup" {
		t.Errorf("expected Makeup selected, got %q", st.SelectedCategory)
	}
	if !st.Loading {
		t.Error("expected loading right after select")
	}
	if len(st.Products) != 0 || st.RecommendationText != "" || st.ErrorMessage != "" {
		t.Errorf("select should clear prior results, got %+v", st)
	}
	checkInvariants(t, st)

	fetcher.release("Makeup", domain.Recommendation{}, nil)
	s.Await(ctx)
}

func TestSkincareScenario(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{categories: []string{"Skincare", "Makeup"}}, fetcher)
	ctx := testCtx(t)

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	s.Select(ctx, "Skincare")
	fetcher.release("Skincare", creamRecommendation(), nil)
	if err := s.Await(ctx); err != nil {
		t.Fatalf("Await: %v", err)
	}

	st := s.State()
	if st.Loading {
		t.Error("expected loading to be false")
	}
	if st.ErrorMessage != "" {
		t.Errorf("unexpected error %q", st.ErrorMessage)
	}
	if len(st.Products) != 1 || st.Products[0].Name != "Cream" {
		t.Errorf("expected [Cream], got %+v", st.Products)
	}
	if st.RecommendationText != "Try this cream" {
		t.Errorf("unexpected text %q", st.RecommendationText)
	}
	checkInvariants(t, st)
}

func TestMakeupFailureScenario(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{categories: []string{"Skincare", "Makeup"}}, fetcher)
	ctx := testCtx(t)
	s.Start(ctx)

	s.Select(ctx, "Makeup")
	fetcher.release("Makeup", domain.Recommendation{}, errors.New("network error"))
	if err := s.Await(ctx); err != nil {
		t.Fatalf("Await: %v", err)
	}

	st := s.State()
	if st.ErrorMessage != "Failed to fetch recommendations" {
		t.Errorf("unexpected error message %q", st.ErrorMessage)
	}
	if st.Loading {
		t.Error("expected loading to be false")
	}
	if len(st.Products) != 0 || st.RecommendationText != "" {
		t.Errorf("expected no results, got %+v", st)
	}
	if !errors.Is(s.Err(), ErrRecommendationFetch) {
		t.Errorf("expected ErrRecommendationFetch, got %v", s.Err())
	}
	checkInvariants(t, st)
}

func TestMissingTopProductsBecomesEmpty(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{}, fetcher)
	ctx := testCtx(t)

	s.Select(ctx, "blush")
	fetcher.release("blush", domain.Recommendation{GPTRecommendation: "nothing to show"}, nil)
	s.Await(ctx)

	st := s.State()
	if st.Products == nil || len(st.Products) != 0 {
		t.Errorf("expected empty non-nil products, got %v", st.Products)
	}
	if st.RecommendationText != "nothing to show" {
		t.Errorf("unexpected text %q", st.RecommendationText)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{}, fetcher)
	ctx := testCtx(t)

	first := s.Select(ctx, "Skincare")
	second := s.Select(ctx, "Makeup")
	if first == second {
		t.Fatal("each selection needs its own tag")
	}

	// the superseded request resolves first
	fetcher.release("Skincare", creamRecommendation(), nil)
	applied, err := s.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("stale outcome must not be applied")
	}
	st := s.State()
	if !st.Loading || len(st.Products) != 0 || st.SelectedCategory != "Makeup" {
		t.Errorf("stale outcome leaked into state: %+v", st)
	}

	fetcher.release("Makeup", domain.Recommendation{
		TopProducts:       []domain.Product{{Name: "Lipstick"}},
		GPTRecommendation: "Bold red",
	}, nil)
	applied, err = s.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Error("current outcome should be applied")
	}

	st = s.State()
	if st.Loading || len(st.Products) != 1 || st.Products[0].Name != "Lipstick" {
		t.Errorf("unexpected final state %+v", st)
	}
}

func TestStaleResponseAfterCurrentIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	s := New(&fakeLoader{}, fetcher)
	ctx := testCtx(t)

	s.Select(ctx, "Skincare")
	s.Select(ctx, "Makeup")

	fetcher.release("Makeup", domain.Recommendation{}, errors.New("timeout"))
	if err := s.Await(ctx); err != nil {
		t.Fatal(err)
	}

	fetcher.release("Skincare", creamRecommendation(), nil)
	applied, err := s.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("late stale success must not replace the current failure")
	}

	st := s.State()
	if st.ErrorMessage != RecommendationFailedMessage || len(st.Products) != 0 {
		t.Errorf("unexpected state %+v", st)
	}
	checkInvariants(t, st)
}

func TestSameCategoryReselected(t *testing.T) {
	// requests never resolve on their own, outcomes are fed by hand
	s := New(&fakeLoader{}, newGatedFetcher())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := s.Select(ctx, "Skincare")
	second := s.Select(ctx, "Skincare")

	if s.Apply(Outcome{Seq: first, Category: "Skincare", Recommendation: domain.Recommendation{GPTRecommendation: "old"}}) {
		t.Error("outcome of the first selection should be discarded by tag")
	}
	if !s.State().Loading {
		t.Error("still waiting on the second selection")
	}
	if !s.Apply(Outcome{Seq: second, Category: "Skincare", Recommendation: domain.Recommendation{GPTRecommendation: "new"}}) {
		t.Error("outcome of the second selection should apply")
	}
	if got := s.State().RecommendationText; got != "new" {
		t.Errorf("expected new, got %q", got)
	}
}

func TestNextWhenIdle(t *testing.T) {
	s := New(&fakeLoader{}, newGatedFetcher())
	if _, err := s.Next(testCtx(t)); !errors.Is(err, ErrIdle) {
		t.Errorf("expected ErrIdle, got %v", err)
	}
	if err := s.Await(testCtx(t)); err != nil {
		t.Errorf("Await with nothing loading should return at once, got %v", err)
	}
}

func TestAwaitHonoursContext(t *testing.T) {
	s := New(&fakeLoader{}, newGatedFetcher())
	ctx, cancel := context.WithCancel(context.Background())

	s.Select(ctx, "never")
	cancel()

	if err := s.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCancelledSelectionStillResolves(t *testing.T) {
	for range 50 {
		s := New(&fakeLoader{}, newGatedFetcher())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s.Select(ctx, "Skincare")
		if err := s.Await(testCtx(t)); err != nil {
			t.Fatalf("Await: %v", err)
		}

		st := s.State()
		if st.Loading {
			t.Fatal("cancelled fetch left the session loading")
		}
		if st.ErrorMessage != RecommendationFailedMessage {
			t.Fatalf("expected %q, got %q", RecommendationFailedMessage, st.ErrorMessage)
		}
		if !errors.Is(s.Err(), context.Canceled) {
			t.Fatalf("expected the cancellation behind the error, got %v", s.Err())
		}
		checkInvariants(t, st)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := New(&fakeLoader{}, newGatedFetcher())
	b := New(&fakeLoader{}, newGatedFetcher())
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestStartAfterSelectIsRejected(t *testing.T) {
	fetcher := newGatedFetcher()
	loader := &fakeLoader{categories: []string{"a"}}
	s := New(loader, fetcher)
	ctx := testCtx(t)

	s.Select(ctx, "a")
	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	if loader.calls != 0 {
		t.Error("categories should not load after a selection")
	}
	fetcher.release("a", domain.Recommendation{}, nil)
	s.Await(ctx)
}

func TestStateIsACopy(t *testing.T) {
	s := New(&fakeLoader{categories: []string{"a", "b"}}, newGatedFetcher())
	s.Start(testCtx(t))

	st := s.State()
	st.Categories[0] = "mutated"

	if s.State().Categories[0] != "a" {
		t.Error("mutating a snapshot must not change the session")
	}
}
