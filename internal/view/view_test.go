package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/session"
)

func cream() domain.Product {
	return domain.Product{Name: "Cream", Brand: "X", Price: 10, Rating: 4.5, Reviews: 12}
}

func TestProjectSuccess(t *testing.T) {
	f := Project(session.State{
		Categories:         []string{"Skincare", "Makeup"},
		SelectedCategory:   "Skincare",
		Products:           []domain.Product{cream()},
		RecommendationText: "Try this cream",
	})

	if !f.ShowResults || f.ShowLoading || f.ErrorBanner != "" {
		t.Errorf("unexpected flags %+v", f)
	}
	if len(f.Categories) != 2 || !f.Categories[0].Selected || f.Categories[1].Selected {
		t.Errorf("unexpected category options %+v", f.Categories)
	}
	if f.Recommendation != "Try this cream" {
		t.Errorf("unexpected recommendation %q", f.Recommendation)
	}
}

func TestProjectLoading(t *testing.T) {
	f := Project(session.State{Categories: []string{"a"}, SelectedCategory: "a", Loading: true, Products: []domain.Product{}})
	if !f.ShowLoading || f.ShowResults {
		t.Errorf("expected loading only, got %+v", f)
	}
}

func TestProjectError(t *testing.T) {
	f := Project(session.State{ErrorMessage: "Failed to fetch recommendations"})
	if f.ErrorBanner == "" || f.ShowResults || f.ShowLoading {
		t.Errorf("expected error only, got %+v", f)
	}
	if f.Categories == nil {
		t.Error("category control is always shown")
	}
}

func TestProjectEmptyProductsHidesPanel(t *testing.T) {
	f := Project(session.State{Products: []domain.Product{}, RecommendationText: "No products found"})
	if f.ShowResults {
		t.Error("results panel needs at least one product")
	}
	if f.Recommendation != "" {
		t.Error("recommendation text belongs to the results panel")
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	p := cream()
	p.Description = "Rich and creamy"
	err := r.Render(Project(session.State{
		Categories:         []string{"Skincare", "Makeup"},
		SelectedCategory:   "Skincare",
		Products:           []domain.Product{p},
		RecommendationText: "Try this cream",
	}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"[Skincare]", " Makeup ", "Cream", "X", "$10 • 4.5★ • 12 reviews", "Rich and creamy", "Try this cream"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Loading...") {
		t.Error("loading indicator should be hidden")
	}
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, false).Render(Project(session.State{
		Categories:   []string{},
		ErrorMessage: "Failed to load categories",
	}))

	if !strings.Contains(buf.String(), "Failed to load categories") {
		t.Errorf("expected error banner, got %q", buf.String())
	}
}

func TestProductMeta(t *testing.T) {
	got := ProductMeta(domain.Product{Price: 12.99, Rating: 4, Reviews: 5400})
	if got != "$12.99 • 4★ • 5400 reviews" {
		t.Errorf("unexpected meta %q", got)
	}
}
