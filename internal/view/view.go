// Package view projects session state onto what the terminal shows.
package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/actuallystonmai/beautybot/internal/domain"
	"github.com/actuallystonmai/beautybot/internal/session"
	"github.com/fatih/color"
)

type CategoryOption struct {
	Name     string
	Selected bool
}

// Frame is a pure function of session.State.
type Frame struct {
	Categories     []CategoryOption
	ErrorBanner    string
	ShowLoading    bool
	ShowResults    bool
	Products       []domain.Product
	Recommendation string
}

func Project(st session.State) Frame {
	f := Frame{
		Categories:  make([]CategoryOption, 0, len(st.Categories)),
		ErrorBanner: st.ErrorMessage,
		ShowLoading: st.Loading,
		ShowResults: !st.Loading && st.ErrorMessage == "" && len(st.Products) > 0,
	}
	for _, c := range st.Categories {
		f.Categories = append(f.Categories, CategoryOption{Name: c, Selected: c == st.SelectedCategory})
	}
	if f.ShowResults {
		f.Products = st.Products
		f.Recommendation = st.RecommendationText
	}
	return f
}

type Renderer struct {
	w        io.Writer
	selected *color.Color
	errColor *color.Color
	title    *color.Color
	dim      *color.Color
}

func NewRenderer(w io.Writer, useColor bool) *Renderer {
	r := &Renderer{
		w:        w,
		selected: color.New(color.FgMagenta, color.Bold),
		errColor: color.New(color.FgRed, color.Bold),
		title:    color.New(color.Bold),
		dim:      color.New(color.Faint),
	}
	if !useColor {
		for _, c := range []*color.Color{r.selected, r.errColor, r.title, r.dim} {
			c.DisableColor()
		}
	}
	return r
}

func (r *Renderer) Render(f Frame) error {
	var b strings.Builder

	for i, c := range f.Categories {
		if i > 0 {
			b.WriteString("  ")
		}
		if c.Selected {
			b.WriteString(r.selected.Sprintf("[%s]", c.Name))
		} else {
			fmt.Fprintf(&b, " %s ", c.Name)
		}
	}
	b.WriteString("\n")

	if f.ShowLoading {
		b.WriteString("Loading...\n")
	}
	if f.ErrorBanner != "" {
		b.WriteString(r.errColor.Sprint(f.ErrorBanner))
		b.WriteString("\n")
	}

	if f.ShowResults {
		for _, p := range f.Products {
			b.WriteString("\n")
			b.WriteString(r.title.Sprint(p.Name))
			b.WriteString("\n")
			if p.Brand != "" {
				b.WriteString(p.Brand + "\n")
			}
			b.WriteString(r.dim.Sprint(ProductMeta(p)))
			b.WriteString("\n")
			if p.Description != "" {
				b.WriteString(p.Description + "\n")
			}
		}
		if f.Recommendation != "" {
			b.WriteString("\n")
			b.WriteString(f.Recommendation)
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// ProductMeta formats "$10 • 4.5★ • 12 reviews".
func ProductMeta(p domain.Product) string {
	return fmt.Sprintf("$%s • %s★ • %d reviews", number(p.Price), number(p.Rating), p.Reviews)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
