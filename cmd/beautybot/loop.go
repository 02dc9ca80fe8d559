package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/actuallystonmai/beautybot/internal/session"
	"github.com/actuallystonmai/beautybot/internal/view"
)

// run draws the initial frame, then either resolves a single category or
// hands over to the interactive loop.
func run(ctx context.Context, sess *session.Session, r *view.Renderer, category string, in io.Reader) error {
	if err := r.Render(view.Project(sess.State())); err != nil {
		return err
	}
	if category != "" {
		return runOnce(ctx, sess, r, category)
	}
	return runInteractive(ctx, sess, r, in)
}

func runOnce(ctx context.Context, sess *session.Session, r *view.Renderer, category string) error {
	sess.Select(ctx, category)
	if err := sess.Await(ctx); err != nil {
		return err
	}
	return r.Render(view.Project(sess.State()))
}

// runInteractive is the session's event loop: user input and finished
// fetches arrive on channels and are handled one at a time.
func runInteractive(ctx context.Context, sess *session.Session, r *view.Renderer, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	render := func() error { return r.Render(view.Project(sess.State())) }

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				// input closed: let the live request finish, then stop
				if !sess.State().Loading {
					return nil
				}
				if err := sess.Await(ctx); err != nil {
					return err
				}
				return render()
			}

			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "q", "quit", "exit":
				return nil
			}
			sess.Select(ctx, resolveChoice(sess.State().Categories, line))
			if err := render(); err != nil {
				return err
			}

		case o := <-sess.Outcomes():
			if sess.Apply(o) {
				if err := render(); err != nil {
					return err
				}
			}
		}
	}
}

// resolveChoice maps a 1-based index onto the category list; anything else
// is taken as a category name verbatim.
func resolveChoice(categories []string, input string) string {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(categories) {
		return categories[n-1]
	}
	return input
}
