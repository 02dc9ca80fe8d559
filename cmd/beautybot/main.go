// Command beautybot is a terminal front end for the Beauty Bot API: it lists
// the categories, lets you pick one and prints the recommended products.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actuallystonmai/beautybot/internal/apiclient"
	"github.com/actuallystonmai/beautybot/internal/logging"
	"github.com/actuallystonmai/beautybot/internal/session"
	"github.com/actuallystonmai/beautybot/internal/view"
)

func main() {
	apiURL := flag.String("api", envOr("BEAUTYBOT_API_URL", "http://localhost:8080"), "Beauty Bot API base URL")
	category := flag.String("category", "", "select this category, print the result and exit")
	noColor := flag.Bool("no-color", false, "disable colored output")
	timeout := flag.Duration("timeout", 2*time.Minute, "HTTP client timeout")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(*apiURL, *timeout)
	sess := session.New(client, client)
	renderer := view.NewRenderer(os.Stdout, !*noColor)

	log := logging.Logger().With().Str("session", sess.ID()).Str("api", *apiURL).Logger()
	log.Debug().Msg("session started")

	// a failed load is already on screen as the error banner
	_ = sess.Start(ctx)

	err := run(ctx, sess, renderer, *category, os.Stdin)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("beautybot stopped")
		os.Exit(1)
	}
	if sess.Err() != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
