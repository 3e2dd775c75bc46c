package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/goliatone/go-modelform/internal/app"
	"github.com/goliatone/go-modelform/internal/config"
	"github.com/goliatone/go-modelform/pkg/form"
	"github.com/goliatone/go-modelform/pkg/render"
	"github.com/goliatone/go-modelform/pkg/renderers/tui"
	"github.com/goliatone/go-modelform/pkg/session"
)

func main() {
	source := flag.String("schema", "", "OpenAPI document, metadata file or directory, path or URL")
	format := flag.String("format", "", "schema format: openapi or metadata")
	model := flag.String("model", "", "model to open a form for")
	mode := flag.String("mode", string(form.ModeCreate), "form mode: create or update")
	id := flag.String("id", "", "record identifier for update forms")
	renderer := flag.String("renderer", "tui", "renderer to use: tui, html or text")
	output := flag.String("output", "", "output file (stdout if empty)")
	seed := flag.String("seed", "", "YAML or JSON file with records to load into the memory store")
	debug := flag.Bool("debug", false, "dump the session and payload")
	flag.Parse()

	cfg, err := config.Load(func(c *config.Config) {
		if *source != "" {
			c.Schema.Source = *source
		}
		if *format != "" {
			c.Schema.Format = *format
		}
		if *debug {
			c.Log.Level = "debug"
		}
	})
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *model == "" {
		log.Fatalf("-model is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Open(ctx, cfg, cfg.Log.Logger())
	if err != nil {
		log.Fatalf("Failed to open: %v", err)
	}
	defer a.Close()

	if *seed != "" {
		if err := a.SeedFile(*seed); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
	}

	var options []session.Option
	if *id != "" {
		options = append(options, session.WithID(parseID(*id)))
	}
	s, err := a.NewSession(*model, form.Mode(*mode), options...)
	if err != nil {
		log.Fatalf("Failed to open form: %v", err)
	}

	if *renderer == "tui" {
		payload, err := tui.New(tui.WithLogger(a.Logger)).Run(ctx, s)
		if errors.Is(err, tui.ErrAborted) {
			fmt.Println("Aborted")
			return
		}
		if err != nil {
			log.Fatalf("Form failed: %v", err)
		}
		if *debug {
			spew.Fdump(os.Stderr, payload)
		}
		fmt.Printf("Saved %s %v\n", *model, s.ID())
		return
	}

	out, err := renderStatic(ctx, a.Renderers, *renderer, s)
	if err != nil {
		log.Fatalf("Failed to render form: %v", err)
	}
	if *debug {
		spew.Fdump(os.Stderr, s.Values(), s.Dirty())
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func renderStatic(ctx context.Context, renderers *render.Registry, name string, s *session.Session) ([]byte, error) {
	r, err := renderers.Get(name)
	if err != nil {
		return nil, err
	}
	if err := s.Load(ctx); err != nil && !errors.Is(err, session.ErrNoQuerier) {
		return nil, err
	}
	view, err := s.Render()
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, view, render.Options{})
}

// parseID keeps numeric identifiers numeric so they match integer keys.
func parseID(raw string) any {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
