package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/sudorandom/propmap/pkg/config"
	"github.com/sudorandom/propmap/pkg/livesink"
	"github.com/sudorandom/propmap/pkg/symbols"
)

var cli struct {
	Config  string   `help:"YAML config file." default:"propmap.yaml" type:"path"`
	Dataset string   `help:"GeoJSON dataset path or URL." short:"d"`
	Prefix  []string `help:"Attribute prefix; repeat for alternatives."`
	Listen  string   `help:"Listen address." short:"l"`
	HTML    bool     `help:"Send popup content as HTML."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("propmap-server"),
		kong.Description("Serves proportional symbol render events over websockets."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(cli.Config, true)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cli.Dataset != "" {
		cfg.Dataset.Source = cli.Dataset
	}
	if len(cli.Prefix) > 0 {
		cfg.Symbols.Prefixes = cli.Prefix
	}
	if cli.Listen != "" {
		cfg.Server.Listen = cli.Listen
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := cfg.LoadDataset(ctx)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	hub := livesink.NewHub()
	opts := cfg.SymbolOptions()
	opts.HTML = cli.HTML
	coord, err := symbols.NewCoordinator(hub, opts)
	if err != nil {
		log.Fatalf("Failed to create coordinator: %v", err)
	}
	if err := coord.Load(ds); err != nil {
		log.Fatalf("Failed to render dataset: %v", err)
	}
	hub.Attach(coord)

	go func() {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Control loop stopped: %v", err)
			stop()
		}
	}()

	if err := livesink.NewServer(cfg.Server.Listen, hub).Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
