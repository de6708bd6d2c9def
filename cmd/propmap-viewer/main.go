package main

import (
	"context"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/propmap/pkg/config"
	"github.com/sudorandom/propmap/pkg/mapview"
	"github.com/sudorandom/propmap/pkg/symbols"
)

var cli struct {
	Config       string   `help:"YAML config file." default:"propmap.yaml" type:"path"`
	Dataset      string   `help:"GeoJSON dataset path or URL." short:"d"`
	Prefix       []string `help:"Attribute prefix; repeat for alternatives."`
	Order        string   `help:"Period order: chronological, document or reverse."`
	Basemap      string   `help:"GeoJSON file drawn under the symbols."`
	Width        int      `help:"Window width."`
	Height       int      `help:"Window height."`
	Zoom         float64  `help:"Map zoom."`
	CaptureDir   string   `help:"Directory for frames saved with P."`
	NoDataShapes bool     `help:"Do not draw dataset polygons on the basemap."`
	TPS          int      `help:"Ticks per second." default:"30"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("propmap-viewer"),
		kong.Description("Desktop proportional symbol map with a period slider."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(cli.Config, true)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ds, err := cfg.LoadDataset(context.Background())
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	symOpts := cfg.SymbolOptions()
	viewer, err := mapview.NewViewer(mapview.Options{
		Width:      cfg.View.Width,
		Height:     cfg.View.Height,
		Center:     symbols.LngLat{Lng: cfg.View.CenterLng, Lat: cfg.View.CenterLat},
		Zoom:       cfg.View.Zoom,
		MinRadius:  symOpts.MinRadius,
		Formatter:  symOpts.Formatter,
		FillColor:  cfg.View.FillColor,
		LineColor:  cfg.View.LineColor,
		CaptureDir: cfg.View.CaptureDir,
	})
	if err != nil {
		log.Fatalf("Failed to create viewer: %v", err)
	}
	if cfg.View.Basemap != "" {
		if err := viewer.Basemap().LoadFile(cfg.View.Basemap); err != nil {
			log.Fatalf("Failed to load basemap: %v", err)
		}
	}
	if !cli.NoDataShapes {
		for _, f := range ds.Features {
			viewer.Basemap().AddGeometry(f.Geometry())
		}
	}

	coord, err := symbols.NewCoordinator(viewer, symOpts)
	if err != nil {
		log.Fatalf("Failed to create coordinator: %v", err)
	}
	if err := coord.Load(ds); err != nil {
		log.Fatalf("Failed to render dataset: %v", err)
	}
	viewer.Attach(coord)

	ebiten.SetTPS(cli.TPS)
	ebiten.SetWindowSize(cfg.View.Width, cfg.View.Height)
	ebiten.SetWindowTitle("Proportional Symbol Map")
	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}

func applyFlags(cfg *config.Config) {
	if cli.Dataset != "" {
		cfg.Dataset.Source = cli.Dataset
	}
	if len(cli.Prefix) > 0 {
		cfg.Symbols.Prefixes = cli.Prefix
	}
	if cli.Order != "" {
		cfg.Symbols.Order = cli.Order
	}
	if cli.Basemap != "" {
		cfg.View.Basemap = cli.Basemap
	}
	if cli.Width > 0 {
		cfg.View.Width = cli.Width
	}
	if cli.Height > 0 {
		cfg.View.Height = cli.Height
	}
	if cli.Zoom > 0 {
		cfg.View.Zoom = cli.Zoom
	}
	if cli.CaptureDir != "" {
		cfg.View.CaptureDir = cli.CaptureDir
	}
}
