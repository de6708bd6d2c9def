package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/sudorandom/propmap/pkg/config"
	"github.com/sudorandom/propmap/pkg/symbols"
)

var cli struct {
	Config  string   `help:"YAML config file." default:"propmap.yaml" type:"path"`
	Dataset string   `arg:"" optional:"" help:"GeoJSON dataset path or URL."`
	Prefix  []string `help:"Attribute prefix; repeat for alternatives."`
	Order   string   `help:"Period order: chronological, document or reverse."`
	JSON    bool     `help:"Print every render event as JSON instead of a table."`

	WriteConfig string `help:"Save the effective config to this path." type:"path"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("debug-dataset"),
		kong.Description("Steps a dataset through every period and prints the symbol radii."),
	)
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
	if cli.Order != "" {
		cfg.Symbols.Order = cli.Order
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cli.WriteConfig != "" {
		if err := config.Save(cli.WriteConfig, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		log.Printf("Wrote effective config to %s", cli.WriteConfig)
	}

	ds, err := cfg.LoadDataset(context.Background())
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	rec := &symbols.Recorder{}
	coord, err := symbols.NewCoordinator(rec, cfg.SymbolOptions())
	if err != nil {
		log.Fatalf("Failed to create coordinator: %v", err)
	}
	if err := coord.Load(ds); err != nil {
		log.Fatalf("Failed to render dataset: %v", err)
	}
	vc := coord.Context()

	// Every feature starts with a create; later periods only update the
	// features that have a value.
	radii := make(map[string][]float64)
	var ids []string
	for _, ev := range rec.Filter(symbols.EventCreate) {
		ids = append(ids, ev.ID)
		radii[ev.ID] = make([]float64, vc.Len())
		radii[ev.ID][0] = ev.Radius
	}
	events := append([]symbols.Event(nil), rec.Events...)
	for i := 1; i < vc.Len(); i++ {
		rec.Reset()
		if err := coord.Forward(); err != nil {
			log.Fatalf("Render of period %d failed: %v", i, err)
		}
		for _, id := range ids {
			radii[id][i] = radii[id][i-1]
		}
		for _, ev := range rec.Filter(symbols.EventUpdate) {
			radii[ev.ID][i] = ev.Radius
		}
		events = append(events, rec.Events...)
	}

	if cli.JSON {
		enc := json.NewEncoder(os.Stdout)
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				log.Fatalf("Failed to encode event: %v", err)
			}
		}
		return
	}

	keys := vc.Keys()
	names := make([]string, len(keys))
	years := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name()
		years[i] = k.YearLabel()
	}
	st := vc.Stats()
	opts := coord.Options()
	fmt.Printf("Prefixes: %s (order %s)\n", strings.Join(opts.Prefixes, ", "), opts.Order)
	fmt.Printf("Radius:   min %.2f, precision %d, phrase %q\n", opts.MinRadius, opts.Formatter.Precision, opts.Formatter.Phrase)
	fmt.Printf("Features: %d\n", len(ds.Features))
	fmt.Printf("Keys:     %s\n", strings.Join(names, ", "))
	fmt.Printf("Stats:    min %.2f  max %.2f  mean %.2f  values %d\n\n", st.Min, st.Max, st.Mean, st.Count)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "id\t%s\t\n", strings.Join(years, "\t"))
	for _, id := range ids {
		cells := make([]string, len(keys))
		for i, r := range radii[id] {
			cells[i] = fmt.Sprintf("%.2f", r)
		}
		fmt.Fprintf(w, "%s\t%s\t\n", id, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}
}
