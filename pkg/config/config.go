// Package config loads the propmap YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sudorandom/propmap/pkg/sources"
	"github.com/sudorandom/propmap/pkg/symbols"
)

const (
	DefaultCenterLat = 43.0
	DefaultCenterLng = -100.0
	DefaultZoom      = 3.0
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultListen    = ":8080"
)

type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Symbols SymbolsConfig `yaml:"symbols"`
	View    ViewConfig    `yaml:"view"`
	Server  ServerConfig  `yaml:"server"`
}

type DatasetConfig struct {
	Source       string        `yaml:"source"`
	NameProperty string        `yaml:"name_property"`
	CacheDir     string        `yaml:"cache_dir"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

type SymbolsConfig struct {
	Prefixes  []string `yaml:"prefixes"`
	Order     string   `yaml:"order"`
	MinRadius float64  `yaml:"min_radius"`
	Phrase    string   `yaml:"phrase"`
	Precision int      `yaml:"precision"`
}

type ViewConfig struct {
	CenterLat  float64 `yaml:"center_lat"`
	CenterLng  float64 `yaml:"center_lng"`
	Zoom       float64 `yaml:"zoom"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Basemap    string  `yaml:"basemap"`
	FillColor  string  `yaml:"fill_color"`
	LineColor  string  `yaml:"line_color"`
	CaptureDir string  `yaml:"capture_dir"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Source:       sources.DefaultDatasetPath,
			NameProperty: symbols.DefaultNameProperty,
			CacheDir:     sources.DefaultCacheDir,
			CacheTTL:     24 * time.Hour,
		},
		Symbols: SymbolsConfig{
			Prefixes:  []string{symbols.DefaultPrefix},
			Order:     string(symbols.OrderChronological),
			MinRadius: symbols.DefaultMinRadius,
			Phrase:    symbols.DefaultPhrase,
			Precision: -1,
		},
		View: ViewConfig{
			CenterLat: DefaultCenterLat,
			CenterLng: DefaultCenterLng,
			Zoom:      DefaultZoom,
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			FillColor: "#ff7800",
			LineColor: "#000000",
		},
		Server: ServerConfig{Listen: DefaultListen},
	}
}

// Load reads path over the defaults. A missing path is not an error when
// optional is set.
func Load(path string, optional bool) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Symbols.Prefixes) == 0 {
		return fmt.Errorf("symbols.prefixes: at least one prefix is required")
	}
	if c.Symbols.MinRadius <= 0 {
		return fmt.Errorf("symbols.min_radius: %v is not positive", c.Symbols.MinRadius)
	}
	if _, err := symbols.ParseKeyOrder(c.Symbols.Order); err != nil {
		return fmt.Errorf("symbols.order: %w", err)
	}
	if c.View.Zoom < 0 || c.View.Zoom > 20 {
		return fmt.Errorf("view.zoom: %v not in [0, 20]", c.View.Zoom)
	}
	if c.View.Width <= 0 || c.View.Height <= 0 {
		return fmt.Errorf("view: size %dx%d is not positive", c.View.Width, c.View.Height)
	}
	if c.Dataset.CacheTTL < 0 {
		return fmt.Errorf("dataset.cache_ttl: %v is negative", c.Dataset.CacheTTL)
	}
	return nil
}

// SymbolOptions converts the symbols section for symbols.NewCoordinator.
func (c *Config) SymbolOptions() symbols.Options {
	order, _ := symbols.ParseKeyOrder(c.Symbols.Order)
	return symbols.Options{
		Prefixes:  append([]string(nil), c.Symbols.Prefixes...),
		Order:     order,
		MinRadius: c.Symbols.MinRadius,
		Formatter: symbols.Formatter{Phrase: c.Symbols.Phrase, Precision: c.Symbols.Precision},
	}
}
