// Package mapview is a desktop render sink for proportional symbol maps,
// drawn with ebiten. It also turns keyboard and mouse input into sequence
// control events.
package mapview

import (
	"bytes"
	"fmt"
	"image/color"
	"log"
	"sort"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sudorandom/propmap/pkg/symbols"
)

// Controller is the part of the coordinator the viewer drives.
type Controller interface {
	Handle(ev symbols.ControlEvent) error
	Position() (index, n int)
}

// Symbol is the viewer's copy of one rendered feature.
type Symbol struct {
	ID      string
	At      symbols.LngLat
	X, Y    float64
	Radius  float64
	Content string
}

type Options struct {
	Width, Height int
	Center        symbols.LngLat
	Zoom          float64
	MinRadius     float64
	Formatter     symbols.Formatter
	FillColor     string
	LineColor     string
	CaptureDir    string
}

type Viewer struct {
	Width, Height int

	opts      Options
	proj      *Projector
	basemap   *Basemap
	bgImage   *ebiten.Image
	fill      color.RGBA
	line      color.RGBA
	ctrl      Controller
	mu        sync.Mutex
	symbols   map[string]*Symbol
	order     []*Symbol
	stats     symbols.Stats
	yearLabel string
	hasLegend bool
	selected  string
	err       error

	fontSource *text.GoTextFaceSource
	monoSource *text.GoTextFaceSource

	captureNext     bool
	FrameCaptureDir string
}

func NewViewer(opts Options) (*Viewer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("viewer size %dx%d is not positive", opts.Width, opts.Height)
	}
	if opts.MinRadius <= 0 {
		opts.MinRadius = symbols.DefaultMinRadius
	}
	if opts.FillColor == "" {
		opts.FillColor = "#ff7800"
	}
	if opts.LineColor == "" {
		opts.LineColor = "#000000"
	}
	fill, err := parseColor(opts.FillColor, 0.8)
	if err != nil {
		return nil, fmt.Errorf("fill color: %w", err)
	}
	line, err := parseColor(opts.LineColor, 1)
	if err != nil {
		return nil, fmt.Errorf("line color: %w", err)
	}

	s, _ := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	m, _ := text.NewGoTextFaceSource(bytes.NewReader(gomono.TTF))

	proj := NewProjector(opts.Width, opts.Height, opts.Center, opts.Zoom)
	return &Viewer{
		Width:           opts.Width,
		Height:          opts.Height,
		opts:            opts,
		proj:            proj,
		basemap:         NewBasemap(opts.Width, opts.Height, proj),
		fill:            fill,
		line:            line,
		symbols:         make(map[string]*Symbol),
		fontSource:      s,
		monoSource:      m,
		FrameCaptureDir: opts.CaptureDir,
	}, nil
}

// parseColor reads a hex colour and applies alpha as premultiplied RGBA.
func parseColor(s string, alpha float64) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{
		R: uint8(float64(r) * alpha),
		G: uint8(float64(g) * alpha),
		B: uint8(float64(b) * alpha),
		A: uint8(255 * alpha),
	}, nil
}

// Basemap is drawn under the symbols. Add geometry before the first frame.
func (v *Viewer) Basemap() *Basemap { return v.basemap }

// Attach sets the controller input events go to.
func (v *Viewer) Attach(ctrl Controller) { v.ctrl = ctrl }

func (v *Viewer) CreateSymbol(id string, at symbols.LngLat, radius float64, content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	x, y := v.proj.Project(at.Lat, at.Lng)
	s := &Symbol{ID: id, At: at, X: x, Y: y, Radius: radius, Content: content}
	if old, ok := v.symbols[id]; ok {
		*old = *s
	} else {
		v.symbols[id] = s
		v.order = append(v.order, s)
	}
	v.sortLocked()
}

func (v *Viewer) UpdateSymbol(id string, radius float64, content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.symbols[id]
	if !ok {
		log.Printf("[viewer] Update for unknown symbol %q", id)
		return
	}
	s.Radius, s.Content = radius, content
	v.sortLocked()
}

func (v *Viewer) SetLegend(stats symbols.Stats, yearLabel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats, v.yearLabel, v.hasLegend = stats, yearLabel, true
}

// sortLocked keeps large symbols underneath small ones so every symbol
// stays clickable.
func (v *Viewer) sortLocked() {
	sort.SliceStable(v.order, func(i, j int) bool { return v.order[i].Radius > v.order[j].Radius })
}

// Symbols returns copies of the current symbols in draw order.
func (v *Viewer) Symbols() []Symbol {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Symbol, len(v.order))
	for i, s := range v.order {
		out[i] = *s
	}
	return out
}

// symbolAt finds the topmost symbol under x, y.
func (v *Viewer) symbolAt(x, y float64) (*Symbol, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.order) - 1; i >= 0; i-- {
		s := v.order[i]
		dx, dy := x-s.X, y-s.Y
		if dx*dx+dy*dy <= s.Radius*s.Radius {
			return s, true
		}
	}
	return nil, false
}

// Update applies input. A fatal coordinator error ends the game loop.
func (v *Viewer) Update() error {
	if v.err != nil {
		return v.err
	}
	for _, ev := range v.pollInput() {
		if v.ctrl == nil {
			break
		}
		if err := v.ctrl.Handle(ev); err != nil {
			log.Printf("[viewer] Aborting: %v", err)
			v.err = err
			return err
		}
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.bgImage == nil {
		v.bgImage = ebiten.NewImageFromImage(v.basemap.Image())
	}
	screen.DrawImage(v.bgImage, nil)

	v.drawSymbols(screen)
	v.drawPopup(screen)
	v.drawLegend(screen)
	v.drawSlider(screen)

	if v.captureNext {
		v.captureNext = false
		v.captureFrame(screen, v.yearLabel)
	}
}

func (v *Viewer) Layout(w, h int) (int, int) { return v.Width, v.Height }
