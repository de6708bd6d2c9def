// Package symbols turns a time-indexed GeoJSON attribute into proportional
// symbols and keeps every rendered symbol, popup and the legend on one
// selected period.
package symbols

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// Options configures a Coordinator.
type Options struct {
	// Prefixes are the attribute families to look for, tried in order.
	Prefixes []string
	Order    KeyOrder
	// MinRadius is the uncompensated radius at the global minimum.
	MinRadius float64
	Formatter Formatter
	// HTML switches symbol content to Formatter.PopupHTML.
	HTML bool
}

// DefaultOptions matches the reference poverty map.
func DefaultOptions() Options {
	return Options{
		Prefixes:  []string{DefaultPrefix},
		Order:     OrderChronological,
		MinRadius: DefaultMinRadius,
		Formatter: NewFormatter(),
	}
}

// VisualizationContext is the state shared by every render pass: the
// global statistics, the time axis and the sequence cursor. Only the
// Sequence moves the cursor.
type VisualizationContext struct {
	stats Stats
	keys  []AttributeKey
	seq   *Sequence
}

func (v *VisualizationContext) Stats() Stats { return v.stats }
func (v *VisualizationContext) Index() int { return v.seq.Index() }
func (v *VisualizationContext) Len() int { return len(v.keys) }

// Keys returns a copy of the time axis.
func (v *VisualizationContext) Keys() []AttributeKey {
	return append([]AttributeKey(nil), v.keys...)
}

// Current is the attribute key at the cursor.
func (v *VisualizationContext) Current() AttributeKey {
	return v.keys[v.seq.Index()]
}

// ControlKind names a UI control event.
type ControlKind string

const (
	ControlForward ControlKind = "forward"
	ControlReverse ControlKind = "reverse"
	ControlSeek    ControlKind = "seek"
)

// ControlEvent is what a UI collaborator sends to move the sequence.
type ControlEvent struct {
	Type  ControlKind `json:"type"`
	Index int         `json:"index,omitempty"`
}

// Coordinator loads a dataset, performs the initial render and re-renders
// every feature on each sequence transition. Passes are serialized: a
// transition is not accepted until the previous pass has returned.
type Coordinator struct {
	mu        sync.Mutex
	sink      RenderSink
	opts      Options
	extractor *Extractor
	features  []*Feature
	vc        *VisualizationContext
	err       error
}

// NewCoordinator validates opts. Empty prefixes and a zero min radius fall
// back to DefaultOptions; the formatter is used as given, so start from
// DefaultOptions to get the reference wording.
func NewCoordinator(sink RenderSink, opts Options) (*Coordinator, error) {
	def := DefaultOptions()
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = def.Prefixes
	}
	if opts.MinRadius == 0 {
		opts.MinRadius = def.MinRadius
	}
	if opts.MinRadius < 0 {
		return nil, fmt.Errorf("%w: min radius %v", ErrConfiguration, opts.MinRadius)
	}
	x, err := NewExtractor(opts.Prefixes, opts.Order)
	if err != nil {
		return nil, err
	}
	return &Coordinator{sink: sink, opts: opts, extractor: x}, nil
}

// Load extracts the time axis from the first feature, computes the
// statistics and creates one symbol per feature at index 0, followed by
// the legend. A configuration or domain error aborts the coordinator.
func (c *Coordinator) Load(ds *Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return fmt.Errorf("%w: %v", ErrAborted, c.err)
	}
	if c.vc != nil {
		return errors.New("symbols: dataset already loaded")
	}
	if err := c.load(ds); err != nil {
		c.err = err
		return err
	}
	return nil
}

func (c *Coordinator) load(ds *Dataset) error {
	if ds == nil || len(ds.Features) == 0 {
		return fmt.Errorf("%w: dataset has no features", ErrConfiguration)
	}
	keys, err := c.extractor.Extract(ds.Features[0].Keys())
	if err != nil {
		return err
	}
	stats, err := ComputeStats(ds.Features, keys)
	if err != nil {
		return err
	}
	vc := &VisualizationContext{stats: stats, keys: keys}
	vc.seq, err = NewSequence(len(keys), c.render)
	if err != nil {
		return err
	}

	type initial struct {
		f       *Feature
		radius  float64
		content string
	}
	k := keys[0]
	out := make([]initial, 0, len(ds.Features))
	for _, f := range ds.Features {
		r := 0.0
		if v, ok := f.Value(k); ok {
			if r, err = Radius(v, stats.Min, c.opts.MinRadius); err != nil {
				return &RenderError{FeatureID: f.ID(), Key: k, Wrapped: err}
			}
		}
		out = append(out, initial{f: f, radius: r, content: c.content(f, k)})
	}

	c.features = ds.Features
	c.vc = vc
	for _, s := range out {
		c.sink.CreateSymbol(s.f.ID(), s.f.At(), s.radius, s.content)
	}
	c.sink.SetLegend(stats, k.YearLabel())
	log.Printf("[symbols] Loaded %d features over %d periods (%s..%s), min %.2f max %.2f mean %.2f",
		len(ds.Features), len(keys), keys[0].YearLabel(), keys[len(keys)-1].YearLabel(), stats.Min, stats.Max, stats.Mean)
	return nil
}

func (c *Coordinator) content(f *Feature, k AttributeKey) string {
	if c.opts.HTML {
		return c.opts.Formatter.PopupHTML(f, k)
	}
	return c.opts.Formatter.Content(f, k)
}

// render is the re-render pass run by the sequence on every transition.
// Every feature is visited once; features without a value at the new key
// keep whatever they showed before. Updates are only emitted once the
// whole pass has computed cleanly.
func (c *Coordinator) render(index int) error {
	k := c.vc.keys[index]
	type update struct {
		id      string
		radius  float64
		content string
	}
	out := make([]update, 0, len(c.features))
	for _, f := range c.features {
		v, ok := f.Value(k)
		if !ok {
			continue
		}
		r, err := Radius(v, c.vc.stats.Min, c.opts.MinRadius)
		if err != nil {
			return &RenderError{FeatureID: f.ID(), Key: k, Wrapped: err}
		}
		out = append(out, update{id: f.ID(), radius: r, content: c.content(f, k)})
	}
	for _, u := range out {
		c.sink.UpdateSymbol(u.id, u.radius, u.content)
	}
	c.sink.SetLegend(c.vc.stats, k.YearLabel())
	return nil
}

// Forward steps to the next period.
func (c *Coordinator) Forward() error {
	return c.transition(func(s *Sequence) error { return s.StepForward() })
}

// Reverse steps to the previous period.
func (c *Coordinator) Reverse() error {
	return c.transition(func(s *Sequence) error { return s.StepReverse() })
}

// Seek jumps to period i. Unlike Handle it reports ErrOutOfRange.
func (c *Coordinator) Seek(i int) error {
	return c.transition(func(s *Sequence) error { return s.Seek(i) })
}

func (c *Coordinator) transition(step func(*Sequence) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return fmt.Errorf("%w: %v", ErrAborted, c.err)
	}
	if c.vc == nil {
		return ErrNotLoaded
	}
	err := step(c.vc.seq)
	if err != nil && fatal(err) {
		c.err = err
	}
	return err
}

// Handle applies a UI control event. Out of range seeks are logged and
// dropped; only fatal errors are returned.
func (c *Coordinator) Handle(ev ControlEvent) error {
	var err error
	switch ev.Type {
	case ControlForward:
		err = c.Forward()
	case ControlReverse:
		err = c.Reverse()
	case ControlSeek:
		err = c.Seek(ev.Index)
	default:
		log.Printf("[symbols] Ignoring unknown control event %q", ev.Type)
		return nil
	}
	if errors.Is(err, ErrOutOfRange) {
		log.Printf("[symbols] Rejected seek: %v", err)
		return nil
	}
	return err
}

// Context returns a snapshot of the visualization context, or nil before
// Load. The snapshot has no transition callback and does not follow later
// transitions; call Context again for the current period.
func (c *Coordinator) Context() *VisualizationContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	return &VisualizationContext{
		stats: c.vc.stats,
		keys:  c.vc.keys,
		seq:   &Sequence{index: c.vc.seq.index, length: c.vc.seq.length},
	}
}

// Position reports the current period index and the period count; both
// are zero before Load.
func (c *Coordinator) Position() (index, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return 0, 0
	}
	return c.vc.seq.Index(), c.vc.seq.Len()
}

// Err is the error that aborted the coordinator, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Options returns the effective options.
func (c *Coordinator) Options() Options {
	return c.opts
}
