package symbols

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// DefaultNameProperty holds the display name in the reference dataset.
const DefaultNameProperty = "State"

// LngLat is a symbol anchor in degrees.
type LngLat struct {
	Lng, Lat float64
}

// Feature is one region of the dataset. It never changes after load.
type Feature struct {
	id       string
	name     string
	at       LngLat
	props    map[string]interface{}
	keys     []string
	geometry *geojson.Geometry
}

// NewFeature builds a feature by hand. keys gives the property order; when
// nil the order is unspecified.
func NewFeature(id, name string, at LngLat, props map[string]interface{}, keys []string) *Feature {
	cp := make(map[string]interface{}, len(props))
	for k, v := range props {
		cp[k] = v
	}
	if keys == nil {
		for k := range cp {
			keys = append(keys, k)
		}
	}
	return &Feature{id: id, name: name, at: at, props: cp, keys: append([]string(nil), keys...)}
}

func (f *Feature) ID() string { return f.id }
func (f *Feature) Name() string { return f.name }
func (f *Feature) At() LngLat { return f.at }
func (f *Feature) Keys() []string { return append([]string(nil), f.keys...) }

// Geometry is the source geometry, nil for hand-built features.
func (f *Feature) Geometry() *geojson.Geometry { return f.geometry }

// Property returns a raw property value.
func (f *Feature) Property(name string) (interface{}, bool) {
	v, ok := f.props[name]
	return v, ok
}

// Value returns the numeric value at k. Absent, null, non-numeric and
// non-finite values are all reported as missing.
func (f *Feature) Value(k AttributeKey) (float64, bool) {
	v, ok := f.props[k.name]
	if !ok || v == nil {
		return 0, false
	}
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		var err error
		if n, err = t.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if n, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Dataset is the loaded feature collection.
type Dataset struct {
	Features []*Feature
}

// ParseOptions tunes ParseDataset.
type ParseOptions struct {
	// NameProperty names the display name property. Defaults to "State".
	NameProperty string
}

// ParseDataset decodes a GeoJSON FeatureCollection. Features without a
// usable geometry are dropped.
func ParseDataset(data []byte, opts ParseOptions) (*Dataset, error) {
	if opts.NameProperty == "" {
		opts.NameProperty = DefaultNameProperty
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	// encoding/json loses property order, which is the time axis order when
	// keys are not sorted by year. Decode the keys a second time.
	var order struct {
		Features []struct {
			Properties orderedKeys `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("decode property order: %w", err)
	}

	ds := &Dataset{Features: make([]*Feature, 0, len(fc.Features))}
	seen := make(map[string]bool, len(fc.Features))
	for i, gf := range fc.Features {
		at, ok := anchor(gf.Geometry)
		if !ok {
			log.Printf("[dataset] Skipping feature %d: no usable geometry", i)
			continue
		}
		id := featureID(gf, i)
		if seen[id] {
			id = fmt.Sprintf("%s-%d", id, i)
		}
		seen[id] = true

		name := gf.PropertyMustString(opts.NameProperty, "")
		if name == "" {
			name = id
		}
		var keys []string
		if i < len(order.Features) {
			keys = order.Features[i].Properties
		}
		f := NewFeature(id, name, at, gf.Properties, keys)
		f.geometry = gf.Geometry
		ds.Features = append(ds.Features, f)
	}
	return ds, nil
}

func featureID(f *geojson.Feature, i int) string {
	if f.ID != nil {
		switch id := f.ID.(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		default:
			return fmt.Sprint(id)
		}
	}
	if v, ok := f.Properties["id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return strconv.Itoa(i)
}

// anchor picks the point a symbol is drawn at.
func anchor(g *geojson.Geometry) (LngLat, bool) {
	if g == nil {
		return LngLat{}, false
	}
	switch {
	case g.IsPoint():
		if len(g.Point) >= 2 {
			return LngLat{Lng: g.Point[0], Lat: g.Point[1]}, true
		}
	case g.IsMultiPoint():
		if len(g.MultiPoint) > 0 && len(g.MultiPoint[0]) >= 2 {
			return LngLat{Lng: g.MultiPoint[0][0], Lat: g.MultiPoint[0][1]}, true
		}
	case g.IsPolygon():
		if len(g.Polygon) > 0 {
			return ringMean(g.Polygon[0])
		}
	case g.IsMultiPolygon():
		var best [][]float64
		for _, poly := range g.MultiPolygon {
			if len(poly) > 0 && len(poly[0]) > len(best) {
				best = poly[0]
			}
		}
		return ringMean(best)
	}
	return LngLat{}, false
}

func ringMean(ring [][]float64) (LngLat, bool) {
	n := len(ring)
	if n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
		n--
	}
	if n == 0 {
		return LngLat{}, false
	}
	var sum LngLat
	for _, p := range ring[:n] {
		sum.Lng += p[0]
		sum.Lat += p[1]
	}
	return LngLat{Lng: sum.Lng / float64(n), Lat: sum.Lat / float64(n)}, true
}

type orderedKeys []string

func (k *orderedKeys) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		*k = nil
		return nil
	}
	for dec.More() {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := t.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
		*k = append(*k, name)
	}
	return nil
}
