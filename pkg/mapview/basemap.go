package mapview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

var (
	colorBackground = color.RGBA{170, 211, 223, 255}
	colorLand       = color.RGBA{242, 239, 233, 255}
	colorOutline    = color.RGBA{160, 160, 160, 255}
)

// Basemap rasterizes polygon outlines once; symbols are drawn on top of
// it every frame.
type Basemap struct {
	width, height int
	proj          *Projector
	img           *image.RGBA
}

func NewBasemap(width, height int, proj *Projector) *Basemap {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)
	return &Basemap{width: width, height: height, proj: proj, img: img}
}

func (b *Basemap) Image() *image.RGBA { return b.img }

// LoadFile draws every polygon of a GeoJSON file.
func (b *Basemap) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("basemap %s: %w", path, err)
	}
	for _, f := range fc.Features {
		b.AddGeometry(f.Geometry)
	}
	return nil
}

// AddGeometry draws polygons and multipolygons; anything else is ignored.
func (b *Basemap) AddGeometry(g *geojson.Geometry) {
	if g == nil {
		return
	}
	polys := g.MultiPolygon
	if g.IsPolygon() {
		polys = [][][][]float64{g.Polygon}
	} else if !g.IsMultiPolygon() {
		return
	}
	for _, poly := range polys {
		b.fillPolygon(poly, colorLand)
		for _, ring := range poly {
			b.outline(ring, colorOutline)
		}
	}
}

type point struct{ x, y float64 }

// projectRing drops the closing vertex; the fill and outline close rings
// themselves.
func (b *Basemap) projectRing(ring [][]float64) []point {
	n := len(ring)
	if n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
		n--
	}
	out := make([]point, 0, n)
	for _, p := range ring[:n] {
		x, y := b.proj.Project(p[1], p[0])
		out = append(out, point{x, y})
	}
	return out
}

// fillPolygon fills with the even-odd rule. Only rows that are both
// inside the polygon's extent and on the image are scanned.
func (b *Basemap) fillPolygon(rings [][][]float64, c color.RGBA) {
	var projected [][]point
	top, bottom := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		pr := b.projectRing(ring)
		if len(pr) < 3 {
			continue
		}
		for _, p := range pr {
			top, bottom = math.Min(top, p.y), math.Max(bottom, p.y)
		}
		projected = append(projected, pr)
	}
	if len(projected) == 0 {
		return
	}

	y0 := max(0, int(math.Floor(top)))
	y1 := min(b.height-1, int(math.Ceil(bottom)))
	var xs []float64
	for y := y0; y <= y1; y++ {
		xs = crossings(projected, float64(y), xs[:0])
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			b.span(y, xs[i], xs[i+1], c)
		}
	}
}

// crossings appends the x of every ring edge that crosses row y.
func crossings(rings [][]point, y float64, xs []float64) []float64 {
	for _, ring := range rings {
		prev := ring[len(ring)-1]
		for _, p := range ring {
			if (p.y < y) != (prev.y < y) {
				xs = append(xs, p.x+(y-p.y)/(prev.y-p.y)*(prev.x-p.x))
			}
			prev = p
		}
	}
	return xs
}

func (b *Basemap) span(y int, from, to float64, c color.RGBA) {
	x0 := max(0, int(from))
	x1 := min(b.width, int(to))
	for x := x0; x < x1; x++ {
		b.plot(x, y, c)
	}
}

func (b *Basemap) plot(x, y int, c color.RGBA) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	off := y*b.img.Stride + x*4
	b.img.Pix[off], b.img.Pix[off+1], b.img.Pix[off+2], b.img.Pix[off+3] = c.R, c.G, c.B, 255
}

func (b *Basemap) outline(ring [][]float64, c color.RGBA) {
	pr := b.projectRing(ring)
	for i := range pr {
		b.line(pr[i], pr[(i+1)%len(pr)], c)
	}
}

// line steps along the longer axis. Edges far longer than the image are
// skipped: they come from rings crossing the antimeridian or from zooms
// where the outline is off screen anyway.
func (b *Basemap) line(p, q point, c color.RGBA) {
	dx, dy := q.x-p.x, q.y-p.y
	if math.Abs(dx) > float64(4*b.width) || math.Abs(dy) > float64(4*b.height) {
		return
	}
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		b.plot(int(math.Round(p.x)), int(math.Round(p.y)), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		b.plot(int(math.Round(p.x+dx*t)), int(math.Round(p.y+dy*t)), c)
	}
}
