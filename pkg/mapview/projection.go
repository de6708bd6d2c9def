package mapview

import (
	"math"

	"github.com/sudorandom/propmap/pkg/symbols"
)

const (
	tileSize = 256.0
	maxLat   = 85.05112878
)

// Projector maps lng/lat to screen pixels with Web Mercator, the way a
// slippy map at the given center and zoom would.
type Projector struct {
	width, height int
	zoom          float64
	cx, cy        float64
}

func NewProjector(width, height int, center symbols.LngLat, zoom float64) *Projector {
	p := &Projector{width: width, height: height, zoom: zoom}
	p.cx, p.cy = p.world(center.Lat, center.Lng)
	return p
}

func (p *Projector) world(lat, lng float64) (x, y float64) {
	if lat > maxLat {
		lat = maxLat
	}
	if lat < -maxLat {
		lat = -maxLat
	}
	size := tileSize * math.Pow(2, p.zoom)
	latRad := lat * math.Pi / 180
	x = (lng + 180) / 360 * size
	y = (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * size
	return x, y
}

func (p *Projector) Project(lat, lng float64) (x, y float64) {
	wx, wy := p.world(lat, lng)
	x = wx - p.cx + float64(p.width)/2
	y = wy - p.cy + float64(p.height)/2
	return x, y
}
