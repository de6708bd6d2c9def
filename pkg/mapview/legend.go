package mapview

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/propmap/pkg/symbols"
)

var (
	colorPanel       = color.RGBA{255, 255, 255, 220}
	colorPanelBorder = color.RGBA{120, 120, 120, 255}
	colorText        = color.RGBA{20, 20, 20, 255}
	colorSliderTrack = color.RGBA{200, 200, 200, 255}
	colorSliderKnob  = color.RGBA{60, 60, 60, 255}
)

const (
	legendMargin  = 20.0
	sliderHeight  = 40.0
	sliderPadding = 30.0
	popupWidth    = 260.0
)

// legendCircle is one nested legend circle, centered on a shared baseline.
type legendCircle struct {
	entry  symbols.LegendEntry
	radius float64
}

// legendCircles sizes the legend with the same formula as the symbols.
// Entries whose radius cannot be computed are left out.
func legendCircles(stats symbols.Stats, f symbols.Formatter, minRadius float64) []legendCircle {
	var out []legendCircle
	for _, e := range f.Legend(stats) {
		r, err := symbols.Radius(e.Value, stats.Min, minRadius)
		if err != nil {
			continue
		}
		out = append(out, legendCircle{entry: e, radius: r})
	}
	return out
}

func (v *Viewer) drawSymbols(screen *ebiten.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.order {
		if s.Radius <= 0 {
			continue
		}
		vector.DrawFilledCircle(screen, float32(s.X), float32(s.Y), float32(s.Radius), v.fill, true)
		vector.StrokeCircle(screen, float32(s.X), float32(s.Y), float32(s.Radius), 1, v.line, true)
		if s.ID == v.selected {
			vector.StrokeCircle(screen, float32(s.X), float32(s.Y), float32(s.Radius)+2, 2, colorSliderKnob, true)
		}
	}
}

func (v *Viewer) drawPopup(screen *ebiten.Image) {
	v.mu.Lock()
	s, ok := v.symbols[v.selected]
	var content string
	var x, y, r float64
	if ok {
		content, x, y, r = s.Content, s.X, s.Y, s.Radius
	}
	v.mu.Unlock()
	if !ok {
		return
	}

	const fontSize = 13.0
	face := &text.GoTextFace{Source: v.fontSource, Size: fontSize}
	lines := wrapLines(content, face, popupWidth-20)
	lineH := fontSize * 1.4
	boxH := float64(len(lines))*lineH + 16

	bx := x - popupWidth/2
	by := y - r - boxH - 8
	bx = math.Max(4, math.Min(bx, float64(v.Width)-popupWidth-4))
	if by < 4 {
		by = y + r + 8
	}

	vector.DrawFilledRect(screen, float32(bx), float32(by), popupWidth, float32(boxH), colorPanel, false)
	vector.StrokeRect(screen, float32(bx), float32(by), popupWidth, float32(boxH), 1, colorPanelBorder, false)
	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(bx+10, by+8+float64(i)*lineH)
		op.ColorScale.ScaleWithColor(colorText)
		text.Draw(screen, line, face, op)
	}
}

// wrapLines splits content on newlines and wraps each paragraph to width.
func wrapLines(content string, face text.Face, width float64) []string {
	var out []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if tw, _ := text.Measure(candidate, face, 0); tw > width {
				out = append(out, line)
				line = w
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}

func (v *Viewer) drawLegend(screen *ebiten.Image) {
	v.mu.Lock()
	stats, year, ok := v.stats, v.yearLabel, v.hasLegend
	v.mu.Unlock()
	if !ok {
		return
	}

	circles := legendCircles(stats, v.opts.Formatter, v.opts.MinRadius)
	maxR := 0.0
	for _, c := range circles {
		maxR = math.Max(maxR, c.radius)
	}

	const fontSize = 14.0
	face := &text.GoTextFace{Source: v.fontSource, Size: fontSize}
	yearFace := &text.GoTextFace{Source: v.monoSource, Size: fontSize * 2}

	boxW := 2*maxR + 120
	boxH := 2*maxR + fontSize*4
	bx := float64(v.Width) - boxW - legendMargin
	by := float64(v.Height) - boxH - legendMargin - sliderHeight
	vector.DrawFilledRect(screen, float32(bx), float32(by), float32(boxW), float32(boxH), colorPanel, false)
	vector.StrokeRect(screen, float32(bx), float32(by), float32(boxW), float32(boxH), 1, colorPanelBorder, false)

	yearOp := &text.DrawOptions{}
	yearOp.GeoM.Translate(bx+10, by+6)
	yearOp.ColorScale.ScaleWithColor(colorText)
	text.Draw(screen, year, yearFace, yearOp)

	// Circles share a bottom edge so they nest.
	cx := bx + 10 + maxR
	base := by + boxH - 10
	for _, c := range circles {
		cy := base - c.radius
		vector.StrokeCircle(screen, float32(cx), float32(cy), float32(c.radius), 1, v.line, true)
		vector.StrokeLine(screen, float32(cx), float32(cy-c.radius), float32(cx+maxR+10), float32(cy-c.radius), 1, colorPanelBorder, true)

		op := &text.DrawOptions{}
		op.GeoM.Translate(cx+maxR+14, cy-c.radius-fontSize/2)
		op.ColorScale.ScaleWithColor(colorText)
		text.Draw(screen, fmt.Sprintf("%s %s", c.entry.Label, c.entry.Text), face, op)
	}
}

// sliderGeometry returns the track's left edge and width.
func (v *Viewer) sliderGeometry() (x, w float64) {
	return sliderPadding, float64(v.Width) - 2*sliderPadding
}

// sliderIndex maps an x position on the track to a period index.
func sliderIndex(x, trackX, trackW float64, n int) int {
	if n <= 1 || trackW <= 0 {
		return 0
	}
	frac := (x - trackX) / trackW
	frac = math.Max(0, math.Min(1, frac))
	return int(math.Round(frac * float64(n-1)))
}

func (v *Viewer) drawSlider(screen *ebiten.Image) {
	if v.ctrl == nil {
		return
	}
	index, n := v.ctrl.Position()
	if n == 0 {
		return
	}
	tx, tw := v.sliderGeometry()
	ty := float64(v.Height) - sliderHeight/2
	vector.StrokeLine(screen, float32(tx), float32(ty), float32(tx+tw), float32(ty), 3, colorSliderTrack, true)

	kx := tx
	if n > 1 {
		kx = tx + tw*float64(index)/float64(n-1)
	}
	vector.DrawFilledCircle(screen, float32(kx), float32(ty), 7, colorSliderKnob, true)
}
