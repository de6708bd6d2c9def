package mapview

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/sudorandom/propmap/pkg/symbols"
)

var digitKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

// keyEvent maps a pressed key to a control event for a sequence of n
// periods.
func keyEvent(key ebiten.Key, n int) (symbols.ControlEvent, bool) {
	switch key {
	case ebiten.KeyArrowRight, ebiten.KeySpace:
		return symbols.ControlEvent{Type: symbols.ControlForward}, true
	case ebiten.KeyArrowLeft:
		return symbols.ControlEvent{Type: symbols.ControlReverse}, true
	case ebiten.KeyHome:
		return symbols.ControlEvent{Type: symbols.ControlSeek, Index: 0}, true
	case ebiten.KeyEnd:
		if n < 1 {
			return symbols.ControlEvent{}, false
		}
		return symbols.ControlEvent{Type: symbols.ControlSeek, Index: n - 1}, true
	}
	for i, k := range digitKeys {
		if k == key {
			// Out of range digits still go through so the coordinator can reject them.
			return symbols.ControlEvent{Type: symbols.ControlSeek, Index: i}, true
		}
	}
	return symbols.ControlEvent{}, false
}

func (v *Viewer) periods() int {
	if v.ctrl == nil {
		return 0
	}
	_, n := v.ctrl.Position()
	return n
}

// pollInput collects this tick's control events and updates the popup
// selection.
func (v *Viewer) pollInput() []symbols.ControlEvent {
	n := v.periods()
	var events []symbols.ControlEvent

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if k == ebiten.KeyP {
			v.captureNext = true
			continue
		}
		if k == ebiten.KeyEscape {
			v.selectSymbol("")
			continue
		}
		if ev, ok := keyEvent(k, n); ok {
			events = append(events, ev)
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		if ev, ok := v.click(float64(mx), float64(my), n); ok {
			events = append(events, ev)
		}
	}
	return events
}

// click handles a left click: on the slider it seeks, on a symbol it opens
// the popup, anywhere else it closes it.
func (v *Viewer) click(x, y float64, n int) (symbols.ControlEvent, bool) {
	tx, tw := v.sliderGeometry()
	ty := float64(v.Height) - sliderHeight/2
	if n > 0 && y >= ty-sliderHeight/2 && x >= tx-10 && x <= tx+tw+10 {
		return symbols.ControlEvent{Type: symbols.ControlSeek, Index: sliderIndex(x, tx, tw, n)}, true
	}
	if s, ok := v.symbolAt(x, y); ok {
		v.selectSymbol(s.ID)
	} else {
		v.selectSymbol("")
	}
	return symbols.ControlEvent{}, false
}

func (v *Viewer) selectSymbol(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = id
}

// Selected is the id of the symbol whose popup is open.
func (v *Viewer) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}
