package symbols

// RenderSink receives everything the coordinator draws. Implementations
// own how symbols, popups and the legend look; the coordinator never reads
// anything back.
type RenderSink interface {
	CreateSymbol(id string, at LngLat, radius float64, content string)
	UpdateSymbol(id string, radius float64, content string)
	SetLegend(stats Stats, yearLabel string)
}

// EventKind names a render sink call.
type EventKind string

const (
	EventCreate EventKind = "createSymbol"
	EventUpdate EventKind = "updateSymbol"
	EventLegend EventKind = "setLegend"
)

// Event is one recorded render sink call.
type Event struct {
	Kind    EventKind `json:"type"`
	ID      string    `json:"id,omitempty"`
	At      *LngLat   `json:"at,omitempty"`
	Radius  float64   `json:"radius,omitempty"`
	Content string    `json:"content,omitempty"`
	Stats   *Stats    `json:"stats,omitempty"`
	Year    string    `json:"year,omitempty"`
}

// Recorder is a RenderSink that keeps every call in order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) CreateSymbol(id string, at LngLat, radius float64, content string) {
	r.Events = append(r.Events, Event{Kind: EventCreate, ID: id, At: &at, Radius: radius, Content: content})
}

func (r *Recorder) UpdateSymbol(id string, radius float64, content string) {
	r.Events = append(r.Events, Event{Kind: EventUpdate, ID: id, Radius: radius, Content: content})
}

func (r *Recorder) SetLegend(stats Stats, yearLabel string) {
	r.Events = append(r.Events, Event{Kind: EventLegend, Stats: &stats, Year: yearLabel})
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.Events = r.Events[:0]
}

// Filter returns the recorded events of one kind.
func (r *Recorder) Filter(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
