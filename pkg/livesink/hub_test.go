package livesink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/propmap/pkg/symbols"
)

func testDataset() *symbols.Dataset {
	keys := []string{"State", "Rate_2020", "Rate_2021"}
	return &symbols.Dataset{Features: []*symbols.Feature{
		symbols.NewFeature("a", "Alpha", symbols.LngLat{Lng: -100, Lat: 40}, map[string]interface{}{
			"State": "Alpha", "Rate_2020": 5.0, "Rate_2021": 10.0,
		}, keys),
		symbols.NewFeature("b", "Beta", symbols.LngLat{Lng: -90, Lat: 35}, map[string]interface{}{
			"State": "Beta", "Rate_2020": 20.0, "Rate_2021": 40.0,
		}, keys),
	}}
}

func rateOptions() symbols.Options {
	opts := symbols.DefaultOptions()
	opts.Prefixes = []string{"Rate"}
	return opts
}

func loadedHub(t *testing.T) (*Hub, *symbols.Coordinator) {
	t.Helper()
	hub := NewHub()
	c, err := symbols.NewCoordinator(hub, rateOptions())
	require.NoError(t, err)
	require.NoError(t, c.Load(testDataset()))
	hub.Attach(c)
	return hub, c
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []symbols.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame []symbols.Event
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHubReplaysSnapshotToLateJoiner(t *testing.T) {
	hub, _ := loadedHub(t)
	srv := httptest.NewServer(NewServer("", hub).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	snap := readFrame(t, conn)
	require.Len(t, snap, 3)
	first, second, legend := snap[0], snap[1], snap[2]

	assert.Equal(t, symbols.EventCreate, first.Kind)
	assert.Equal(t, "a", first.ID)
	require.NotNil(t, first.At)
	assert.Equal(t, -100.0, first.At.Lng)
	assert.Equal(t, "b", second.ID)
	assert.Equal(t, symbols.EventLegend, legend.Kind)
	assert.Equal(t, "2020", legend.Year)
}

func TestHubControlMessages(t *testing.T) {
	hub, c := loadedHub(t)
	srv := httptest.NewServer(NewServer("", hub).Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	conn := dial(t, srv)
	require.Len(t, readFrame(t, conn), 3)

	require.NoError(t, conn.WriteJSON(symbols.ControlEvent{Type: symbols.ControlForward}))
	pass := readFrame(t, conn)
	require.Len(t, pass, 3)
	upA, upB, legend := pass[0], pass[1], pass[2]
	assert.Equal(t, symbols.EventUpdate, upA.Kind)
	assert.Equal(t, "a", upA.ID)
	assert.Contains(t, upB.Content, "In 2021, 40%")
	assert.Equal(t, "2021", legend.Year)

	idx, n := c.Position()
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, n)

	// An out of range seek is dropped and the loop keeps running.
	require.NoError(t, conn.WriteJSON(symbols.ControlEvent{Type: symbols.ControlSeek, Index: 7}))
	require.NoError(t, conn.WriteJSON(symbols.ControlEvent{Type: symbols.ControlSeek, Index: 0}))
	pass = readFrame(t, conn)
	require.Len(t, pass, 3)
	assert.Equal(t, "2020", pass[2].Year)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestHubState(t *testing.T) {
	hub, c := loadedHub(t)
	require.NoError(t, c.Forward())
	srv := httptest.NewServer(NewServer("", hub).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 2, st.Periods)
	assert.Equal(t, "2021", st.Year)
	require.NotNil(t, st.Stats)
	assert.Equal(t, 40.0, st.Stats.Max)
	require.Len(t, st.Symbols, 2)
	// Snapshot entries stay creates carrying the latest radius and content.
	assert.Equal(t, symbols.EventCreate, st.Symbols[1].Kind)
	assert.Contains(t, st.Symbols[1].Content, "In 2021")

	resp2, err := http.Post(srv.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestHubUpdateUnknownSymbol(t *testing.T) {
	hub := NewHub()
	hub.UpdateSymbol("missing", 3, "x")
	hub.SetLegend(symbols.Stats{Min: 1, Max: 1, Mean: 1, Count: 1}, "2020")
	assert.Empty(t, hub.State().Symbols)
}

func TestHubStateHidesUnfinishedPass(t *testing.T) {
	hub, _ := loadedHub(t)
	hub.UpdateSymbol("a", 99, "partial")

	st := hub.State()
	assert.Equal(t, "2020", st.Year)
	assert.NotEqual(t, "partial", st.Symbols[0].Content)

	hub.SetLegend(*st.Stats, "2021")
	st = hub.State()
	assert.Equal(t, "partial", st.Symbols[0].Content)
	assert.Equal(t, 99.0, st.Symbols[0].Radius)
	assert.Equal(t, "2021", st.Year)
}

func manyFeatures(n int) *symbols.Dataset {
	keys := []string{"State", "Rate_2020", "Rate_2021"}
	ds := &symbols.Dataset{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("f%04d", i)
		ds.Features = append(ds.Features, symbols.NewFeature(id, id,
			symbols.LngLat{Lng: -120 + float64(i%50), Lat: 30 + float64(i/50)},
			map[string]interface{}{"State": id, "Rate_2020": float64(i + 1), "Rate_2021": float64(i + 2)}, keys))
	}
	return ds
}

func TestHubLateJoinerGetsWholeSnapshot(t *testing.T) {
	hub := NewHub()
	c, err := symbols.NewCoordinator(hub, rateOptions())
	require.NoError(t, err)
	require.NoError(t, c.Load(manyFeatures(300)))
	hub.Attach(c)
	srv := httptest.NewServer(NewServer("", hub).Handler())
	defer srv.Close()

	snap := readFrame(t, dial(t, srv))
	require.Len(t, snap, 301)
	assert.Equal(t, "f0299", snap[299].ID)
	assert.Equal(t, symbols.EventLegend, snap[300].Kind)
}

func TestHubLargePassKeepsClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewServer("", hub).Handler())
	defer srv.Close()
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	c, err := symbols.NewCoordinator(hub, rateOptions())
	require.NoError(t, err)
	require.NoError(t, c.Load(manyFeatures(1000)))

	pass := readFrame(t, conn)
	require.Len(t, pass, 1001)
	assert.Equal(t, symbols.EventLegend, pass[1000].Kind)
	assert.Equal(t, 1, hub.Clients())
}

func TestRunWithoutController(t *testing.T) {
	assert.Error(t, NewHub().Run(context.Background()))
}

type failingController struct{ err error }

func (f failingController) Handle(symbols.ControlEvent) error { return f.err }
func (f failingController) Position() (int, int) { return 0, 1 }

func TestRunStopsOnFatalError(t *testing.T) {
	hub := NewHub()
	boom := errors.New("boom")
	hub.Attach(failingController{err: boom})
	require.True(t, hub.Submit(symbols.ControlEvent{Type: symbols.ControlForward}))
	assert.ErrorIs(t, hub.Run(context.Background()), boom)
}
