package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": 1,
      "geometry": {"type": "Point", "coordinates": [-86.8, 32.8]},
      "properties": {
        "State": "Alabama",
        "Percent_Poverty_Bachelors_Over25_2017": 5.1,
        "Percent_Poverty_Bachelors_Over25_2016": 4.9,
        "Note": "x"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [4, 0], [4, 2], [0, 2], [0, 0]]]},
      "properties": {
        "State": "Square",
        "id": "sq",
        "Percent_Poverty_Bachelors_Over25_2017": "3.5",
        "Percent_Poverty_Bachelors_Over25_2016": null
      }
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"State": "Nowhere"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [1, 1]},
      "properties": null
    }
  ]
}`

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset([]byte(sampleGeoJSON), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, ds.Features, 3)

	al := ds.Features[0]
	assert.Equal(t, "1", al.ID())
	assert.Equal(t, "Alabama", al.Name())
	assert.Equal(t, LngLat{Lng: -86.8, Lat: 32.8}, al.At())
	assert.Equal(t, []string{
		"State",
		"Percent_Poverty_Bachelors_Over25_2017",
		"Percent_Poverty_Bachelors_Over25_2016",
		"Note",
	}, al.Keys())
	assert.NotNil(t, al.Geometry())

	sq := ds.Features[1]
	assert.Equal(t, "sq", sq.ID())
	assert.Equal(t, LngLat{Lng: 2, Lat: 1}, sq.At())
	v, ok := sq.Value(MustAttributeKey("Percent_Poverty_Bachelors_Over25_2017"))
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)
	_, ok = sq.Value(MustAttributeKey("Percent_Poverty_Bachelors_Over25_2016"))
	assert.False(t, ok)

	anon := ds.Features[2]
	assert.Equal(t, "3", anon.ID())
	assert.Equal(t, "3", anon.Name())
	assert.Empty(t, anon.Keys())
}

func TestParseDatasetNameProperty(t *testing.T) {
	ds, err := ParseDataset([]byte(sampleGeoJSON), ParseOptions{NameProperty: "Note"})
	require.NoError(t, err)
	assert.Equal(t, "x", ds.Features[0].Name())
	assert.Equal(t, "sq", ds.Features[1].Name())
}

func TestParseDatasetInvalid(t *testing.T) {
	_, err := ParseDataset([]byte(`{"type": "FeatureCollection", "features": [`), ParseOptions{})
	assert.Error(t, err)
}

func TestFeatureValueTypes(t *testing.T) {
	f := NewFeature("f", "F", LngLat{}, map[string]interface{}{
		"A_2000": 0.0,
		"A_2001": "12.5%",
		"A_2002": "n/a",
		"A_2003": true,
		"A_2004": 7,
	}, nil)

	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"A_2000", 0, true},
		{"A_2001", 12.5, true},
		{"A_2002", 0, false},
		{"A_2003", 0, false},
		{"A_2004", 7, true},
		{"A_2005", 0, false},
	}
	for _, tt := range tests {
		v, ok := f.Value(MustAttributeKey(tt.key))
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, v, tt.key)
	}
}
