package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatterContent(t *testing.T) {
	k := MustAttributeKey("Percent_Poverty_Bachelors_Over25_2018")
	props := map[string]interface{}{"State": "Alabama", k.Name(): 4.6}
	f := NewFeature("01", "Alabama", LngLat{}, props, nil)

	got := NewFormatter().Content(f, k)
	assert.Equal(t, "ALABAMA\n\nIn 2018, 4.6% of people 25 years old or over with a bachelor's degree are in poverty", got)

	_, ok := f.Property("State")
	assert.True(t, ok)
	assert.Equal(t, 4.6, props[k.Name()], "inputs untouched")
}

func TestFormatterUnavailable(t *testing.T) {
	k := MustAttributeKey("Rate_2021")
	f := NewFeature("x", "Guam", LngLat{}, map[string]interface{}{"Rate_2020": 1.0}, nil)
	fm := NewFormatter()

	assert.Equal(t, "GUAM\n\nIn 2021, no data available", fm.Content(f, k))
	assert.Equal(t, "<p><b>GUAM</b><br><br>In <b>2021</b>, no data available</p>", fm.PopupHTML(f, k))
}

func TestFormatterPopupHTML(t *testing.T) {
	k := MustAttributeKey("Rate_2016")
	f := NewFeature("x", "Texas & <Co>", LngLat{}, map[string]interface{}{"Rate_2016": 12.25}, nil)
	fm := Formatter{Phrase: "are late", Precision: 1}

	assert.Equal(t, "<p><b>TEXAS &amp; &lt;CO&gt;</b><br><br>In <b>2016</b>, <b>12.2%</b> are late</p>", fm.PopupHTML(f, k))
}

func TestFormatterLegend(t *testing.T) {
	entries := Formatter{Precision: 1}.Legend(Stats{Min: 1, Max: 9.25, Mean: 4.5})
	assert.Equal(t, []LegendEntry{
		{Label: "max", Value: 9.25, Text: "9.2%"},
		{Label: "mean", Value: 4.5, Text: "4.5%"},
		{Label: "min", Value: 1, Text: "1.0%"},
	}, entries)
}
