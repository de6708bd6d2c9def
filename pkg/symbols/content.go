package symbols

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// DefaultPhrase describes the reference attribute after the value.
const DefaultPhrase = "of people 25 years old or over with a bachelor's degree are in poverty"

// Formatter builds the text shown for a symbol and the legend.
type Formatter struct {
	// Phrase follows the formatted value, e.g. "12.3% <Phrase>".
	Phrase string
	// Precision is the number of decimals shown; negative means as short
	// as possible.
	Precision int
}

// NewFormatter returns a formatter with the reference phrase.
func NewFormatter() Formatter {
	return Formatter{Phrase: DefaultPhrase, Precision: -1}
}

func (f Formatter) percent(v float64) string {
	return strconv.FormatFloat(v, 'f', f.Precision, 64) + "%"
}

// Content is the plain text label of a feature at k:
//
//	ALABAMA
//
//	In 2016, 12.3% of people ... are in poverty
//
// A missing value yields an "unavailable" line instead of an error.
func (f Formatter) Content(feat *Feature, k AttributeKey) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(feat.Name()))
	b.WriteString("\n\n")
	v, ok := feat.Value(k)
	if !ok {
		fmt.Fprintf(&b, "In %s, no data available", k.YearLabel())
		return b.String()
	}
	fmt.Fprintf(&b, "In %s, %s", k.YearLabel(), f.percent(v))
	if f.Phrase != "" {
		b.WriteString(" ")
		b.WriteString(f.Phrase)
	}
	return b.String()
}

// PopupHTML is Content as a small HTML fragment for browser sinks.
func (f Formatter) PopupHTML(feat *Feature, k AttributeKey) string {
	name := "<p><b>" + html.EscapeString(strings.ToUpper(feat.Name())) + "</b>"
	v, ok := feat.Value(k)
	if !ok {
		return name + "<br><br>In <b>" + k.YearLabel() + "</b>, no data available</p>"
	}
	out := name + "<br><br>In <b>" + k.YearLabel() + "</b>, <b>" + f.percent(v) + "</b>"
	if f.Phrase != "" {
		out += " " + html.EscapeString(f.Phrase)
	}
	return out + "</p>"
}

// Legend lists the aggregates the legend circles stand for, largest
// first.
func (f Formatter) Legend(s Stats) []LegendEntry {
	return []LegendEntry{
		{Label: "max", Value: s.Max, Text: f.percent(s.Max)},
		{Label: "mean", Value: s.Mean, Text: f.percent(s.Mean)},
		{Label: "min", Value: s.Min, Text: f.percent(s.Min)},
	}
}

// LegendEntry is one nested circle of the legend.
type LegendEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}
