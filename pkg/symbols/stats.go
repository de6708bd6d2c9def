package symbols

import (
	"fmt"
	"math"
)

// Stats are the global aggregates over every feature at every key.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// ComputeStats scans all features at all keys. Missing values are left
// out of the aggregates rather than counted as zero.
func ComputeStats(features []*Feature, keys []AttributeKey) (Stats, error) {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, f := range features {
		for _, k := range keys {
			v, ok := f.Value(k)
			if !ok {
				continue
			}
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
			sum += v
			s.Count++
		}
	}
	if s.Count == 0 {
		return Stats{}, fmt.Errorf("%w: %d features x %d keys", ErrNoValues, len(features), len(keys))
	}
	s.Mean = sum / float64(s.Count)
	return s, nil
}
