package sources

const (
	// DefaultDatasetPath is where the viewer looks for the poverty dataset
	// when no source is given.
	DefaultDatasetPath = "data/Poverty.geojson"

	// DefaultCacheDir holds downloaded datasets between runs.
	DefaultCacheDir = "data/cache"
)
