package symbols

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// DefaultPrefix is the attribute family of the reference poverty dataset.
const DefaultPrefix = "Percent_Poverty_Bachelors_Over25"

// AttributeKey is one position on the time axis: a property name of the
// form <prefix>_<YYYY>.
type AttributeKey struct {
	name   string
	prefix string
	year   int
}

// ParseAttributeKey splits name at its last underscore and requires a
// four digit year after it.
func ParseAttributeKey(name string) (AttributeKey, error) {
	idx := strings.LastIndexByte(name, '_')
	if idx <= 0 || len(name)-idx-1 != 4 {
		return AttributeKey{}, fmt.Errorf("attribute %q: want <prefix>_<YYYY>", name)
	}
	suffix := name[idx+1:]
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return AttributeKey{}, fmt.Errorf("attribute %q: year %q is not numeric", name, suffix)
		}
	}
	year, _ := strconv.Atoi(suffix)
	return AttributeKey{name: name, prefix: name[:idx], year: year}, nil
}

// MustAttributeKey is ParseAttributeKey for literals in tests and defaults.
func MustAttributeKey(name string) AttributeKey {
	k, err := ParseAttributeKey(name)
	if err != nil {
		panic(err)
	}
	return k
}

func (k AttributeKey) Name() string { return k.name }
func (k AttributeKey) Prefix() string { return k.prefix }
func (k AttributeKey) Year() int { return k.year }
func (k AttributeKey) String() string { return k.name }

// YearLabel is the year as shown to the user, always four digits.
func (k AttributeKey) YearLabel() string {
	return fmt.Sprintf("%04d", k.year)
}

// KeyOrder controls how extracted keys are arranged on the time axis.
type KeyOrder string

const (
	// OrderChronological sorts keys by year, oldest first.
	OrderChronological KeyOrder = "chronological"
	// OrderDocument keeps the order the properties appear in the source.
	OrderDocument KeyOrder = "document"
	// OrderReverse reverses the document order.
	OrderReverse KeyOrder = "reverse"
)

// ParseKeyOrder accepts the names of the KeyOrder constants; empty means
// chronological.
func ParseKeyOrder(s string) (KeyOrder, error) {
	switch KeyOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderChronological:
		return OrderChronological, nil
	case OrderDocument:
		return OrderDocument, nil
	case OrderReverse:
		return OrderReverse, nil
	}
	return "", fmt.Errorf("unknown key order %q", s)
}

// Extractor derives the time axis from one feature's property names.
type Extractor struct {
	prefixes []string
	matcher  *ahocorasick.Matcher
	order    KeyOrder
}

// NewExtractor builds an extractor for the given attribute prefixes. When
// several prefixes are configured the first one with any matching key
// wins; the others are alternatives, not additional series.
func NewExtractor(prefixes []string, order KeyOrder) (*Extractor, error) {
	var clean []string
	for _, p := range prefixes {
		p = strings.TrimSuffix(strings.TrimSpace(p), "_")
		if p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no attribute prefix configured", ErrConfiguration)
	}
	order, err := ParseKeyOrder(string(order))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &Extractor{
		prefixes: clean,
		matcher:  ahocorasick.NewStringMatcher(clean),
		order:    order,
	}, nil
}

// Extract returns the ordered time axis found in keys. keys must be in
// document order for OrderDocument and OrderReverse to mean anything.
func (x *Extractor) Extract(keys []string) ([]AttributeKey, error) {
	byPrefix := make([][]AttributeKey, len(x.prefixes))
	for _, name := range keys {
		hits := x.matcher.Match([]byte(name))
		if len(hits) == 0 {
			continue
		}
		k, err := ParseAttributeKey(name)
		if err != nil {
			continue
		}
		// A hit only says the prefix occurs somewhere in name. Requiring
		// it to be the whole prefix keeps "Rate" from claiming
		// "Rate_Adjusted_2020" or "Old_Rate_2020".
		for _, h := range hits {
			if x.prefixes[h] == k.prefix {
				byPrefix[h] = append(byPrefix[h], k)
				break
			}
		}
	}

	var out []AttributeKey
	for _, ks := range byPrefix {
		if len(ks) > 0 {
			out = ks
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no properties match %s_<YYYY>", ErrConfiguration, strings.Join(x.prefixes, "|"))
	}

	switch x.order {
	case OrderReverse:
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	case OrderChronological:
		sort.SliceStable(out, func(i, j int) bool { return out[i].year < out[j].year })
	}
	return out, nil
}
