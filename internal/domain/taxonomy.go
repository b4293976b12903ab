package domain

import (
	"fmt"
	"strings"
)

// DailyType is the data type whose bands are individual days.
const DailyType = "daily"

// DataType names a temporal aggregation level and the directory markers
// that identify it. Marker order defines the within-year rank.
type DataType struct {
	Name    string
	Markers []string
}

// IsDaily reports whether rows of this type carry date labels.
func (dt DataType) IsDaily() bool {
	return dt.Name == DailyType
}

// Taxonomy is the ordered set of data types processed by a run.
type Taxonomy []DataType

// ParseTaxonomy reads the "name:Marker,Marker;name:Marker" form, e.g.
// "daily:Daily;monthly:Monthly,Annual". Order is preserved.
func ParseTaxonomy(s string) (Taxonomy, error) {
	var t Taxonomy
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, markerList, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q lacks ':'", ErrTaxonomy, entry)
		}
		dt := DataType{Name: strings.TrimSpace(name)}
		for _, m := range strings.Split(markerList, ",") {
			if m = strings.TrimSpace(m); m != "" {
				dt.Markers = append(dt.Markers, m)
			}
		}
		t = append(t, dt)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the taxonomy is usable for filtering and ordering.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no data types", ErrTaxonomy)
	}
	seen := make(map[string]bool, len(t))
	for _, dt := range t {
		if dt.Name == "" {
			return fmt.Errorf("%w: empty data type name", ErrTaxonomy)
		}
		if seen[dt.Name] {
			return fmt.Errorf("%w: duplicate data type %q", ErrTaxonomy, dt.Name)
		}
		seen[dt.Name] = true
		if len(dt.Markers) == 0 {
			return fmt.Errorf("%w: data type %q has no markers", ErrTaxonomy, dt.Name)
		}
	}
	return nil
}

// String renders the taxonomy in the form accepted by ParseTaxonomy.
func (t Taxonomy) String() string {
	parts := make([]string, len(t))
	for i, dt := range t {
		parts[i] = dt.Name + ":" + strings.Join(dt.Markers, ",")
	}
	return strings.Join(parts, ";")
}
