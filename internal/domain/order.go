package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Filter keeps records whose directory contains any of markers and whose
// file name contains parameter. Both comparisons ignore case.
func Filter(records []FileRecord, markers []string, parameter string) []FileRecord {
	param := strings.ToUpper(parameter)
	var out []FileRecord
	for _, r := range records {
		if containsAnyFold(r.Dir, markers) && strings.Contains(strings.ToUpper(r.Name), param) {
			out = append(out, r)
		}
	}
	return out
}

func containsAnyFold(s string, subs []string) bool {
	upper := strings.ToUpper(s)
	for _, sub := range subs {
		if strings.Contains(upper, strings.ToUpper(sub)) {
			return true
		}
	}
	return false
}

// SortKey orders records chronologically: year, then taxonomy rank.
type SortKey struct {
	Year int
	Rank int
}

// Compare returns -1, 0 or +1.
func (k SortKey) Compare(o SortKey) int {
	if c := cmp.Compare(k.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(k.Rank, o.Rank)
}

// String renders the key as the zero-padded year followed by the rank,
// e.g. "20171".
func (k SortKey) String() string {
	return fmt.Sprintf("%04d%d", k.Year, k.Rank)
}

// Rank is the index of the first marker (in taxonomy order) found in the
// record's directory, matched case-sensitively. A single-marker taxonomy
// or no match yields 0.
func Rank(r FileRecord, markers []string) int {
	if len(markers) <= 1 {
		return 0
	}
	for i, m := range markers {
		if strings.Contains(r.Dir, m) {
			return i
		}
	}
	return 0
}

// KeyOf computes the sort key of a record.
func KeyOf(r FileRecord, markers []string) (SortKey, error) {
	year, err := r.Year()
	if err != nil {
		return SortKey{}, err
	}
	return SortKey{Year: year, Rank: Rank(r, markers)}, nil
}

// Entry is a record paired with its sort key.
type Entry struct {
	Record FileRecord
	Key    SortKey
}

// Order computes keys and sorts records ascending. Equal keys fall back to
// path order so runs are deterministic. Records without a year are
// returned as errors instead of entries.
func Order(records []FileRecord, markers []string) ([]Entry, []error) {
	entries := make([]Entry, 0, len(records))
	var rejected []error
	for _, r := range records {
		key, err := KeyOf(r, markers)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		entries = append(entries, Entry{Record: r, Key: key})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := a.Key.Compare(b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.Path(), b.Record.Path())
	})
	return entries, rejected
}
