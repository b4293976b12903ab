package domain

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// yearRe matches the first 4-digit run in a file name,
// e.g. "daymet_v3_tmax_2016_na.nc4" -> "2016".
var yearRe = regexp.MustCompile(`\d{4}`)

// FileRecord identifies one raster file found under the data root.
type FileRecord struct {
	Dir  string // directory containing the file
	Name string // base file name
}

// Path joins the directory and file name.
func (r FileRecord) Path() string {
	return filepath.Join(r.Dir, r.Name)
}

// Year extracts the first 4-digit number from the file name.
func (r FileRecord) Year() (int, error) {
	m := yearRe.FindString(r.Name)
	if m == "" {
		return 0, fmt.Errorf("%s: %w", r.Path(), ErrYearMissing)
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", r.Path(), ErrYearMissing)
	}
	return year, nil
}

// IsMonthly reports whether the record lives under a "Monthly" directory.
// Records of the monthly data type that are not monthly are annual.
func (r FileRecord) IsMonthly() bool {
	return strings.Contains(r.Dir, "Monthly")
}

// Discover walks root recursively and returns every regular file whose
// extension matches one of exts, ignoring case. Results are in walk order
// and must be sorted by the caller.
//
// An unreadable root yields an empty result wrapped in ErrDiscovery.
// Unreadable subdirectories are skipped without error.
func Discover(root string, exts []string) ([]FileRecord, error) {
	suffixes := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			suffixes = append(suffixes, "."+strings.ToUpper(ext))
		}
	}

	// WalkDir does not follow a symlinked root, so walk its target and map
	// paths back under root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDiscovery, root, err)
	}

	var records []FileRecord
	var rootErr error
	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				rootErr = err
				return fs.SkipAll
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !hasAnySuffix(strings.ToUpper(d.Name()), suffixes) {
			return nil
		}
		dir := filepath.Dir(path)
		if rel, err := filepath.Rel(walkRoot, dir); err == nil {
			dir = filepath.Join(root, rel)
		}
		records = append(records, FileRecord{Dir: dir, Name: d.Name()})
		return nil
	})
	if rootErr == nil {
		rootErr = walkErr
	}
	if rootErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDiscovery, root, rootErr)
	}
	return records, nil
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
