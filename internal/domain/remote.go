package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies one of the three Daymet collections on THREDDS.
type Kind string

const (
	KindDaily   Kind = "Daily"
	KindMonthly Kind = "Monthly"
	KindAnnual  Kind = "Annual"
)

// ORNL DAAC dataset identifiers for the Daymet v3 collections.
const (
	dailyDataset   = "1328"
	monthlyDataset = "1345"
	annualDataset  = "1343"
)

// RemoteFile is one Daymet file on the THREDDS server and its local mirror
// location.
type RemoteFile struct {
	Kind      Kind
	Year      int
	Parameter string
	URL       string
	Path      string
}

// aggregation is the summary suffix of monthly and annual files.
func aggregation(parameter string) string {
	if parameter == PrecipitationParameter {
		return "ttl"
	}
	return "avg"
}

// RemoteCatalog lists the daily, monthly and annual files of one year.
// Local paths are laid out as <dataDir>/<Kind>/<param>/<file>, which is the
// structure Discover and Filter expect.
func RemoteCatalog(baseURL, dataDir string, year int, daily, aggregate []string) []RemoteFile {
	base := strings.TrimRight(baseURL, "/")
	files := make([]RemoteFile, 0, len(daily)+2*len(aggregate))

	for _, p := range daily {
		name := fmt.Sprintf("daymet_v3_%s_%d_na.nc4", p, year)
		files = append(files, RemoteFile{
			Kind:      KindDaily,
			Year:      year,
			Parameter: p,
			URL:       fmt.Sprintf("%s/%s/%d/%s", base, dailyDataset, year, name),
			Path:      filepath.Join(dataDir, string(KindDaily), p, name),
		})
	}

	for _, p := range aggregate {
		name := fmt.Sprintf("daymet_v3_%s_mon%s_%d_na.nc4", p, aggregation(p), year)
		files = append(files, RemoteFile{
			Kind:      KindMonthly,
			Year:      year,
			Parameter: p,
			URL:       fmt.Sprintf("%s/%s/%s", base, monthlyDataset, name),
			Path:      filepath.Join(dataDir, string(KindMonthly), p, name),
		})
	}

	for _, p := range aggregate {
		name := fmt.Sprintf("daymet_v3_%s_ann%s_%d_na.nc4", p, aggregation(p), year)
		files = append(files, RemoteFile{
			Kind:      KindAnnual,
			Year:      year,
			Parameter: p,
			URL:       fmt.Sprintf("%s/%s/%s", base, annualDataset, name),
			Path:      filepath.Join(dataDir, string(KindAnnual), p, name),
		})
	}

	return files
}
