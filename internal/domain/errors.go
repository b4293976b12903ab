package domain

import "errors"

var (
	// ErrDiscovery reports an unreadable catalog root. Callers treat it as an
	// empty catalog.
	ErrDiscovery = errors.New("discovery failed")

	// ErrTaxonomy reports a malformed data-type taxonomy. It is fatal.
	ErrTaxonomy = errors.New("invalid data type taxonomy")

	// ErrRasterOpen reports a raster that could not be opened or read.
	ErrRasterOpen = errors.New("raster open failed")

	// ErrProjection reports missing or unparseable projection metadata.
	ErrProjection = errors.New("invalid projection")

	// ErrYearMissing reports a file name without a 4-digit year.
	ErrYearMissing = errors.New("file name has no 4-digit year")

	// ErrBandCount reports a daily raster whose bands cannot be mapped onto
	// the days of its year.
	ErrBandCount = errors.New("band count does not match days in year")

	// ErrGridMismatch reports a band whose pixel count differs from the
	// reference grid header.
	ErrGridMismatch = errors.New("band size does not match reference grid")

	// ErrRemoteNotFound reports a remote file the server does not have.
	// The downloader skips it without retrying.
	ErrRemoteNotFound = errors.New("remote file not found")
)
