// Package gdal implements domain.RasterSource on top of the GDAL library.
package gdal

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/couchcryptid/daymet-etl/internal/domain"
)

var registerOnce sync.Once

// daymetVarRe extracts the variable name from a Daymet file name,
// e.g. "daymet_v3_tmax_monavg_1999_na.nc4" -> "tmax".
var daymetVarRe = regexp.MustCompile(`^daymet_v\d+_([a-z]+)_`)

// Source opens rasters through GDAL and warps them with gdalwarp semantics.
type Source struct{}

// NewSource registers the GDAL drivers once per process.
func NewSource() *Source {
	registerOnce.Do(godal.RegisterAll)
	return &Source{}
}

// Open opens path read-only. NetCDF files that expose their grids only as
// subdatasets are reopened on the variable named in the file name.
func (s *Source) Open(path string) (domain.Raster, error) {
	ds, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	r, err := wrap(ds, path)
	if err != nil {
		_ = ds.Close()
		return nil, err
	}
	return r, nil
}

// Reproject resamples the raster at path onto grid using nearest-neighbour
// interpolation into an in-memory Float32 dataset.
func (s *Source) Reproject(path string, grid domain.ReferenceGrid) (domain.Raster, error) {
	src, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	srcWKT := src.Projection()
	if err := checkProjection(srcWKT); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := checkProjection(grid.Projection); err != nil {
		return nil, fmt.Errorf("reference grid: %w", err)
	}

	bands := src.Structure().NBands
	dst, err := godal.Create(godal.Memory, "", bands, godal.Float32, grid.Width, grid.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: create warp target for %s: %v", domain.ErrRasterOpen, path, err)
	}
	if err := prepareTarget(dst, grid); err != nil {
		_ = dst.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switches := []string{"-r", "near", "-s_srs", srcWKT}
	if err := dst.WarpInto([]*godal.Dataset{src}, switches); err != nil {
		_ = dst.Close()
		return nil, fmt.Errorf("%w: warp %s: %v", domain.ErrRasterOpen, path, err)
	}

	r, err := wrap(dst, path)
	if err != nil {
		_ = dst.Close()
		return nil, err
	}
	return r, nil
}

func prepareTarget(dst *godal.Dataset, grid domain.ReferenceGrid) error {
	if err := dst.SetGeoTransform(grid.GeoTransform); err != nil {
		return fmt.Errorf("%w: set geotransform: %v", domain.ErrProjection, err)
	}
	if err := dst.SetProjection(grid.Projection); err != nil {
		return fmt.Errorf("%w: set projection: %v", domain.ErrProjection, err)
	}
	return nil
}

func openDataset(path string) (*godal.Dataset, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRasterOpen, path, err)
	}
	if ds.Structure().NBands > 0 {
		return ds, nil
	}

	sub := netCDFSubdataset(path)
	if sub == "" {
		_ = ds.Close()
		return nil, fmt.Errorf("%w: %s has no bands", domain.ErrRasterOpen, path)
	}
	_ = ds.Close()

	ds, err = godal.Open(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrRasterOpen, sub, err)
	}
	return ds, nil
}

// netCDFSubdataset names the Daymet variable subdataset of path, or ""
// when path is not a Daymet NetCDF file.
func netCDFSubdataset(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".nc" && ext != ".nc4" {
		return ""
	}
	m := daymetVarRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return ""
	}
	return `NETCDF:"` + path + `":` + m[1]
}

func checkProjection(wkt string) error {
	if strings.TrimSpace(wkt) == "" {
		return fmt.Errorf("%w: missing projection", domain.ErrProjection)
	}
	sr, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProjection, err)
	}
	sr.Close()
	return nil
}
