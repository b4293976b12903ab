package domain

import "fmt"

// Raster is an opened multi-band grid. Bands are 1-based and read as a
// row-major flattened slice of width*height values.
type Raster interface {
	BandCount() int
	Size() (width, height int)
	GeoTransform() [6]float64
	Projection() string
	ReadBand(index int) ([]float64, error)
	Close() error
}

// RasterSource opens rasters and resamples them onto a reference grid.
type RasterSource interface {
	Open(path string) (Raster, error)

	// Reproject opens path and returns a Float32 raster with the grid's
	// geotransform, projection and size, the source's band count, and
	// nearest-neighbour resampled values.
	Reproject(path string, grid ReferenceGrid) (Raster, error)
}

// ReferenceGrid is the target geometry of every reprojection. Header holds
// the mask's first band flattened, one point identifier per pixel.
type ReferenceGrid struct {
	GeoTransform [6]float64
	Projection   string
	Width        int
	Height       int
	Header       []float64
}

// Points returns the number of pixels in the grid.
func (g ReferenceGrid) Points() int {
	return g.Width * g.Height
}

// LoadReferenceGrid opens the mask raster and captures its geometry and
// first-band values.
func LoadReferenceGrid(src RasterSource, path string) (ReferenceGrid, error) {
	r, err := src.Open(path)
	if err != nil {
		return ReferenceGrid{}, err
	}
	defer r.Close()

	if r.Projection() == "" {
		return ReferenceGrid{}, fmt.Errorf("%w: mask %s has no projection", ErrProjection, path)
	}
	if r.BandCount() < 1 {
		return ReferenceGrid{}, fmt.Errorf("%w: mask %s has no bands", ErrRasterOpen, path)
	}

	header, err := r.ReadBand(1)
	if err != nil {
		return ReferenceGrid{}, fmt.Errorf("read mask %s: %w", path, err)
	}

	width, height := r.Size()
	grid := ReferenceGrid{
		GeoTransform: r.GeoTransform(),
		Projection:   r.Projection(),
		Width:        width,
		Height:       height,
		Header:       header,
	}
	if len(header) != grid.Points() {
		return ReferenceGrid{}, fmt.Errorf("%w: mask band has %d values, grid is %dx%d",
			ErrGridMismatch, len(header), width, height)
	}
	return grid, nil
}
