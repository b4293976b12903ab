package gdal

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/couchcryptid/daymet-etl/internal/domain"
)

// raster adapts a GDAL dataset to domain.Raster.
type raster struct {
	ds        *godal.Dataset
	path      string
	transform [6]float64
	width     int
	height    int
	bands     int
}

func wrap(ds *godal.Dataset, path string) (*raster, error) {
	transform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no geotransform: %v", domain.ErrProjection, path, err)
	}
	st := ds.Structure()
	return &raster{
		ds:        ds,
		path:      path,
		transform: transform,
		width:     st.SizeX,
		height:    st.SizeY,
		bands:     st.NBands,
	}, nil
}

func (r *raster) BandCount() int { return r.bands }
func (r *raster) Size() (int, int) { return r.width, r.height }
func (r *raster) GeoTransform() [6]float64 { return r.transform }
func (r *raster) Projection() string { return r.ds.Projection() }

// ReadBand reads the whole of band index (1-based) in row-major order.
func (r *raster) ReadBand(index int) ([]float64, error) {
	if index < 1 || index > r.bands {
		return nil, fmt.Errorf("%w: %s band %d out of range 1..%d", domain.ErrRasterOpen, r.path, index, r.bands)
	}
	buf := make([]float64, r.width*r.height)
	band := r.ds.Bands()[index-1]
	if err := band.Read(0, 0, buf, r.width, r.height); err != nil {
		return nil, fmt.Errorf("%w: read %s band %d: %v", domain.ErrRasterOpen, r.path, index, err)
	}
	return buf, nil
}

func (r *raster) Close() error {
	return r.ds.Close()
}
