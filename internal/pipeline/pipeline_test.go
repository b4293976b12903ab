package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/adapter/csv"
	"github.com/couchcryptid/daymet-etl/internal/domain"
	"github.com/couchcryptid/daymet-etl/internal/observability"
	"github.com/couchcryptid/daymet-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRaster struct {
	width, height int
	bands         [][]float64
	closed        bool
}

func (r *fakeRaster) BandCount() int { return len(r.bands) }
func (r *fakeRaster) Size() (int, int) { return r.width, r.height }
func (r *fakeRaster) GeoTransform() [6]float64 { return [6]float64{-111, 1, 0, 45, 0, -1} }
func (r *fakeRaster) Projection() string { return "GEOGCS[\"WGS 84\"]" }

func (r *fakeRaster) ReadBand(i int) ([]float64, error) {
	if i < 1 || i > len(r.bands) {
		return nil, fmt.Errorf("%w: band %d", domain.ErrRasterOpen, i)
	}
	return append([]float64(nil), r.bands[i-1]...), nil
}

func (r *fakeRaster) Close() error {
	r.closed = true
	return nil
}

// fakeSource serves the mask from Open and data rasters from Reproject,
// keyed by file name.
type fakeSource struct {
	mask       *fakeRaster
	maskErr    error
	rasters    map[string]*fakeRaster
	errs       map[string]error
	reprojects []string
}

func (s *fakeSource) Open(string) (domain.Raster, error) {
	if s.maskErr != nil {
		return nil, s.maskErr
	}
	return s.mask, nil
}

func (s *fakeSource) Reproject(path string, _ domain.ReferenceGrid) (domain.Raster, error) {
	name := filepath.Base(path)
	s.reprojects = append(s.reprojects, name)
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	r, ok := s.rasters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRasterOpen, name)
	}
	return r, nil
}

type recordingNotifier struct {
	reports []domain.OutputReport
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, report domain.OutputReport) error {
	n.reports = append(n.reports, report)
	return n.err
}

// --- helpers ---

func newMask() *fakeRaster {
	return &fakeRaster{width: 3, height: 1, bands: [][]float64{{10, 20, 30}}}
}

// touch creates empty files under root so Discover finds them.
func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

var (
	dailyType   = domain.DataType{Name: "daily", Markers: []string{"Daily"}}
	monthlyType = domain.DataType{Name: "monthly", Markers: []string{"Monthly", "Annual"}}
)

type harness struct {
	dataDir string
	outDir  string
	source  *fakeSource
	metrics *observability.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		dataDir: filepath.Join(root, "data"),
		outDir:  filepath.Join(root, "out"),
		source: &fakeSource{
			mask:    newMask(),
			rasters: map[string]*fakeRaster{},
			errs:    map[string]error{},
		},
		metrics: observability.NewMetricsForTesting(),
	}
}

func (h *harness) extractor(n pipeline.Notifier, taxonomy domain.Taxonomy, params ...string) *pipeline.Extractor {
	return pipeline.New(h.source, csv.NewSink(h.outDir, "GYE"), n, slog.Default(), h.metrics, pipeline.Options{
		DataDir:        h.dataDir,
		MaskPath:       "mask.tif",
		Parameters:     params,
		Taxonomy:       taxonomy,
		FileExtensions: []string{"nc4"},
	})
}

// --- tests ---

func TestExtractor_Run_WritesDateLabelledRows(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir, "Daily/tmax/daymet_v3_tmax_2001_na.nc4")
	h.source.rasters["daymet_v3_tmax_2001_na.nc4"] = &fakeRaster{
		width: 3, height: 1,
		bands: [][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}},
	}

	e := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax")
	require.Error(t, e.CheckReadiness(context.Background()))

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	want := "point number ->,month,year,10,20,30\n" +
		"01/01/2001,01,2001,1.0,2.0,3.0\n" +
		"01/02/2001,01,2001,4.0,5.0,6.0\n"
	assert.Equal(t, want, readFile(t, filepath.Join(h.outDir, "DAILY_DAYMET_GYE_TMAX.csv")))

	require.Len(t, summary.Outputs, 1)
	assert.Equal(t, 1, summary.Files())
	assert.Equal(t, 0, summary.Skipped())
	assert.Equal(t, 2, summary.Rows())
	assert.Equal(t, 1, summary.Discovered)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, summary.RunID, summary.Outputs[0].RunID)

	assert.NoError(t, e.CheckReadiness(context.Background()))
	assert.True(t, h.source.rasters["daymet_v3_tmax_2001_na.nc4"].closed)
	assert.True(t, h.source.mask.closed)
	assert.InDelta(t, 2.0, testutil.ToFloat64(h.metrics.RowsWritten), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.OutputsWritten), 0)
}

func TestExtractor_Run_OrdersByYearThenRank(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir,
		"Monthly/tmax/daymet_v3_tmax_monavg_2001_na.nc4",
		"Annual/tmax/daymet_v3_tmax_annavg_2000_na.nc4",
		"Monthly/tmax/daymet_v3_tmax_monavg_2000_na.nc4",
	)
	one := func(v float64) *fakeRaster {
		return &fakeRaster{width: 3, height: 1, bands: [][]float64{{v, v, v}}}
	}
	h.source.rasters["daymet_v3_tmax_monavg_2001_na.nc4"] = one(3)
	h.source.rasters["daymet_v3_tmax_annavg_2000_na.nc4"] = one(2)
	h.source.rasters["daymet_v3_tmax_monavg_2000_na.nc4"] = one(1)

	_, err := h.extractor(nil, domain.Taxonomy{monthlyType}, "tmax").Run(context.Background())
	require.NoError(t, err)

	want := "point number ->,10,20,30\n" +
		"tmax_200001,1.0,1.0,1.0\n" +
		"tmax_200014,2.0,2.0,2.0\n" +
		"tmax_200101,3.0,3.0,3.0\n"
	assert.Equal(t, want, readFile(t, filepath.Join(h.outDir, "MONTHLY_DAYMET_GYE_TMAX.csv")))

	wantOrder := []string{
		"daymet_v3_tmax_monavg_2000_na.nc4",
		"daymet_v3_tmax_annavg_2000_na.nc4",
		"daymet_v3_tmax_monavg_2001_na.nc4",
	}
	if diff := cmp.Diff(wantOrder, h.source.reprojects); diff != "" {
		t.Fatalf("reprojection order mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractor_Run_SkipsFailedFiles(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir,
		"Daily/prcp/daymet_v3_prcp_2001_na.nc4",
		"Daily/prcp/daymet_v3_prcp_2002_na.nc4",
		"Daily/prcp/daymet_v3_prcp_2003_na.nc4",
		"Daily/prcp/daymet_v3_prcp_na.nc4",
	)
	h.source.rasters["daymet_v3_prcp_2001_na.nc4"] = &fakeRaster{
		width: 3, height: 1,
		bands: [][]float64{{1.2345, 0, 0.5}},
	}
	h.source.errs["daymet_v3_prcp_2002_na.nc4"] = fmt.Errorf("%w: no srs", domain.ErrProjection)
	h.source.rasters["daymet_v3_prcp_2003_na.nc4"] = &fakeRaster{
		width: 2, height: 1,
		bands: [][]float64{{1, 2}},
	}

	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "prcp").Run(context.Background())
	require.NoError(t, err)

	want := "point number ->,month,year,10,20,30\n" +
		"01/01/2001,01,2001,123.5,0.0,50.0\n"
	assert.Equal(t, want, readFile(t, filepath.Join(h.outDir, "DAILY_DAYMET_GYE_PRCP.csv")))

	assert.Equal(t, 1, summary.Files())
	assert.Equal(t, 3, summary.Skipped())
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.FilesSkipped.WithLabelValues("year")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.FilesSkipped.WithLabelValues("projection")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.FilesSkipped.WithLabelValues("grid")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.FilesProcessed), 0)
}

func TestExtractor_Run_RejectsLeapYearWith365Bands(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir, "Daily/tmax/daymet_v3_tmax_2016_na.nc4")
	bands := make([][]float64, 365)
	for i := range bands {
		bands[i] = []float64{1, 2, 3}
	}
	h.source.rasters["daymet_v3_tmax_2016_na.nc4"] = &fakeRaster{width: 3, height: 1, bands: bands}

	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Rows())
	assert.Equal(t, 1, summary.Skipped())
	assert.InDelta(t, 1.0, testutil.ToFloat64(h.metrics.FilesSkipped.WithLabelValues("bands")), 0)
	assert.Equal(t, "point number ->,month,year,10,20,30\n",
		readFile(t, filepath.Join(h.outDir, "DAILY_DAYMET_GYE_TMAX.csv")))
}

func TestExtractor_Run_OneOutputPerTarget(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir,
		"Daily/tmax/daymet_v3_tmax_2001_na.nc4",
		"Monthly/prcp/daymet_v3_prcp_monttl_2001_na.nc4",
	)
	h.source.rasters["daymet_v3_tmax_2001_na.nc4"] = &fakeRaster{width: 3, height: 1, bands: [][]float64{{1, 2, 3}}}
	h.source.rasters["daymet_v3_prcp_monttl_2001_na.nc4"] = &fakeRaster{width: 3, height: 1, bands: [][]float64{{1, 2, 3}}}

	n := &recordingNotifier{err: errors.New("broker down")}
	summary, err := h.extractor(n, domain.Taxonomy{dailyType, monthlyType}, "tmax", "prcp").Run(context.Background())
	require.NoError(t, err, "notification failures are not fatal")

	var names []string
	for _, o := range summary.Outputs {
		names = append(names, filepath.Base(o.Path))
	}
	want := []string{
		"DAILY_DAYMET_GYE_TMAX.csv",
		"DAILY_DAYMET_GYE_PRCP.csv",
		"MONTHLY_DAYMET_GYE_TMAX.csv",
		"MONTHLY_DAYMET_GYE_PRCP.csv",
	}
	assert.Equal(t, want, names)
	for _, name := range want {
		assert.FileExists(t, filepath.Join(h.outDir, name))
	}

	require.Len(t, n.reports, 4)
	assert.Equal(t, "monthly", n.reports[3].DataType)
	assert.Equal(t, "prcp", n.reports[3].Parameter)
	assert.Equal(t, 1, n.reports[3].Files)
	assert.Equal(t, 1, n.reports[3].Rows)
	assert.Equal(t, 0, n.reports[2].Files)
	assert.Equal(t, "prcp_200101,100.0,200.0,300.0\n",
		readFile(t, filepath.Join(h.outDir, "MONTHLY_DAYMET_GYE_PRCP.csv"))[len("point number ->,10,20,30\n"):])
}

func TestExtractor_Run_MaskFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.source.maskErr = fmt.Errorf("%w: mask.tif", domain.ErrRasterOpen)

	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax").Run(context.Background())
	require.ErrorIs(t, err, domain.ErrRasterOpen)
	assert.Empty(t, summary.Outputs)
	assert.NoFileExists(t, filepath.Join(h.outDir, "DAILY_DAYMET_GYE_TMAX.csv"))
}

func TestExtractor_Run_MissingDataDirWritesHeaders(t *testing.T) {
	h := newHarness(t)

	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Discovered)
	assert.Equal(t, "point number ->,month,year,10,20,30\n",
		readFile(t, filepath.Join(h.outDir, "DAILY_DAYMET_GYE_TMAX.csv")))
}

func TestExtractor_Run_ContextCancellation(t *testing.T) {
	h := newHarness(t)
	touch(t, h.dataDir, "Daily/tmax/daymet_v3_tmax_2001_na.nc4")
	h.source.rasters["daymet_v3_tmax_2001_na.nc4"] = &fakeRaster{width: 3, height: 1, bands: [][]float64{{1, 2, 3}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax").Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Outputs)
	assert.Empty(t, h.source.reprojects)
	assert.InDelta(t, 0.0, testutil.ToFloat64(h.metrics.PipelineRunning), 0)
}

func TestExtractor_Run_Timestamps(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() {
		domain.SetClock(nil)
	})

	h := newHarness(t)
	summary, err := h.extractor(nil, domain.Taxonomy{dailyType}, "tmax").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fakeClock.Now(), summary.StartedAt)
	assert.Equal(t, fakeClock.Now(), summary.FinishedAt)
	require.Len(t, summary.Outputs, 1)
	assert.Equal(t, fakeClock.Now(), summary.Outputs[0].FinishedAt)
}
