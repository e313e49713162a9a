package dotmap

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/internal/testutil"
	"github.com/gogpu/dotmap/projection"
)

var worldBox = projection.BoundingBox{TopLat: 90, TopLon: -180, BotLat: -90, BotLon: 180}

// testCatalog has a 360x180 world map, an Albers map and a map with an
// unsupported projection kind.
func testCatalog(dir string) *catalog.Catalog {
	return catalog.New(dir,
		[]catalog.MapInfo{
			{Name: "World", Image: "world.png", Box: worldBox},
			{Name: "usa50", Image: "usa50.png", Box: projection.BoundingBox{TopLat: 72, TopLon: -180, BotLat: 18, BotLon: -65}},
			{Name: "Mars", Image: "mars.png", Box: worldBox},
		},
		[]catalog.ProjectionInfo{
			{Name: "usa50", Kind: "ALBER", Params: []float64{704.0, 30.8, 45.5, 21.86, -99.9, 232, 388}},
			{Name: "Mars", Kind: "MERCATOR", Params: []float64{1, 2, 3}},
		})
}

// recorderMap creates a map backed by a recording canvas.
func recorderMap(t *testing.T, name string, w, h int, opts ...Option) (*Map, *testutil.Recorder) {
	t.Helper()
	rec := testutil.NewRecorder(w, h)
	opts = append([]Option{WithCatalog(testCatalog(t.TempDir())), WithCanvas(rec)}, opts...)
	m, err := New(name, opts...)
	require.NoError(t, err)
	return m, rec
}

// writeWhitePNG writes a white w x h PNG to dir/name.
func writeWhitePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	pm := canvas.NewPixmap(w, h)
	pm.Clear(canvas.White)
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, pm.ToImage()))
	require.NoError(t, f.Close())
}

// pixmapMap creates a World map loaded from a white PNG on disk.
func pixmapMap(t *testing.T, opts ...Option) *Map {
	t.Helper()
	dir := t.TempDir()
	writeWhitePNG(t, dir, "world.png", 40, 20)
	opts = append([]Option{WithCatalog(testCatalog(dir))}, opts...)
	m, err := New("World", opts...)
	require.NoError(t, err)
	require.True(t, m.HasImage())
	return m
}

func pixel(t *testing.T, m *Map, x, y int) [4]uint8 {
	t.Helper()
	pm, ok := m.Canvas().(*canvas.Pixmap)
	require.True(t, ok, "canvas is %T", m.Canvas())
	i := (y*pm.Width() + x) * 4
	d := pm.Data()
	return [4]uint8{d[i], d[i+1], d[i+2], d[i+3]}
}

// opaqueStyle paints red squares with a black border at full opacity.
func opaqueStyle() Style {
	s := DefaultStyle()
	s.Fill = canvas.Red
	s.FillOpacity = 1
	s.Stroke = canvas.Black
	return s
}

var (
	red8   = [4]uint8{255, 0, 0, 255}
	black8 = [4]uint8{0, 0, 0, 255}
	white8 = [4]uint8{255, 255, 255, 255}
)
