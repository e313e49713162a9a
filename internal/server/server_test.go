package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
	"github.com/gogpu/dotmap/internal/dotfile"
	"github.com/gogpu/dotmap/projection"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	dir := t.TempDir()

	pm := canvas.NewPixmap(36, 18)
	pm.Clear(canvas.White)
	f, err := os.Create(filepath.Join(dir, "world.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, pm.ToImage()))
	require.NoError(t, f.Close())

	world := projection.BoundingBox{TopLat: 90, TopLon: -180, BotLat: -90, BotLon: 180}
	cat := catalog.New(dir,
		[]catalog.MapInfo{
			{Name: "World", Image: "world.png", Box: world},
			{Name: "Mars", Image: "world.png", Box: world},
			{Name: "Lost", Image: "missing.png", Box: world},
		},
		[]catalog.ProjectionInfo{{Name: "Mars", Kind: "MERCATOR"}})
	zips := geocode.NewTable(geocode.Location{Code: "10996", Lat: 0, Lon: 0})
	return New(cat, zips, opts)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{Version: "test"})
	rec := do(t, s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthResponse{Status: "ok", Version: "test", Maps: 3, Geocodes: 1}, resp)
}

func TestListMaps(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/api/maps", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Maps []mapResponse `json:"maps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Maps, 3)
	assert.Equal(t, "Lost", resp.Maps[0].Name)
	assert.Equal(t, "MERCATOR", resp.Maps[1].Projection)
}

func TestGetMap(t *testing.T) {
	s := newTestServer(t, Options{})

	t.Run("found", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/maps/World", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp mapResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 36, resp.Width)
		assert.Equal(t, 18, resp.Height)
		assert.Contains(t, resp.Formats, "PNG")
		assert.NotContains(t, resp.Formats, "WEBP")
	})

	t.Run("unknown", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/maps/Atlantis", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	})

	t.Run("image missing", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/maps/Lost", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRender_PNG(t *testing.T) {
	s := newTestServer(t, Options{})
	body := `{
		"style": {"fill": "red", "fill_opacity": 1, "stroke": "black"},
		"dots": [
			{"zip": "10996", "area": 9},
			{"zip": "00000", "area": 9},
			{"x": 3, "y": 3, "area": 0}
		]
	}`
	rec := do(t, s, http.MethodPost, "/api/maps/World/render", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "2", rec.Header().Get("X-Dotmap-Dots"))
	assert.Equal(t, "1", rec.Header().Get("X-Dotmap-Zip-Misses"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	r, g, b, _ := img.At(18, 9).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}

func TestRender_Formats(t *testing.T) {
	s := newTestServer(t, Options{DefaultFormat: "bmp"})

	rec := do(t, s, http.MethodPost, "/api/maps/World/render", `{"dots": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/bmp", rec.Header().Get(echo.HeaderContentType))

	rec = do(t, s, http.MethodPost, "/api/maps/World/render?format=jpg", `{"dots": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get(echo.HeaderContentType))
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown map", "/api/maps/Atlantis/render", `{"dots": []}`, http.StatusNotFound, "NOT_FOUND"},
		{"bad json", "/api/maps/World/render", `{"dots": [`, http.StatusBadRequest, "BAD_REQUEST"},
		{"no position", "/api/maps/World/render", `{"dots": [{"area": 1}]}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"negative area", "/api/maps/World/render", `{"dots": [{"x": 1, "y": 1, "area": -1}]}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad color", "/api/maps/World/render", `{"style": {"fill": "plaid"}, "dots": []}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"write-only format", "/api/maps/World/render?format=webp", `{"dots": []}`, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"unknown format", "/api/maps/World/render?format=xcf", `{"dots": []}`, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"unknown projection", "/api/maps/Mars/render", `{"dots": [{"lat": 0, "lon": 0, "area": 1}]}`, http.StatusUnprocessableEntity, "UNKNOWN_PROJECTION"},
		{"too many dots", "/api/maps/World/render", `{"dots": [{"x": 1, "y": 1, "area": 1}, {"x": 2, "y": 2, "area": 1}, {"x": 3, "y": 3, "area": 1}]}`, http.StatusRequestEntityTooLarge, "TOO_MANY_DOTS"},
	}
	s := newTestServer(t, Options{MaxDots: 2})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestRender_BodyLimit(t *testing.T) {
	s := newTestServer(t, Options{MaxDots: 1, BodyLimit: "1K"})
	body := `{"map": "` + strings.Repeat("x", 64*1024) + `", "dots": [{"x": 1, "y": 1, "area": 1}]}`

	rec := do(t, s, http.MethodPost, "/api/maps/World/render", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "BODY_TOO_LARGE", decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/api/maps/World/render", `{"dots": [{"x": 1, "y": 1, "area": 1}]}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRender_NoGeocodeTable(t *testing.T) {
	s := New(newTestServer(t, Options{}).catalog, nil, Options{})
	rec := do(t, s, http.MethodPost, "/api/maps/World/render", `{"dots": [{"zip": "10996", "area": 4}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("X-Dotmap-Dots"))
	assert.Equal(t, "1", rec.Header().Get("X-Dotmap-Zip-Misses"))
}

func TestRender_MapOptions(t *testing.T) {
	style := dotmap.DefaultStyle()
	style.Fill = canvas.Black
	style.FillOpacity = 1
	s := newTestServer(t, Options{MapOptions: []dotmap.Option{dotmap.WithStyle(style)}})

	rec := do(t, s, http.MethodPost, "/api/maps/World/render", `{"dots": [{"x": 10, "y": 10, "area": 9}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{NewBadRequestError("bad", errors.New("cause")), http.StatusBadRequest, "BAD_REQUEST"},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		ErrorHandler(tt.err, c)
		assert.Equal(t, tt.status, rec.Code)
		assert.Equal(t, tt.code, decodeError(t, rec).Code)
	}
}

func TestListMaps_Msgpack(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/maps", nil)
	req.Header.Set(echo.HeaderAccept, mimeMsgpack)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeMsgpack, rec.Header().Get(echo.HeaderContentType))

	var resp struct {
		Maps []struct {
			Name string `msgpack:"name"`
		} `msgpack:"maps"`
	}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Maps, 3)
	assert.Equal(t, "World", resp.Maps[2].Name)
}

func TestRender_MsgpackBody(t *testing.T) {
	s := newTestServer(t, Options{})

	x, y := 5.0, 5.0
	doc := dotfile.Document{Dots: []dotfile.Entry{{X: &x, Y: &y, Area: 4}, {Zip: "10996", Area: 1}}}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	require.NoError(t, enc.Encode(doc))

	req := httptest.NewRequest(http.MethodPost, "/api/maps/World/render", &buf)
	req.Header.Set(echo.HeaderContentType, mimeMsgpack)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get("X-Dotmap-Dots"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := do(t, s, http.MethodGet, "/healthz", "")

	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	assert.NoError(t, err)
}
