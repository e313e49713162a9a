package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/catalog"
)

func TestMiddleware_RecordsStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "no")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/fail", "418"))

	for _, path := range []string{"/ok", "/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/fail", "418"))
	assert.Equal(t, 1.0, after-before)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/ok", "200")), 1.0)
}

func TestMiddleware_SwallowsHandledError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := Middleware()(func(echo.Context) error { return errors.New("boom") })(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, c.Response().Status)
}

func TestHandler_ServesMetrics(t *testing.T) {
	CachedImages.Set(3)

	e := echo.New()
	e.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dotmap_cache_images 3")
}

func TestObserveMap(t *testing.T) {
	m, err := dotmap.New("Nowhere", dotmap.WithCatalog(catalog.New("", nil, nil)))
	require.NoError(t, err)
	require.NoError(t, m.AddAtZip("00000", 1))

	before := testutil.ToFloat64(ZipMisses.WithLabelValues("Nowhere"))
	ObserveMap(m)
	assert.Equal(t, 1.0, testutil.ToFloat64(ZipMisses.WithLabelValues("Nowhere"))-before)
}
