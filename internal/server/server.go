// Package server exposes map rendering over HTTP.
package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
	"github.com/gogpu/dotmap/internal/dotfile"
	"github.com/gogpu/dotmap/internal/metrics"
	"github.com/gogpu/dotmap/projection"
)

// Options configures a Server.
type Options struct {
	// MaxDots caps the dots in one render request. Zero means no limit.
	MaxDots int
	// DefaultFormat is used when a render request names no format.
	DefaultFormat string
	// MapOptions are applied to every map before the request's own style.
	MapOptions []dotmap.Option
	// ImageCache bounds the decoded base images kept in memory.
	// Zero keeps every image.
	ImageCache int
	// BodyLimit caps request bodies, in echo's size syntax ("4M").
	// Empty means DefaultBodyLimit.
	BodyLimit string
	Version   string
}

// DefaultBodyLimit is the request body cap used when Options.BodyLimit is
// empty.
const DefaultBodyLimit = "4M"

// Server renders dot maps on request. Every request gets its own Map;
// decoded base images are shared through a caching loader.
type Server struct {
	catalog  *catalog.Catalog
	geocodes *geocode.Table
	loader   *canvas.CachingLoader
	opts     Options
	echo     *echo.Echo
}

// New creates a server over a catalog and an optional geocode table.
func New(cat *catalog.Catalog, zips *geocode.Table, opts Options) *Server {
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = "png"
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = DefaultBodyLimit
	}
	s := &Server{
		catalog:  cat,
		geocodes: zips,
		loader:   canvas.NewCachingLoader(opts.ImageCache),
		opts:     opts,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.BodyLimit(opts.BodyLimit))

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", metrics.Handler())

	maps := e.Group("/api/maps")
	maps.GET("", s.handleListMaps)
	maps.GET("/:name", s.handleGetMap)
	maps.POST("/:name/render", s.handleRender)

	s.echo = e
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Maps     int    `json:"maps"`
	Geocodes int    `json:"geocodes"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok", Version: s.opts.Version, Maps: s.catalog.Len()}
	if s.geocodes != nil {
		resp.Geocodes = s.geocodes.Len()
	}
	return c.JSON(http.StatusOK, resp)
}

type mapResponse struct {
	Name       string                 `json:"name"`
	Image      string                 `json:"image"`
	Box        projection.BoundingBox `json:"box"`
	Projection string                 `json:"projection,omitempty"`
	Width      int                    `json:"width,omitempty"`
	Height     int                    `json:"height,omitempty"`
	Formats    []string               `json:"formats,omitempty"`
}

func (s *Server) describe(info catalog.MapInfo) mapResponse {
	resp := mapResponse{Name: info.Name, Image: info.Image, Box: info.Box}
	if p, ok := s.catalog.Projection(info.Name); ok {
		resp.Projection = p.Kind
	}
	return resp
}

func (s *Server) handleListMaps(c echo.Context) error {
	names := s.catalog.Names()
	out := make([]mapResponse, 0, len(names))
	for _, n := range names {
		info, _ := s.catalog.Map(n)
		out = append(out, s.describe(info))
	}
	body := map[string]any{"maps": out}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(body); err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, buf.Bytes())
	}
	return c.JSON(http.StatusOK, body)
}

const mimeMsgpack = "application/msgpack"

// bindDocument decodes a JSON or MessagePack render request.
func bindDocument(c echo.Context, doc *dotfile.Document) error {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, mimeMsgpack) {
		return c.Bind(doc)
	}
	dec := msgpack.NewDecoder(c.Request().Body)
	dec.SetCustomStructTag("json")
	return dec.Decode(doc)
}

func (s *Server) handleGetMap(c echo.Context) error {
	name := c.Param("name")
	info, ok := s.catalog.Map(name)
	if !ok {
		return NewNotFoundError("map", name)
	}

	cv, err := s.loader.Load(s.catalog.ImagePath(info))
	if err != nil {
		return NewInternalError("failed to load map image", err)
	}
	metrics.CachedImages.Set(float64(s.loader.Len()))

	resp := s.describe(info)
	resp.Width, resp.Height = cv.Width(), cv.Height()
	resp.Formats = cv.Formats().Names(canvas.CapBlob)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRender(c echo.Context) error {
	name := c.Param("name")
	if _, ok := s.catalog.Map(name); !ok {
		return NewNotFoundError("map", name)
	}

	var doc dotfile.Document
	if err := bindDocument(c, &doc); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := doc.Validate(); err != nil {
		return renderError(err)
	}
	if s.opts.MaxDots > 0 && doc.Len() > s.opts.MaxDots {
		return &APIError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    "TOO_MANY_DOTS",
			Message: fmt.Sprintf("request has %d dots, limit is %d", doc.Len(), s.opts.MaxDots),
		}
	}

	format := c.QueryParam("format")
	if format == "" {
		format = s.opts.DefaultFormat
	}

	start := time.Now()
	geo := dotmap.WithGeocodes(s.geocodes)
	if s.geocodes == nil {
		geo = dotmap.WithoutGeocodes()
	}
	opts := append([]dotmap.Option{
		dotmap.WithCatalog(s.catalog),
		geo,
		dotmap.WithLoader(s.loader),
	}, s.opts.MapOptions...)
	m, err := dotmap.New(name, opts...)
	if err != nil {
		return NewInternalError("failed to load map", err)
	}
	metrics.CachedImages.Set(float64(s.loader.Len()))

	// Check the format before queueing any work.
	info, err := m.Formats().Require(format, canvas.CapBlob)
	if err != nil {
		return renderError(err)
	}
	if err := doc.Apply(m); err != nil {
		return renderError(err)
	}
	data, err := m.Convert(format)
	if err != nil {
		return renderError(err)
	}

	metrics.ObserveMap(m)
	metrics.EncodeDuration.WithLabelValues(info.Name).Observe(time.Since(start).Seconds())
	slog.Debug("map rendered",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"map", name,
		"format", info.Name,
		"dots", m.Stats().DotsRendered,
		"zip_misses", m.Stats().ZipMisses,
		"bytes", len(data))

	c.Response().Header().Set("X-Dotmap-Dots", fmt.Sprint(m.Stats().DotsRendered))
	c.Response().Header().Set("X-Dotmap-Zip-Misses", fmt.Sprint(m.Stats().ZipMisses))
	return c.Blob(http.StatusOK, info.MIME, data)
}
