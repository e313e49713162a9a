// Package catalog reads the map catalog: which background images exist,
// their geographic bounding boxes and optional projections.
//
// The catalog file is line oriented. Each non-blank line is
//
//	TAG NAME FIELD...
//
// where TAG is MAP or PROJECTION in any case:
//
//	MAP World World100.png 90 -170 -90 190
//	PROJECTION USA50 ALBER 704.0 30.8 45.5 21.86 -99.9 232 388
//
// A MAP line names the image file (relative to the catalog's directory)
// followed by top latitude, top longitude, bottom latitude and bottom
// longitude. A PROJECTION line names the projection kind followed by its
// numeric parameters. Later lines with the same tag and name replace
// earlier ones. Lines starting with '#' are comments.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gogpu/dotmap/projection"
)

// ErrNotLoaded is returned by Default before LoadDefault has succeeded.
var ErrNotLoaded = errors.New("catalog: default catalog not loaded")

// ParseError reports a malformed catalog line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog: line %d: %s", e.Line, e.Msg)
}

// MapInfo is one MAP entry.
type MapInfo struct {
	Name  string
	Image string
	Box   projection.BoundingBox
}

// ProjectionInfo is one PROJECTION entry. The kind is kept as written so
// that an unsupported kind is only reported when the projection is used.
type ProjectionInfo struct {
	Name   string
	Kind   string
	Params []float64
}

// Catalog is an immutable set of map and projection entries.
// It is safe for concurrent use.
type Catalog struct {
	// Dir is the directory image filenames are relative to.
	Dir string

	maps        map[string]MapInfo
	projections map[string]ProjectionInfo
}

// New creates a catalog from explicit entries, mainly for tests and
// embedding. Later entries replace earlier ones with the same name.
func New(dir string, maps []MapInfo, projections []ProjectionInfo) *Catalog {
	c := &Catalog{
		Dir:         dir,
		maps:        make(map[string]MapInfo, len(maps)),
		projections: make(map[string]ProjectionInfo, len(projections)),
	}
	for _, m := range maps {
		c.maps[m.Name] = m
	}
	for _, p := range projections {
		c.projections[p.Name] = p
	}
	return c
}

var upper = cases.Upper(language.Und)

// Parse reads a catalog. Image paths resolve against dir.
func Parse(r io.Reader, dir string) (*Catalog, error) {
	c := New(dir, nil, nil)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 3 {
			return nil, &ParseError{Line: line, Msg: "want TAG NAME FIELD..."}
		}
		tag, name, rest := upper.String(fields[0]), fields[1], fields[2:]

		switch tag {
		case "MAP":
			m, err := parseMap(name, rest)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			c.maps[name] = m
		case "PROJECTION":
			p, err := parseProjection(name, rest)
			if err != nil {
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			c.projections[name] = p
		default:
			return nil, &ParseError{Line: line, Msg: fmt.Sprintf("unknown tag %q", fields[0])}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	return c, nil
}

func parseMap(name string, fields []string) (MapInfo, error) {
	if len(fields) != 5 {
		return MapInfo{}, fmt.Errorf("MAP %s: want image and 4 coordinates, got %d fields", name, len(fields))
	}
	v, err := parseFloats(fields[1:])
	if err != nil {
		return MapInfo{}, fmt.Errorf("MAP %s: %w", name, err)
	}
	return MapInfo{
		Name:  name,
		Image: fields[0],
		Box:   projection.BoundingBox{TopLat: v[0], TopLon: v[1], BotLat: v[2], BotLon: v[3]},
	}, nil
}

func parseProjection(name string, fields []string) (ProjectionInfo, error) {
	v, err := parseFloats(fields[1:])
	if err != nil {
		return ProjectionInfo{}, fmt.Errorf("PROJECTION %s: %w", name, err)
	}
	return ProjectionInfo{Name: name, Kind: fields[0], Params: v}, nil
}

func parseFloats(fields []string) ([]float64, error) {
	v := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		v[i] = x
	}
	return v, nil
}

// Load reads the catalog file at path. Image paths resolve against the
// file's directory.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f, filepath.Dir(path))
}

// Map returns the MAP entry for name.
func (c *Catalog) Map(name string) (MapInfo, bool) {
	m, ok := c.maps[name]
	return m, ok
}

// Projection returns the PROJECTION entry for name.
func (c *Catalog) Projection(name string) (ProjectionInfo, bool) {
	p, ok := c.projections[name]
	return p, ok
}

// Spec returns the parsed projection configured for name, or nil if the
// map has none. Unsupported kinds fail with projection.ErrUnknownProjection.
func (c *Catalog) Spec(name string) (*projection.Spec, error) {
	p, ok := c.projections[name]
	if !ok {
		return nil, nil
	}
	spec, err := projection.ParseSpec(p.Kind, p.Params)
	if err != nil {
		return nil, fmt.Errorf("catalog: map %s: %w", name, err)
	}
	return spec, nil
}

// ImagePath returns the file path of a map's image.
func (c *Catalog) ImagePath(m MapInfo) string {
	if filepath.IsAbs(m.Image) {
		return m.Image
	}
	return filepath.Join(c.Dir, m.Image)
}

// Names returns the sorted names of all maps.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.maps))
	for name := range c.maps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of MAP entries.
func (c *Catalog) Len() int {
	return len(c.maps)
}

// ProjectionLen returns the number of PROJECTION entries.
func (c *Catalog) ProjectionLen() int {
	return len(c.projections)
}

var (
	defaultOnce sync.Once
	defaultErr  error
	defaultCat  atomic.Pointer[Catalog]
)

// LoadDefault loads the process-wide catalog from path on its first call.
// Later calls return the same result and ignore path; the catalog is
// never reloaded.
func LoadDefault(path string) (*Catalog, error) {
	defaultOnce.Do(func() {
		c, err := Load(path)
		if err != nil {
			defaultErr = err
			return
		}
		defaultCat.Store(c)
	})
	return defaultCat.Load(), defaultErr
}

// Default returns the process-wide catalog, or ErrNotLoaded if
// LoadDefault has not succeeded.
func Default() (*Catalog, error) {
	if c := defaultCat.Load(); c != nil {
		return c, nil
	}
	return nil, ErrNotLoaded
}
