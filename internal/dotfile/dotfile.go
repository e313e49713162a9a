// Package dotfile reads dot lists from CSV and YAML files and from request
// bodies, and applies them to a map.
//
// A CSV file has a header row naming any of the columns x, y, lat, lon
// (or long, longitude), zip (or zipcode) and area. Each row positions its
// dot by zip if present, then by lat/lon, then by x/y.
//
// A YAML document may additionally carry a style and layers:
//
//	map: USA
//	style:
//	  fill: red
//	dots:
//	  - {lat: 41, lon: -74, area: 300}
//	layers:
//	  - style: {fill: blue}
//	    dots:
//	      - {zip: "94704", area: 300}
//
// Layers are applied in order after the top-level dots, so each layer's
// style only affects its own dots.
package dotfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/geocode"
)

var (
	// ErrNoPosition is returned for an entry with no usable position.
	ErrNoPosition = errors.New("dotfile: entry has no position")

	// ErrUnknownType is returned by Load for unrecognised file suffixes.
	ErrUnknownType = errors.New("dotfile: unknown file type")
)

// Entry is one dot. Exactly one of Zip, Lat/Lon or X/Y positions it.
type Entry struct {
	X    *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y    *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Lat  *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	Zip  string   `json:"zip,omitempty" yaml:"zip,omitempty"`
	Area float64  `json:"area" yaml:"area"`
}

// Validate checks that the entry can be placed.
func (e Entry) Validate() error {
	switch {
	case e.Zip != "":
		return nil
	case e.Lat != nil && e.Lon != nil:
		return nil
	case e.X != nil && e.Y != nil:
		return nil
	}
	return ErrNoPosition
}

// Add queues the entry on m.
func (e Entry) Add(m *dotmap.Map) error {
	switch {
	case e.Zip != "":
		return m.AddAtZip(e.Zip, e.Area)
	case e.Lat != nil && e.Lon != nil:
		return m.AddAtLatLon(*e.Lat, *e.Lon, e.Area)
	case e.X != nil && e.Y != nil:
		return m.AddDot(*e.X, *e.Y, e.Area)
	}
	return ErrNoPosition
}

// StyleSpec overrides selected style fields. Colors accept any name
// canvas.ParseColor understands.
type StyleSpec struct {
	PointSize   *float64 `json:"point_size,omitempty" yaml:"point_size,omitempty"`
	Fill        *string  `json:"fill,omitempty" yaml:"fill,omitempty"`
	FillOpacity *float64 `json:"fill_opacity,omitempty" yaml:"fill_opacity,omitempty"`
	Stroke      *string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty"`
	AntiAlias   *bool    `json:"anti_alias,omitempty" yaml:"anti_alias,omitempty"`
}

// Merge returns base with the spec's fields applied.
func (s *StyleSpec) Merge(base dotmap.Style) (dotmap.Style, error) {
	if s == nil {
		return base, nil
	}
	out := base
	if s.PointSize != nil {
		out.PointSize = *s.PointSize
	}
	if s.Fill != nil {
		c, err := canvas.ParseColor(*s.Fill)
		if err != nil {
			return base, fmt.Errorf("fill: %w", err)
		}
		out.Fill = c
	}
	if s.FillOpacity != nil {
		out.FillOpacity = *s.FillOpacity
	}
	if s.Stroke != nil {
		c, err := canvas.ParseColor(*s.Stroke)
		if err != nil {
			return base, fmt.Errorf("stroke: %w", err)
		}
		out.Stroke = c
	}
	if s.StrokeWidth != nil {
		out.StrokeWidth = *s.StrokeWidth
	}
	if s.AntiAlias != nil {
		out.AntiAlias = *s.AntiAlias
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// Layer is a style change followed by the dots drawn with it.
type Layer struct {
	Style *StyleSpec `json:"style,omitempty" yaml:"style,omitempty"`
	Dots  []Entry    `json:"dots" yaml:"dots"`
}

// Document is a complete dot file or render request.
type Document struct {
	Map    string     `json:"map,omitempty" yaml:"map,omitempty"`
	Style  *StyleSpec `json:"style,omitempty" yaml:"style,omitempty"`
	Dots   []Entry    `json:"dots" yaml:"dots"`
	Layers []Layer    `json:"layers,omitempty" yaml:"layers,omitempty"`
}

// Len returns the number of dots across all layers.
func (d *Document) Len() int {
	n := len(d.Dots)
	for _, l := range d.Layers {
		n += len(l.Dots)
	}
	return n
}

// Validate checks every entry and reports the first bad one.
func (d *Document) Validate() error {
	check := func(where string, dots []Entry) error {
		for i, e := range dots {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", where, i, err)
			}
			if e.Area < 0 {
				return fmt.Errorf("%s[%d]: %w: %g", where, i, dotmap.ErrInvalidArea, e.Area)
			}
		}
		return nil
	}
	if err := check("dots", d.Dots); err != nil {
		return err
	}
	for i, l := range d.Layers {
		if err := check(fmt.Sprintf("layers[%d].dots", i), l.Dots); err != nil {
			return err
		}
	}
	return nil
}

// Apply sets the document's style and queues its dots on m, layer by
// layer. Dots are not rendered beyond what style changes flush.
func (d *Document) Apply(m *dotmap.Map) error {
	if err := applyLayer(m, d.Style, d.Dots); err != nil {
		return err
	}
	for i, l := range d.Layers {
		if err := applyLayer(m, l.Style, l.Dots); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

func applyLayer(m *dotmap.Map, spec *StyleSpec, dots []Entry) error {
	if spec != nil {
		s, err := spec.Merge(m.Style())
		if err != nil {
			return fmt.Errorf("style: %w", err)
		}
		if err := m.SetStyle(s); err != nil {
			return err
		}
	}
	for i, e := range dots {
		if err := e.Add(m); err != nil {
			return fmt.Errorf("dot %d: %w", i, err)
		}
	}
	return nil
}

// ParseYAML reads a YAML document.
func ParseYAML(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("dotfile: yaml: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("dotfile: %w", err)
	}
	return &d, nil
}

// ParseCSV reads a headed CSV dot list.
func ParseCSV(r io.Reader) (*Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dotfile: csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[columnName(geocode.HeaderKey(h))] = i
	}
	if _, ok := cols["area"]; !ok {
		return nil, fmt.Errorf("dotfile: csv: %w: area", geocode.ErrMissingColumn)
	}

	var d Document
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dotfile: csv: %w", err)
		}
		e, err := csvEntry(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("dotfile: csv line %d: %w", line, err)
		}
		d.Dots = append(d.Dots, e)
	}
	return &d, nil
}

func columnName(key string) string {
	switch key {
	case "long", "longitude":
		return "lon"
	case "latitude":
		return "lat"
	case "zipcode", "zip_code", "postal_code":
		return "zip"
	}
	return key
}

func csvEntry(rec []string, cols map[string]int) (Entry, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	number := func(name string) (*float64, error) {
		s := field(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad number %q", name, s)
		}
		return &v, nil
	}

	var e Entry
	area, err := number("area")
	if err != nil {
		return e, err
	}
	if area == nil {
		return e, errors.New("area is empty")
	}
	e.Area = *area
	if e.Area < 0 {
		return e, fmt.Errorf("%w: %g", dotmap.ErrInvalidArea, e.Area)
	}
	e.Zip = field("zip")
	if e.X, err = number("x"); err != nil {
		return e, err
	}
	if e.Y, err = number("y"); err != nil {
		return e, err
	}
	if e.Lat, err = number("lat"); err != nil {
		return e, err
	}
	if e.Lon, err = number("lon"); err != nil {
		return e, err
	}
	return e, e.Validate()
}

// Load reads a dot file, choosing the parser by suffix: .csv, .yaml or .yml.
func Load(path string) (*Document, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("dotfile: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, path)
	}
}
