// Package geocode maps postal codes to coordinates.
//
// Tables are read from CSV files with a header row, such as the
// federalgovernmentzipcodes.us export:
//
//	"Zipcode","ZipCodeType","City","State","LocationType","Lat","Long",...
//
// Header names are normalized to snake case ("ZipCodeType" becomes
// "zip_code_type") before columns are matched. Rows whose latitude or
// longitude is missing or not a number are left out of the table.
package geocode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("geocode: missing column")

	// ErrNotLoaded is returned by Default before LoadDefault has succeeded.
	ErrNotLoaded = errors.New("geocode: default table not loaded")
)

// Location is one geocoded postal code.
type Location struct {
	Code string
	Lat  float64
	Lon  float64

	// Fields holds the remaining columns keyed by normalized header name.
	Fields map[string]string
}

// Table is an immutable postal code lookup table.
// It is safe for concurrent use.
type Table struct {
	locs map[string]Location
}

// NewTable builds a table from explicit locations. Later duplicates win.
func NewTable(locs ...Location) *Table {
	t := &Table{locs: make(map[string]Location, len(locs))}
	for _, l := range locs {
		t.locs[l.Code] = l
	}
	return t
}

// Lookup returns the location for a postal code.
func (t *Table) Lookup(code string) (Location, bool) {
	l, ok := t.locs[code]
	return l, ok
}

// Len returns the number of postal codes.
func (t *Table) Len() int {
	return len(t.locs)
}

// Codes returns all postal codes in ascending order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.locs))
	for c := range t.locs {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

type options struct {
	code string
	lat  []string
	lon  []string
}

// Option configures column matching.
type Option func(*options)

// WithCodeColumn sets the normalized name of the postal code column.
// The default is "zipcode".
func WithCodeColumn(name string) Option {
	return func(o *options) { o.code = HeaderKey(name) }
}

// WithCoordinateColumns sets the normalized names of the latitude and
// longitude columns. The defaults are "lat"/"latitude" and
// "long"/"lon"/"longitude".
func WithCoordinateColumns(lat, lon string) Option {
	return func(o *options) {
		o.lat = []string{HeaderKey(lat)}
		o.lon = []string{HeaderKey(lon)}
	}
}

func defaultOptions() options {
	return options{
		code: "zipcode",
		lat:  []string{"lat", "latitude"},
		lon:  []string{"long", "lon", "longitude"},
	}
}

// Parse reads a CSV geocode table.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("geocode: read header: %w", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = HeaderKey(h)
	}

	codeCol := slices.Index(keys, o.code)
	if codeCol < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, o.code)
	}
	latCol := indexAny(keys, o.lat)
	if latCol < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, o.lat[0])
	}
	lonCol := indexAny(keys, o.lon)
	if lonCol < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, o.lon[0])
	}

	t := NewTable()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("geocode: %w", err)
		}
		loc, ok := parseRow(rec, keys, codeCol, latCol, lonCol)
		if ok {
			t.locs[loc.Code] = loc
		}
	}
	return t, nil
}

func parseRow(rec, keys []string, codeCol, latCol, lonCol int) (Location, bool) {
	if codeCol >= len(rec) || latCol >= len(rec) || lonCol >= len(rec) {
		return Location{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[latCol]), 64)
	if err != nil {
		return Location{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[lonCol]), 64)
	if err != nil {
		return Location{}, false
	}
	loc := Location{Code: rec[codeCol], Lat: lat, Lon: lon, Fields: make(map[string]string)}
	for i, v := range rec {
		if i == codeCol || i == latCol || i == lonCol || i >= len(keys) || v == "" {
			continue
		}
		loc.Fields[keys[i]] = v
	}
	return loc, true
}

func indexAny(keys, names []string) int {
	for _, n := range names {
		if i := slices.Index(keys, n); i >= 0 {
			return i
		}
	}
	return -1
}

var (
	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// HeaderKey converts a CSV header to snake case:
// "ZipCodeType" -> "zip_code_type", "HTTPServer" -> "http_server",
// "tax-returns" -> "tax_returns".
func HeaderKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "::", "/")
	s = acronymBoundary.ReplaceAllString(s, "${1}_${2}")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToLower(s)
}

// Load reads the CSV geocode table at path.
func Load(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("geocode: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultErr   error
	defaultTable atomic.Pointer[Table]
)

// LoadDefault loads the process-wide table from path on its first call.
// Later calls return the same result and ignore their arguments.
// Large tables take a while to parse, so this is typically called once at
// startup.
func LoadDefault(path string, opts ...Option) (*Table, error) {
	defaultOnce.Do(func() {
		t, err := Load(path, opts...)
		if err != nil {
			defaultErr = err
			return
		}
		defaultTable.Store(t)
	})
	return defaultTable.Load(), defaultErr
}

// Default returns the process-wide table, or ErrNotLoaded if LoadDefault
// has not succeeded.
func Default() (*Table, error) {
	if t := defaultTable.Load(); t != nil {
		return t, nil
	}
	return nil, ErrNotLoaded
}
