// Command dotmap draws dots from a CSV or YAML file onto a catalog map.
//
//	dotmap -map USA -dots sales.csv -format png -out sales.png
//	dotmap -demo -seed 7
//	dotmap -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
	"github.com/gogpu/dotmap/catalog"
	"github.com/gogpu/dotmap/geocode"
	"github.com/gogpu/dotmap/internal/config"
	"github.com/gogpu/dotmap/internal/dotfile"
	"github.com/gogpu/dotmap/internal/logging"
)

func main() {
	var (
		configFile = flag.String("config", "", "config file (default: dotmap.yaml in . or ./configs)")
		mapName    = flag.String("map", "", "catalog map name (default: the dot file's map, then USA)")
		dotsFile   = flag.String("dots", "", "dot list, .csv or .yaml")
		format     = flag.String("format", "", "output format (default: render.format)")
		output     = flag.String("out", "", "output file (default: <map>.<format>)")
		list       = flag.Bool("list", false, "list catalog maps and exit")
		formats    = flag.Bool("formats", false, "list output formats and exit")
		demo       = flag.Bool("demo", false, "draw every geocoded postal code on the USA map")
		seed       = flag.Uint64("seed", 1, "random seed for -demo")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	dotmap.SetLogger(logging.Setup(level, cfg.Log.Format))

	if *formats {
		printFormats(os.Stdout, canvas.DefaultFormats())
		return
	}

	cat, err := catalog.LoadDefault(cfg.Catalog.Path)
	if err != nil {
		slog.Error("load catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	if *list {
		for _, n := range cat.Names() {
			fmt.Println(n)
		}
		return
	}

	var zips *geocode.Table
	if cfg.Geocode.Path != "" {
		zips, err = geocode.LoadDefault(cfg.Geocode.Path, geocode.WithCodeColumn(cfg.Geocode.CodeColumn))
		if err != nil {
			slog.Error("load geocodes", "path", cfg.Geocode.Path, "error", err)
			os.Exit(1)
		}
	}

	if *format == "" {
		*format = cfg.Render.Format
	}

	if *demo {
		if zips == nil {
			slog.Error("-demo needs geocode.path")
			os.Exit(2)
		}
		base := *output
		if base == "" {
			base = "zipcodes"
		}
		if err := writeZipcodeMaps(cfg, cat, zips, *seed, base); err != nil {
			slog.Error("demo", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *mapName, *dotsFile, *format, *output); err != nil {
		slog.Error("render", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, name, dotsFile, format, output string) error {
	doc := &dotfile.Document{}
	if dotsFile != "" {
		var err error
		if doc, err = dotfile.Load(dotsFile); err != nil {
			return err
		}
	}
	if name == "" {
		name = doc.Map
	}
	if name == "" {
		name = "USA"
	}
	if output == "" {
		output = name + "." + strings.ToLower(format)
	}

	m, err := dotmap.New(name, cfg.MapOptions()...)
	if err != nil {
		return err
	}
	if !m.HasImage() {
		return fmt.Errorf("map %q: %w", name, dotmap.ErrMissingImage)
	}
	if err := doc.Apply(m); err != nil {
		return err
	}
	if err := m.WriteFile(format, output); err != nil {
		return err
	}

	s := m.Stats()
	slog.Info("map written",
		"map", name,
		"out", output,
		"dots", s.DotsRendered,
		"zip_misses", s.ZipMisses)
	return nil
}

// zipcodeMap draws every postal code in zips on the USA map with a random
// area in {0, 1, 4, ..., 49}, then two large red dots at West Point, NY and
// Berkeley, CA.
func zipcodeMap(zips *geocode.Table, rng *rand.Rand, opts ...dotmap.Option) (*dotmap.Map, error) {
	opts = append(opts, dotmap.WithGeocodes(zips))
	m, err := dotmap.New("USA", opts...)
	if err != nil {
		return nil, err
	}
	if !m.HasImage() {
		return nil, errors.New("catalog has no USA map")
	}
	for _, code := range zips.Codes() {
		n := float64(rng.IntN(8))
		if err := m.AddAtZip(code, n*n); err != nil {
			return nil, err
		}
	}
	if err := m.SetFill(canvas.Red); err != nil {
		return nil, err
	}
	if err := m.SetFillOpacity(1); err != nil {
		return nil, err
	}
	if err := m.AddAtLatLon(41, -74, 300); err != nil {
		return nil, err
	}
	if err := m.AddAtLatLon(38, -122, 300); err != nil {
		return nil, err
	}
	return m, nil
}

func writeZipcodeMaps(cfg *config.Config, cat *catalog.Catalog, zips *geocode.Table, seed uint64, base string) error {
	rng := rand.New(rand.NewPCG(seed, seed))
	opts := append(cfg.MapOptions(), dotmap.WithCatalog(cat))
	m, err := zipcodeMap(zips, rng, opts...)
	if err != nil {
		return err
	}

	data, err := m.Convert("png")
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+".png", data, 0o644); err != nil {
		return err
	}
	if err := m.WriteFile("jpg", base+".jpg"); err != nil {
		return err
	}
	slog.Info("demo written", "png", base+".png", "jpg", base+".jpg", "dots", m.Stats().DotsRendered)
	return nil
}

func printFormats(w io.Writer, t canvas.FormatTable) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tMIME\tBLOB\tWRITE\tREAD")
	for _, name := range slices.Sorted(maps.Keys(t)) {
		f := t[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.MIME,
			yesNo(f.Can(canvas.CapBlob)), yesNo(f.Can(canvas.CapWrite)), yesNo(f.Can(canvas.CapRead)))
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
