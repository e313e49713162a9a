// Package config loads dotmap settings from defaults, an optional YAML
// file, a .env file and DOTMAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"

	"github.com/gogpu/dotmap"
	"github.com/gogpu/dotmap/canvas"
)

// Config holds all application configuration.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Render  RenderConfig  `mapstructure:"render"`
	Style   StyleConfig   `mapstructure:"style"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type GeocodeConfig struct {
	// Path is optional; without it postal code lookups always miss.
	Path       string `mapstructure:"path"`
	CodeColumn string `mapstructure:"code_column"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxDots caps the dots accepted by one render request.
	MaxDots int `mapstructure:"max_dots"`
	// ImageCache bounds the decoded map images held in memory.
	ImageCache int `mapstructure:"image_cache"`
	// BodyLimit caps request bodies, e.g. "4M".
	BodyLimit string `mapstructure:"body_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RenderConfig struct {
	HalfSide    string `mapstructure:"half_side"`
	PointMarker string `mapstructure:"point_marker"`
	Format      string `mapstructure:"format"`
}

type StyleConfig struct {
	PointSize   float64 `mapstructure:"point_size"`
	Fill        string  `mapstructure:"fill"`
	FillOpacity float64 `mapstructure:"fill_opacity"`
	Stroke      string  `mapstructure:"stroke"`
	StrokeWidth float64 `mapstructure:"stroke_width"`
	AntiAlias   bool    `mapstructure:"anti_alias"`
}

// Load reads configuration. An empty file searches for dotmap.yaml in the
// working directory and ./configs; a missing search result is not an error,
// but an explicitly named file must exist.
func Load(file string) (*Config, error) {
	_ = godotenv.Load(".env") // OK if missing

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("dotmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: DOTMAP_CATALOG_PATH → catalog.path
	v.SetEnvPrefix("DOTMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := dotmap.DefaultStyle()

	v.SetDefault("catalog.path", "maps/_info")
	v.SetDefault("geocode.path", "")
	v.SetDefault("geocode.code_column", "zipcode")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_dots", 100000)
	v.SetDefault("server.image_cache", 16)
	v.SetDefault("server.body_limit", "4M")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("render.half_side", dotmap.HalfFloor.String())
	v.SetDefault("render.point_marker", dotmap.MarkerPoint.String())
	v.SetDefault("render.format", "png")
	v.SetDefault("style.point_size", def.PointSize)
	v.SetDefault("style.fill", def.Fill.String())
	v.SetDefault("style.fill_opacity", def.FillOpacity)
	v.SetDefault("style.stroke", def.Stroke.String())
	v.SetDefault("style.stroke_width", def.StrokeWidth)
	v.SetDefault("style.anti_alias", def.AntiAlias)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.MaxDots <= 0 {
		errs = append(errs, "server.max_dots must be positive")
	}
	if c.Server.ImageCache < 0 {
		errs = append(errs, "server.image_cache must not be negative")
	}
	if n, err := bytes.Parse(c.Server.BodyLimit); err != nil || n <= 0 {
		errs = append(errs, fmt.Sprintf("server.body_limit must be a positive size such as 4M, got %q", c.Server.BodyLimit))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if _, err := c.HalfSide(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.PointMarker(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := canvas.DefaultFormats().Require(c.Render.Format, canvas.CapWrite); err != nil {
		errs = append(errs, fmt.Sprintf("render.format: %v", err))
	}
	if _, err := c.DrawStyle(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// HalfSide returns the configured half-side rounding.
func (c *Config) HalfSide() (dotmap.HalfSide, error) {
	switch strings.ToLower(c.Render.HalfSide) {
	case dotmap.HalfFloor.String():
		return dotmap.HalfFloor, nil
	case dotmap.HalfRound.String():
		return dotmap.HalfRound, nil
	}
	return 0, fmt.Errorf("render.half_side must be floor or round, got %q", c.Render.HalfSide)
}

// PointMarker returns the configured small-dot primitive.
func (c *Config) PointMarker() (dotmap.PointMarker, error) {
	switch strings.ToLower(c.Render.PointMarker) {
	case dotmap.MarkerPoint.String():
		return dotmap.MarkerPoint, nil
	case dotmap.MarkerLine.String():
		return dotmap.MarkerLine, nil
	}
	return 0, fmt.Errorf("render.point_marker must be point or line, got %q", c.Render.PointMarker)
}

// DrawStyle converts the style section into a validated dotmap.Style.
func (c *Config) DrawStyle() (dotmap.Style, error) {
	fill, err := canvas.ParseColor(c.Style.Fill)
	if err != nil {
		return dotmap.Style{}, fmt.Errorf("style.fill: %w", err)
	}
	stroke, err := canvas.ParseColor(c.Style.Stroke)
	if err != nil {
		return dotmap.Style{}, fmt.Errorf("style.stroke: %w", err)
	}
	s := dotmap.Style{
		PointSize:   c.Style.PointSize,
		Fill:        fill,
		FillOpacity: c.Style.FillOpacity,
		Stroke:      stroke,
		StrokeWidth: c.Style.StrokeWidth,
		AntiAlias:   c.Style.AntiAlias,
	}
	if err := s.Validate(); err != nil {
		return dotmap.Style{}, fmt.Errorf("style: %w", err)
	}
	return s, nil
}

// MapOptions returns the map options for the render and style sections.
// It assumes Validate has passed.
func (c *Config) MapOptions() []dotmap.Option {
	half, _ := c.HalfSide()
	marker, _ := c.PointMarker()
	style, _ := c.DrawStyle()
	return []dotmap.Option{
		dotmap.WithHalfSide(half),
		dotmap.WithPointMarker(marker),
		dotmap.WithStyle(style),
	}
}
