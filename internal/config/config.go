// Package config loads the tracker's tunable parameters with viper.
//
// Values come from built-in defaults, an optional config file (JSON, YAML or
// TOML by extension) and TAGTRACK_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/tag-tracker/internal/imaging"
)

// EnvPrefix is prepended to every environment override, e.g. TAGTRACK_TAGSIZE.
const EnvPrefix = "TAGTRACK"

// Profile names for the head and tail-base tags.
const (
	ProfileRed  = "red"
	ProfileBlue = "blue"
	ProfileTail = "tail"
)

// DefaultBlueSessions lists the sessions recorded with a blue head tag.
var DefaultBlueSessions = []string{
	"286_Sh_2", "287_NE_2", "288_Sh_2", "289_Sh_2", "290_Sh_2", "291_Sh_1",
	"292_Sh_1", "293_Sh_1", "294_Sh_1", "295_NE_1", "296_NE_1", "297_Sh_1",
	"298_Sh_2", "299_Sh_1", "300_NE_1", "301_NE_1", "302_NE_2", "303_NE_2",
	"304_NE_2", "305_NE_2", "306_Sh_0", "306_Sh_1", "307_Sh_1",
}

// HSVBounds is the on-disk form of a color profile: two [h,s,v] triples.
type HSVBounds struct {
	Min []int `mapstructure:"min"`
	Max []int `mapstructure:"max"`
}

// Range converts the triples to an imaging.HSVRange.
func (b HSVBounds) Range() (imaging.HSVRange, error) {
	if len(b.Min) != 3 || len(b.Max) != 3 {
		return imaging.HSVRange{}, fmt.Errorf("hsv bounds need three values each, got %v and %v", b.Min, b.Max)
	}
	r := imaging.HSVRange{
		Min: imaging.HSV{H: b.Min[0], S: b.Min[1], V: b.Min[2]},
		Max: imaging.HSV{H: b.Max[0], S: b.Max[1], V: b.Max[2]},
	}
	return r, r.Validate()
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// CheckpointConfig holds the SQLite autosave settings
type CheckpointConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty means <session dir>.ckpt.db
}

// PreviewConfig holds annotated preview settings
type PreviewConfig struct {
	Scale float64 `mapstructure:"scale"`
}

// Config is the full configuration surface.
type Config struct {
	TagSize                int                    `mapstructure:"tagSize"`
	FrameRate              int                    `mapstructure:"frameRate"`
	FrameGlob              string                 `mapstructure:"frameGlob"`
	FrameNameFormat        string                 `mapstructure:"frameNameFormat"`
	SessionIDLength        int                    `mapstructure:"sessionIdLength"`
	Arena                  []int                  `mapstructure:"arena"`
	FallbackLeftMargin     int                    `mapstructure:"fallbackLeftMargin"`
	SearchMultiplier       float64                `mapstructure:"searchMultiplier"`
	ContourThreshold       int                    `mapstructure:"contourThreshold"`
	OutlierMultiplier      float64                `mapstructure:"outlierMultiplier"`
	NoiseFloor             float64                `mapstructure:"noiseFloor"`
	WalkAngle              float64                `mapstructure:"walkAngle"`
	HaltOnDetectionFailure bool                   `mapstructure:"haltOnDetectionFailure"`
	Profiles               map[string]HSVBounds   `mapstructure:"profiles"`
	BlueSessions           []string               `mapstructure:"blueSessions"`
	Cleanup                imaging.CleanupOptions `mapstructure:"cleanup"`
	Log                    LogConfig              `mapstructure:"log"`
	Checkpoint             CheckpointConfig       `mapstructure:"checkpoint"`
	Preview                PreviewConfig          `mapstructure:"preview"`
}

// setDefaults registers every default on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("tagSize", 10)
	v.SetDefault("frameRate", 60)
	v.SetDefault("frameGlob", "*.jpg")
	v.SetDefault("frameNameFormat", "f%06d.jpg")
	v.SetDefault("sessionIdLength", 8)
	v.SetDefault("arena", []int{215, 70, 788, 476})
	v.SetDefault("fallbackLeftMargin", 50)
	v.SetDefault("searchMultiplier", 1.5)
	v.SetDefault("contourThreshold", 1)
	v.SetDefault("outlierMultiplier", 3.0)
	v.SetDefault("noiseFloor", 0.0)
	v.SetDefault("walkAngle", 45.0)
	v.SetDefault("haltOnDetectionFailure", true)

	v.SetDefault("profiles.red.min", []int{175, 100, 90})
	v.SetDefault("profiles.red.max", []int{180, 255, 255})
	v.SetDefault("profiles.blue.min", []int{110, 50, 50})
	v.SetDefault("profiles.blue.max", []int{120, 255, 255})
	v.SetDefault("profiles.tail.min", []int{50, 75, 75})
	v.SetDefault("profiles.tail.max", []int{70, 255, 255})
	v.SetDefault("blueSessions", DefaultBlueSessions)

	v.SetDefault("cleanup.enabled", false)
	v.SetDefault("cleanup.blur", 0.0)
	v.SetDefault("cleanup.dilate", 2.0)
	v.SetDefault("cleanup.erode", 2.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("checkpoint.enabled", false)
	v.SetDefault("checkpoint.path", "")

	v.SetDefault("preview.scale", 0.5)
}

// Load reads configuration from path (if non-empty), applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the configuration for values the tracker cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.TagSize <= 0 {
		errs = append(errs, fmt.Errorf("tagSize must be positive, got %d", c.TagSize))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frameRate must be positive, got %d", c.FrameRate))
	}
	if c.SessionIDLength <= 0 {
		errs = append(errs, fmt.Errorf("sessionIdLength must be positive, got %d", c.SessionIDLength))
	}
	if !strings.Contains(c.FrameNameFormat, "%") {
		errs = append(errs, fmt.Errorf("frameNameFormat %q has no index verb", c.FrameNameFormat))
	}
	if _, err := c.ArenaRect(); err != nil {
		errs = append(errs, err)
	}
	for _, name := range []string{ProfileRed, ProfileBlue, ProfileTail} {
		b, ok := c.Profiles[name]
		if !ok {
			errs = append(errs, fmt.Errorf("profile %q missing", name))
			continue
		}
		if _, err := b.Range(); err != nil {
			errs = append(errs, fmt.Errorf("profile %q: %w", name, err))
		}
	}
	if c.OutlierMultiplier <= 0 || c.SearchMultiplier <= 0 {
		errs = append(errs, errors.New("outlierMultiplier and searchMultiplier must be positive"))
	}
	if c.WalkAngle < 0 || c.WalkAngle > 180 {
		errs = append(errs, fmt.Errorf("walkAngle must be within 0-180, got %v", c.WalkAngle))
	}
	return errors.Join(errs...)
}

// ArenaRect returns the arena rectangle as inclusive corners.
func (c *Config) ArenaRect() (imaging.Rect, error) {
	if len(c.Arena) != 4 {
		return imaging.Rect{}, fmt.Errorf("arena needs four values x1,y1,x2,y2, got %v", c.Arena)
	}
	r := imaging.Rect{X1: c.Arena[0], Y1: c.Arena[1], X2: c.Arena[2], Y2: c.Arena[3]}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return imaging.Rect{}, fmt.Errorf("arena %s must have x1<x2 and y1<y2", r)
	}
	return r, nil
}

// Profile returns the HSV range for a named profile. Callers should have
// validated the config first.
func (c *Config) Profile(name string) imaging.HSVRange {
	r, _ := c.Profiles[name].Range()
	return r
}

// EffectiveNoiseFloor returns the configured noise floor, or tagSize/2 when
// it is unset.
func (c *Config) EffectiveNoiseFloor() float64 {
	if c.NoiseFloor > 0 {
		return c.NoiseFloor
	}
	return float64(c.TagSize / 2)
}
