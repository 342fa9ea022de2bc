// Package config loads the viewer configuration from TOML or YAML files and watches them for
// changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/charmbracelet/log"
	"github.com/chewxy/math32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the viewer looks for its configuration when no path is given.
const DefaultPath = "config/viewer.toml"

// Config is the complete viewer configuration. Fields absent from a file keep their defaults.
type Config struct {
	Window   WindowConfig   `toml:"window" yaml:"window"`
	Camera   CameraConfig   `toml:"camera" yaml:"camera"`
	Orbit    OrbitConfig    `toml:"orbit" yaml:"orbit"`
	Scene    SceneConfig    `toml:"scene" yaml:"scene"`
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Overlay  OverlayConfig  `toml:"overlay" yaml:"overlay"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// WindowConfig sizes and titles the window.
type WindowConfig struct {
	Title     string `toml:"title" yaml:"title"`
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	Resizable bool   `toml:"resizable" yaml:"resizable"`
}

// CameraConfig places the fixed camera. Orientation is a quaternion in w, x, y, z order.
type CameraConfig struct {
	Eye         [3]float32 `toml:"eye" yaml:"eye"`
	Orientation [4]float32 `toml:"orientation" yaml:"orientation"`
	Up          [3]float32 `toml:"up" yaml:"up"`
	FovDegrees  float32    `toml:"fov_degrees" yaml:"fov_degrees"`
	Near        float32    `toml:"near" yaml:"near"`
	Far         float32    `toml:"far" yaml:"far"`
}

// OrbitConfig tunes pointer dragging. Sensitivity is in radians per pixel and is applied live.
type OrbitConfig struct {
	Sensitivity float32 `toml:"sensitivity" yaml:"sensitivity"`
}

// SceneConfig sizes the meshes and sets the starting orientation.
type SceneConfig struct {
	Direction      common.SphericalDirection `toml:"direction" yaml:"direction"`
	GnomonSize     float32                   `toml:"gnomon_size" yaml:"gnomon_size"`
	CubeHalfExtent float32                   `toml:"cube_half_extent" yaml:"cube_half_extent"`
}

// RendererConfig selects presentation options. ClearColor is RGBA in [0, 1] and is applied live.
type RendererConfig struct {
	PresentMode      string     `toml:"present_mode" yaml:"present_mode"`
	MSAA             uint32     `toml:"msaa" yaml:"msaa"`
	ClearColor       [4]float64 `toml:"clear_color" yaml:"clear_color"`
	SoftwareFallback bool       `toml:"software_fallback" yaml:"software_fallback"`
}

// OverlayConfig places the control panel.
type OverlayConfig struct {
	Enabled  bool    `toml:"enabled" yaml:"enabled"`
	X        float32 `toml:"x" yaml:"x"`
	Y        float32 `toml:"y" yaml:"y"`
	Width    float32 `toml:"width" yaml:"width"`
	FontSize float64 `toml:"font_size" yaml:"font_size"`
}

// LogConfig sets the log level ("debug", "info", "warn", "error"). Applied live.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "oxy-viewer",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Camera: CameraConfig{
			Eye: [3]float32{0, 0, 5},
			// 180 degrees about +Y: the +Z forward axis looks back at the origin
			Orientation: [4]float32{0, 0, 1, 0},
			Up:          [3]float32{0, 1, 0},
			FovDegrees:  45,
			Near:        0.1,
			Far:         100,
		},
		Orbit: OrbitConfig{
			Sensitivity: 0.01,
		},
		Scene: SceneConfig{
			Direction:      common.DefaultDirection(),
			GnomonSize:     1,
			CubeHalfExtent: 0.5,
		},
		Renderer: RendererConfig{
			PresentMode: "vsync",
			MSAA:        4,
			ClearColor:  [4]float64{0, 0, 0, 1},
		},
		Overlay: OverlayConfig{
			Enabled:  true,
			X:        10,
			Y:        10,
			Width:    200,
			FontSize: 14,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path on top of Default and validates the result. The format is chosen by
// extension: .toml, or .yaml / .yml.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the loaded configuration
//   - error: a read, decode or validation error; validation errors wrap common.ErrInvalidConfig
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the loaded or default configuration
//   - bool: true if the file was found
//   - error: any error other than a missing file
func LoadOrDefault(path string) (Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// Decode parses data in the format named by ext on top of Default and validates the result.
// Unknown keys are rejected.
//
// Parameters:
//   - data: the encoded config
//   - ext: the file extension, with or without the leading dot
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode or validation error
func Decode(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// an empty document leaves the defaults in place
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", common.ErrInvalidConfig, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its allowed range.
//
// Returns:
//   - error: all violations joined, each wrapping common.ErrInvalidConfig
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{common.ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d must be positive", c.Window.Width, c.Window.Height)

	check(c.Camera.FovDegrees > 0 && c.Camera.FovDegrees < 180, "camera.fov_degrees %v must be in (0, 180)", c.Camera.FovDegrees)
	check(c.Camera.Near > 0, "camera.near %v must be positive", c.Camera.Near)
	check(c.Camera.Far > c.Camera.Near, "camera.far %v must exceed near %v", c.Camera.Far, c.Camera.Near)
	q := c.Camera.Orientation
	check(q[0]*q[0]+q[1]*q[1]+q[2]*q[2]+q[3]*q[3] > 0, "camera.orientation must not be zero")

	check(c.Orbit.Sensitivity > 0, "orbit.sensitivity %v must be positive", c.Orbit.Sensitivity)

	d := c.Scene.Direction
	check(d.Phi >= common.PhiMin && d.Phi <= common.PhiMax, "scene.direction.phi %v must be in [0, 2π]", d.Phi)
	check(d.Theta >= common.ThetaMin && d.Theta <= common.ThetaMax, "scene.direction.theta %v must be in [-π/2, π/2]", d.Theta)
	check(c.Scene.GnomonSize > 0, "scene.gnomon_size %v must be positive", c.Scene.GnomonSize)
	check(c.Scene.CubeHalfExtent > 0, "scene.cube_half_extent %v must be positive", c.Scene.CubeHalfExtent)

	switch strings.ToLower(c.Renderer.PresentMode) {
	case "vsync", "fifo", "uncapped", "immediate":
	default:
		check(false, "renderer.present_mode %q must be vsync or uncapped", c.Renderer.PresentMode)
	}
	switch c.Renderer.MSAA {
	case 1, 4, 8, 16:
	default:
		check(false, "renderer.msaa %d must be 1, 4, 8 or 16", c.Renderer.MSAA)
	}
	for i, v := range c.Renderer.ClearColor {
		check(v >= 0 && v <= 1, "renderer.clear_color[%d] %v must be in [0, 1]", i, v)
	}

	check(c.Overlay.FontSize > 0, "overlay.font_size %v must be positive", c.Overlay.FontSize)
	check(c.Overlay.Width > 16, "overlay.width %v is too narrow", c.Overlay.Width)

	_, err := log.ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q is not a level", c.Log.Level)

	return errors.Join(errs...)
}

// FovRadians returns the camera field of view in radians.
func (c CameraConfig) FovRadians() float32 {
	return c.FovDegrees * math32.Pi / 180
}
