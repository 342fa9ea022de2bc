package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlConfig = `
[window]
title = "test"
width = 800

[orbit]
sensitivity = 0.02

[scene.direction]
phi = 1.0
theta = 0.5

[renderer]
present_mode = "uncapped"
msaa = 1
clear_color = [0.1, 0.2, 0.3, 1.0]

[log]
level = "debug"
`

const yamlConfig = `
window:
  height: 600
camera:
  eye: [1, 2, 3]
  fov_degrees: 60
overlay:
  enabled: false
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, [3]float32{0, 0, 5}, cfg.Camera.Eye)
	assert.Equal(t, [4]float32{0, 0, 1, 0}, cfg.Camera.Orientation)
	assert.Equal(t, common.DefaultDirection(), cfg.Scene.Direction)
	assert.Equal(t, float32(0.5), cfg.Scene.CubeHalfExtent)
	assert.InDelta(t, 0.7853982, cfg.Camera.FovRadians(), 1e-6)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "viewer.toml", tomlConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "absent fields keep defaults")
	assert.Equal(t, float32(0.02), cfg.Orbit.Sensitivity)
	assert.Equal(t, common.SphericalDirection{Phi: 1, Theta: 0.5}, cfg.Scene.Direction)
	assert.Equal(t, "uncapped", cfg.Renderer.PresentMode)
	assert.Equal(t, uint32(1), cfg.Renderer.MSAA)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"viewer.yaml", "viewer.yml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, dir, name, yamlConfig))
			require.NoError(t, err)
			assert.Equal(t, 600, cfg.Window.Height)
			assert.Equal(t, 1280, cfg.Window.Width)
			assert.Equal(t, [3]float32{1, 2, 3}, cfg.Camera.Eye)
			assert.Equal(t, float32(60), cfg.Camera.FovDegrees)
			assert.False(t, cfg.Overlay.Enabled)
			assert.True(t, cfg.Window.Resizable)
		})
	}
}

func TestDecodeEmptyKeepsDefaults(t *testing.T) {
	for _, ext := range []string{"toml", ".yaml"} {
		cfg, err := Decode(nil, ext)
		require.NoError(t, err, ext)
		assert.Equal(t, Default(), cfg, ext)
	}
}

func TestDecodeRejectsUnknownKeysAndFormats(t *testing.T) {
	_, err := Decode([]byte("[window]\ncolour = 1\n"), "toml")
	assert.Error(t, err)

	_, err = Decode([]byte("window:\n  colour: 1\n"), "yaml")
	assert.Error(t, err)

	_, err = Decode([]byte("{}"), "json")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"fov too wide", func(c *Config) { c.Camera.FovDegrees = 180 }},
		{"near not positive", func(c *Config) { c.Camera.Near = 0 }},
		{"far before near", func(c *Config) { c.Camera.Far = 0.05 }},
		{"zero orientation", func(c *Config) { c.Camera.Orientation = [4]float32{} }},
		{"zero sensitivity", func(c *Config) { c.Orbit.Sensitivity = 0 }},
		{"phi out of range", func(c *Config) { c.Scene.Direction.Phi = -1 }},
		{"theta out of range", func(c *Config) { c.Scene.Direction.Theta = 2 }},
		{"gnomon size", func(c *Config) { c.Scene.GnomonSize = 0 }},
		{"cube extent", func(c *Config) { c.Scene.CubeHalfExtent = -1 }},
		{"present mode", func(c *Config) { c.Renderer.PresentMode = "mailbox" }},
		{"msaa", func(c *Config) { c.Renderer.MSAA = 2 }},
		{"clear color", func(c *Config) { c.Renderer.ClearColor[1] = 1.5 }},
		{"font size", func(c *Config) { c.Overlay.FontSize = 0 }},
		{"overlay width", func(c *Config) { c.Overlay.Width = 4 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), common.ErrInvalidConfig)
		})
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.toml", "[orbit]\nsensitivity = -1\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)

	path := writeFile(t, t.TempDir(), "viewer.toml", tomlConfig)
	cfg, found, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "test", cfg.Window.Title)
}

func TestWatcherReportsRewrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "viewer.toml", "[orbit]\nsensitivity = 0.01\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	_, changed, err := w.Poll()
	require.NoError(t, err)
	assert.False(t, changed)

	writeFile(t, dir, "other.toml", "ignored = true\n")
	writeFile(t, dir, "viewer.toml", "[orbit]\nsensitivity = 0.05\n")

	var got Config
	require.Eventually(t, func() bool {
		cfg, changed, err := w.Poll()
		if !changed || err != nil {
			return false
		}
		got = cfg
		return cfg.Orbit.Sensitivity == 0.05
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, float32(0.05), got.Orbit.Sensitivity)
}

func TestWatcherPollDoesNotBlock(t *testing.T) {
	path := writeFile(t, t.TempDir(), "viewer.toml", "")
	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	done := make(chan struct{})
	go func() {
		w.Poll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll blocked")
	}
}
