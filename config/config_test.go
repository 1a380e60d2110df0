package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Greater(t, cfg.Field.Width, 2)
	require.Greater(t, cfg.Field.Height, 2)
	require.Greater(t, cfg.Field.Overcorrection, 0.0)
	require.True(t, cfg.Field.DownwardAttraction)

	require.InDelta(t, float64(cfg.Field.Width)*cfg.Field.CellSize, float64(cfg.Derived.WorldW32), 1e-3)
	require.InDelta(t, float64(cfg.Field.Height)*cfg.Field.CellSize, float64(cfg.Derived.WorldH32), 1e-3)
	require.Equal(t, float32(cfg.Physics.DT), cfg.Derived.DT32)
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	defaults, err := Load("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("field:\n  width: 9\nphysics:\n  gain: 12.5\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Field.Width)
	require.Equal(t, 12.5, cfg.Physics.Gain)
	require.Equal(t, defaults.Field.Height, cfg.Field.Height)
	require.Equal(t, defaults.Field.Overcorrection, cfg.Field.Overcorrection)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"small grid":      "field:\n  width: 2\n",
		"zero factor":     "field:\n  overcorrection: 0\n",
		"negative sweeps": "field:\n  sweeps_per_tick: -1\n",
		"zero dt":         "physics:\n  dt: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "reading config file")
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Field.SweepsPerTick = 4

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, back.Field.SweepsPerTick)
	require.Equal(t, cfg.Scenario.Attractors, back.Scenario.Attractors)
}

func TestInitAndCfg(t *testing.T) {
	require.NoError(t, Init(""))
	require.NotNil(t, Cfg())
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physics:\n  gain: 1\n"), 0644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("physics:\n  gain: 42\n"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-w.Configs:
			if cfg.Physics.Gain == 42 {
				return
			}
		case err := <-w.Errors:
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}
