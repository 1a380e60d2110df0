package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/meditation/config"
)

func TestFieldGridFlipsRows(t *testing.T) {
	// 3x3, row 0 is the top of the world
	g := newFieldGrid([]float32{
		0, 0, 0,
		0.5, 0.5, 0.5,
		1, 1, 1,
	}, 3, 3, 10)

	c, r := g.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 3, r)
	assert.Equal(t, 1.0, g.Z(0, 0), "plot row 0 is the bottom of the world")
	assert.Equal(t, 0.0, g.Z(2, 2))
	assert.Equal(t, 5.0, g.X(0))
	assert.Equal(t, 25.0, g.Y(2))
}

func TestRelaxedFieldPlacesAttractors(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Field.InitialSmoothing = 0

	f, err := relaxedField(cfg, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 10, f.Sweeps())
	assert.Equal(t, 2*cfg.Field.Width+len(cfg.Scenario.Attractors), f.Sources())
}

func TestSavePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.png")
	g := newFieldGrid([]float32{0, 0.25, 0.5, 0.75, 1, 0.5}, 3, 2, 16)
	require.NoError(t, savePlot(g, path, 3, "test"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
