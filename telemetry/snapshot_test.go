package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:        SnapshotVersion,
		RunID:          "run",
		RNGSeed:        42,
		Tick:           1000,
		GridWidth:      3,
		GridHeight:     3,
		CellSize:       16,
		Overcorrection: 1.6,
		Sweeps:         1200,
		Values:         []float32{0, 0, 0, 0.5, 0.8, 0.5, 1, 1, 1},
		Sources:        []int{0, 1, 2, 4, 6, 7, 8},
		Drifters: []DrifterState{
			{X: 10, Y: 20, VelX: 0.5, VelY: -3},
		},
		Attractors: []AttractorState{
			{X: 24, Y: 24, Strength: 0.8},
			{X: 8, Y: 40, Strength: 0.6, Wanders: true},
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if want := filepath.Join(tmpDir, "snapshot_1000.json"); path != want {
		t.Errorf("expected path %s, got %s", want, path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if diff := cmp.Diff(snapshot, loaded); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSnapshotRejectsBadFiles(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"wrong version", `{"version": 99, "grid_width": 1, "grid_height": 1, "values": [0]}`},
		{"empty grid", `{"version": 1, "grid_width": 0, "grid_height": 0, "cell_size": 16, "values": []}`},
		{"no cell size", `{"version": 1, "grid_width": 3, "grid_height": 3, "values": [0, 0, 0, 0, 0, 0, 0, 0, 0]}`},
		{"short values", `{"version": 1, "grid_width": 3, "grid_height": 3, "cell_size": 16, "values": [0, 1]}`},
		{"source out of range", `{"version": 1, "grid_width": 3, "grid_height": 3, "cell_size": 16, "values": [0, 0, 0, 0, 0, 0, 0, 0, 0], "sources": [9]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSnapshot(path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadSnapshot(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
