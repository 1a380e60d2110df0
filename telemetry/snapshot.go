package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the field and body state at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`
	Tick    uint64 `json:"tick"`

	GridWidth      int     `json:"grid_width"`
	GridHeight     int     `json:"grid_height"`
	CellSize       float32 `json:"cell_size"`
	Overcorrection float32 `json:"overcorrection"`
	Sweeps         uint64  `json:"sweeps"`

	// Row-major cell values, row 0 at the top of the world
	Values []float32 `json:"values"`
	// Row-major indices of source cells
	Sources []int `json:"sources"`

	Drifters   []DrifterState   `json:"drifters"`
	Attractors []AttractorState `json:"attractors"`
}

// DrifterState holds one drifter's state.
type DrifterState struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	VelX float32 `json:"vel_x"`
	VelY float32 `json:"vel_y"`
}

// AttractorState holds one attractor's state.
type AttractorState struct {
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	Strength float32 `json:"strength"`
	Wanders  bool    `json:"wanders,omitempty"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	if snapshot.GridWidth <= 2 || snapshot.GridHeight <= 2 {
		return nil, fmt.Errorf("snapshot grid %dx%d is too small", snapshot.GridWidth, snapshot.GridHeight)
	}
	if snapshot.CellSize <= 0 {
		return nil, fmt.Errorf("snapshot cell size %v is not positive", snapshot.CellSize)
	}
	if len(snapshot.Values) != snapshot.GridWidth*snapshot.GridHeight {
		return nil, fmt.Errorf("snapshot has %d values for a %dx%d grid",
			len(snapshot.Values), snapshot.GridWidth, snapshot.GridHeight)
	}
	for _, i := range snapshot.Sources {
		if i < 0 || i >= len(snapshot.Values) {
			return nil, fmt.Errorf("snapshot source index %d outside the grid", i)
		}
	}

	return &snapshot, nil
}
