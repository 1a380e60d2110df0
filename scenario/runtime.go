// Package scenario runs tengo scripts that drive source patterns in the
// gravity field. A script defines update(engine, state), called once per
// tick. engine is rebuilt every tick; state persists for the whole run.
package scenario

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Host receives the side effects of a script.
type Host interface {
	// Emit adds delta to the field source at world position (x, y).
	Emit(x, y, delta float32)
	// SpawnDrifter adds a drifter at world position (x, y).
	SpawnDrifter(x, y float32)
	// WorldSize returns the world width and height.
	WorldSize() (w, h float32)
}

const dispatchScript = `
update(__engine, __state)
`

// Runtime is a compiled scenario script.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map

	// Counters from the last Run
	emitted int
	spawned int
}

// Load compiles the script at path.
func Load(path string) (*Runtime, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario script: %w", err)
	}
	return Compile(path, src)
}

// Compile compiles script source. name is only used in errors and logs.
func Compile(name string, src []byte) (*Runtime, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), dispatchScript...))
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap("math", "rand", "text", "fmt"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling scenario %s: %w", name, err)
	}
	return &Runtime{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Run calls the script's update function for tick.
func (rt *Runtime) Run(tick uint64, host Host) error {
	rt.emitted, rt.spawned = 0, 0

	if err := rt.compiled.Set("__engine", rt.engine(tick, host)); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	if err := rt.compiled.Run(); err != nil {
		return fmt.Errorf("running scenario %s at tick %d: %w", rt.name, tick, err)
	}
	if rt.emitted > 0 || rt.spawned > 0 {
		slog.Debug("scenario tick",
			"script", rt.name,
			"tick", tick,
			"emitted", rt.emitted,
			"spawned", rt.spawned,
		)
	}
	return nil
}

// Emitted returns how many field updates the last Run produced.
func (rt *Runtime) Emitted() int { return rt.emitted }

// Spawned returns how many drifters the last Run created.
func (rt *Runtime) Spawned() int { return rt.spawned }

// State returns a copy of a persisted state value as a Go value, or nil.
func (rt *Runtime) State(key string) any {
	obj, ok := rt.state.Value[key]
	if !ok {
		return nil
	}
	return tengo.ToInterface(obj)
}

func (rt *Runtime) engine(tick uint64, host Host) *tengo.ImmutableMap {
	w, h := host.WorldSize()
	values := map[string]tengo.Object{
		"tick":   &tengo.Int{Value: int64(tick)},
		"width":  &tengo.Float{Value: float64(w)},
		"height": &tengo.Float{Value: float64(h)},
	}

	values["emit"] = &tengo.UserFunction{Name: "emit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		xyz, err := floatArgs("emit", args)
		if err != nil {
			return nil, err
		}
		host.Emit(xyz[0], xyz[1], xyz[2])
		rt.emitted++
		return tengo.TrueValue, nil
	}}

	values["spawn_drifter"] = &tengo.UserFunction{Name: "spawn_drifter", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		xy, err := floatArgs("spawn_drifter", args)
		if err != nil {
			return nil, err
		}
		host.SpawnDrifter(xy[0], xy[1])
		rt.spawned++
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func floatArgs(fn string, args []tengo.Object) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		v, ok := tengo.ToFloat64(a)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{
				Name:     fmt.Sprintf("%s arg %d", fn, i+1),
				Expected: "float(compatible)",
				Found:    a.TypeName(),
			}
		}
		out[i] = float32(v)
	}
	return out, nil
}
