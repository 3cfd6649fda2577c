package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/engine"
	"github.com/chazu/tessera/pkg/export"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/chazu/tessera/pkg/kernel/sdfx"
	"github.com/chazu/tessera/pkg/solver"
	"github.com/chazu/tessera/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to tiles.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// maxStepsPerCall bounds one Step binding call so the UI stays responsive.
const maxStepsPerCall = 10000

// App is the Wails backend. It exposes methods to the frontend via bindings.
// Wails calls bindings from several goroutines, so every method holds mu.
type App struct {
	ctx context.Context

	// loadMu serializes catalog evaluation; zygomys sandboxes are not
	// safe to create concurrently.
	loadMu sync.Mutex
	engine *engine.Engine

	mu     sync.Mutex
	cat    *catalog.Catalog
	colors map[string]string
	solver *solver.Solver
	// frame is the solver tick the frontend last saw, and gen the grid
	// generation it belonged to.
	frame uint64
	gen   string
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Cell     [3]int    `json:"cell"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// CatalogResult is returned by LoadCatalog.
type CatalogResult struct {
	Models   int             `json:"models"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// Status summarises the solver for the frontend.
type Status struct {
	State      string `json:"state"`
	Generation string `json:"generation"`
	Seed       uint64 `json:"seed"`
	Layer      int    `json:"layer"`
	Restarts   int    `json:"restarts"`
	Components int    `json:"components"`
	Tick       uint64 `json:"tick"`
	Error      string `json:"error,omitempty"`
}

// Frame is the render diff since the previous call. When Clear is set
// the frontend drops every mesh before applying Meshes.
type Frame struct {
	Status  Status     `json:"status"`
	Clear   bool       `json:"clear"`
	Meshes  []MeshData `json:"meshes"`
	Removed [][3]int   `json:"removed"`
}

// NewApp creates a new App with an engine backed by the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(sdfx.New()),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// LoadCatalog evaluates catalog source and makes it the active catalog.
// A running solver is discarded.
func (a *App) LoadCatalog(source string) CatalogResult {
	result := CatalogResult{
		Errors:   []EvalErrorData{},
		Warnings: []string{},
	}

	a.loadMu.Lock()
	defs, evalErrs, err := a.engine.Evaluate(source)
	a.loadMu.Unlock()
	if err != nil {
		log.Printf("LoadCatalog fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if len(result.Errors) > 0 {
		return result
	}

	cat, warnings, err := catalog.Build(defs)
	if err != nil {
		log.Printf("LoadCatalog build error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range warnings {
		log.Printf("catalog warning: %s", w)
		result.Warnings = append(result.Warnings, w.String())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cat = cat
	a.colors = make(map[string]string)
	for _, m := range cat.Models() {
		if _, ok := a.colors[m.Name]; !ok {
			a.colors[m.Name] = colorPalette[len(a.colors)%len(colorPalette)]
		}
	}
	a.solver = nil
	result.Models = cat.Len()
	return result
}

// Start begins solving a grid with the loaded catalog. A negative seed
// picks a random one.
func (a *App) Start(width, height, depth int, seed int64) Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cat == nil {
		return Status{State: solver.Stopped.String(), Error: "no catalog loaded"}
	}
	var opts []solver.Option
	if seed >= 0 {
		opts = append(opts, solver.WithSeed(uint64(seed)))
	}
	s := solver.New(opts...)
	dims := grid.Dims{Width: width, Height: height, Depth: depth}
	if err := s.Start(dims, a.cat, grid.DefaultZones); err != nil {
		log.Printf("Start error: %v", err)
		return Status{State: solver.Stopped.String(), Error: err.Error()}
	}
	a.solver = s
	a.frame = 0
	a.gen = ""
	return a.status()
}

// Step advances the solver up to n ticks, stopping early once it stops,
// and returns what changed since the previous frame.
func (a *App) Step(n int) Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.solver == nil {
		return Frame{Status: Status{State: solver.Stopped.String(), Error: "not started"}}
	}
	n = max(1, min(n, maxStepsPerCall))
	for i := 0; i < n && a.solver.State() != solver.Stopped; i++ {
		a.solver.Step()
	}
	return a.diff()
}

// Reset starts a fresh grid with the same catalog and dimensions.
func (a *App) Reset() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.solver == nil {
		return Status{State: solver.Stopped.String(), Error: "not started"}
	}
	a.solver.Reset()
	return a.status()
}

// Meshes returns the full scene, for a frontend that lost its state.
func (a *App) Meshes() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.solver == nil {
		return Frame{Status: Status{State: solver.Stopped.String()}, Clear: true, Meshes: []MeshData{}}
	}
	snap := a.solver.Snapshot()
	a.frame = snap.Tick
	a.gen = snap.Generation
	return Frame{
		Status:  a.status(),
		Clear:   true,
		Meshes:  a.meshData(snap.Cells),
		Removed: [][3]int{},
	}
}

// ExportYAML returns the current grid in the export format.
func (a *App) ExportYAML() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.solver == nil {
		return "", fmt.Errorf("not started")
	}
	var buf bytes.Buffer
	if err := export.WriteYAML(&buf, export.FromSnapshot(a.solver.Snapshot())); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// diff collects meshes for cells changed since the last frame. A new
// grid generation clears the scene.
func (a *App) diff() Frame {
	s := a.solver
	f := Frame{Meshes: []MeshData{}, Removed: [][3]int{}}

	since := a.frame
	if gen := s.Generation(); gen != a.gen {
		f.Clear = true
		since = 0
		a.gen = gen
	}
	changed, tick := s.ChangedSince(since)
	a.frame = tick

	var placed []solver.Assignment
	for _, p := range changed {
		if asg, ok := s.Resolved(p); ok && !asg.Model.IsEmpty() {
			placed = append(placed, asg)
			continue
		}
		if !f.Clear {
			f.Removed = append(f.Removed, [3]int{p.X, p.Y, p.Z})
		}
	}
	f.Meshes = a.meshData(placed)
	f.Status = a.status()
	return f
}

func (a *App) meshData(cells []solver.Assignment) []MeshData {
	out := []MeshData{}
	byName := make(map[string]solver.Assignment, len(cells))
	for _, c := range cells {
		if c.Model != nil {
			byName[tessellate.PartName(c.Model.Name, c.Position)] = c
		}
	}
	for _, m := range tessellate.Tessellate(cells) {
		c := byName[m.PartName]
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Cell:     [3]int{c.Position.X, c.Position.Y, c.Position.Z},
			Color:    a.colors[c.Model.Name],
		})
	}
	return out
}

func (a *App) status() Status {
	s := a.solver
	return Status{
		State:      s.State().String(),
		Generation: s.Generation(),
		Seed:       s.Seed(),
		Layer:      s.Layer(),
		Restarts:   s.Restarts(),
		Components: s.ComponentCount(),
		Tick:       s.Tick(),
	}
}
