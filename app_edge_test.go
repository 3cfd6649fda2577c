package main

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

const postCatalog = `
(deftile "air" :category :empty)
(deftile "post" :category :ground
  :edges (edges (edge (vec3 -0.1 0.5 0) (vec3 0.1 0.5 0))))
`

func loadedApp(t *testing.T, source string) *App {
	t.Helper()
	app := NewApp()
	res := app.LoadCatalog(source)
	if len(res.Errors) > 0 {
		t.Fatalf("catalog errors: %v", res.Errors)
	}
	return app
}

// ---------------------------------------------------------------------------
// Catalog loading
// ---------------------------------------------------------------------------

func TestE2ELoadResultSlicesNonNil(t *testing.T) {
	app := NewApp()
	res := app.LoadCatalog(postCatalog)

	// JSON should serialize as [] not null.
	if res.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if res.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
	if res.Models != 2 {
		t.Errorf("expected 2 models, got %d", res.Models)
	}
}

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()
	res := app.LoadCatalog("(deftile \"a\" :category :empty)\n(deftile \"b\"")

	if len(res.Errors) == 0 {
		t.Fatal("expected eval errors")
	}
	if res.Errors[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
	if res.Errors[0].Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", res.Errors[0].Line, res.Errors[0].Message)
	}
}

func TestE2EBadCategory(t *testing.T) {
	app := NewApp()
	res := app.LoadCatalog(`(deftile "x" :category :lava)`)
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0].Message, "lava") {
		t.Errorf("expected an error naming the category, got %v", res.Errors)
	}
}

func TestE2EDuplicateWarning(t *testing.T) {
	app := NewApp()
	res := app.LoadCatalog(`(deftile "a" :category :empty) (deftile "b" :category :empty)`)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected 1 duplicate warning, got %v", res.Warnings)
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp()
	res := app.LoadCatalog(";; nothing here\n; still nothing\n")
	if len(res.Errors) == 0 {
		t.Error("a catalog without tiles should be rejected")
	}
}

func TestE2EReloadDiscardsSolver(t *testing.T) {
	app := loadedApp(t, postCatalog)
	app.Start(3, 1, 3, 1)
	app.LoadCatalog(postCatalog)

	f := app.Step(1)
	if f.Status.Error != "not started" {
		t.Errorf("expected solver to be discarded, got %+v", f.Status)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestE2EStepBeforeStart(t *testing.T) {
	app := NewApp()
	if f := app.Step(1); f.Status.Error == "" {
		t.Error("Step before Start should report an error")
	}
	if st := app.Reset(); st.Error == "" {
		t.Error("Reset before Start should report an error")
	}
	if _, err := app.ExportYAML(); err == nil {
		t.Error("ExportYAML before Start should fail")
	}
	if f := app.Meshes(); !f.Clear || len(f.Meshes) != 0 {
		t.Errorf("Meshes before Start should be an empty clearing frame, got %+v", f)
	}
}

func TestE2EStartBadDims(t *testing.T) {
	app := loadedApp(t, postCatalog)
	tests := []struct{ w, h, d int }{
		{0, 1, 1},
		{1, -1, 1},
		{1, 1, 0},
	}
	for _, tt := range tests {
		st := app.Start(tt.w, tt.h, tt.d, 1)
		if !strings.Contains(st.Error, "dimensions") {
			t.Errorf("Start(%d,%d,%d) error = %q", tt.w, tt.h, tt.d, st.Error)
		}
	}
}

func TestE2ESeedIsReported(t *testing.T) {
	app := loadedApp(t, postCatalog)
	if st := app.Start(3, 1, 3, 77); st.Seed != 77 {
		t.Errorf("seed = %d, want 77", st.Seed)
	}
	// A negative seed asks for a random one.
	if st := app.Start(3, 1, 3, -1); st.Error != "" {
		t.Errorf("unexpected error: %s", st.Error)
	}
}

func TestE2EStepBatch(t *testing.T) {
	app := loadedApp(t, postCatalog)
	app.Start(3, 1, 3, 2)

	// INIT, nine collapses, FINISHED, STOPPED all fit in one batch.
	f := app.Step(1000)
	if f.Status.State != "STOPPED" {
		t.Fatalf("expected STOPPED, got %s", f.Status.State)
	}
	if !f.Clear {
		t.Error("first frame of a generation should clear")
	}
	// Further steps are no-ops with an empty diff.
	f = app.Step(5)
	if f.Clear || len(f.Meshes) != 0 || len(f.Removed) != 0 {
		t.Errorf("expected an empty diff after stopping, got %+v", f)
	}
}

func TestE2EResetStartsNewGeneration(t *testing.T) {
	app := loadedApp(t, postCatalog)
	app.Start(3, 1, 3, 5)
	first := app.Step(1000).Status.Generation

	st := app.Reset()
	if st.State != "INIT" || st.Restarts != 0 {
		t.Errorf("after Reset: %+v", st)
	}
	f := app.Step(1000)
	if f.Status.Generation == first {
		t.Error("expected a new generation after Reset")
	}
	if !f.Clear {
		t.Error("a new generation should clear the scene")
	}
}

func TestE2EExportYAML(t *testing.T) {
	app := loadedApp(t, postCatalog)
	app.Start(3, 1, 3, 9)
	app.Step(1000)

	out, err := app.ExportYAML()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"seed: 9", "state: STOPPED", "cells:", "tile: air"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestE2EConcurrentBindings(t *testing.T) {
	// Wails calls bindings from several goroutines.
	app := loadedApp(t, postCatalog)
	app.Start(4, 1, 4, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch (i + j) % 4 {
				case 0:
					app.Step(3)
				case 1:
					app.Meshes()
				case 2:
					_, _ = app.ExportYAML()
				default:
					if j%10 == 0 {
						app.Reset()
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestE2ERapidReload(t *testing.T) {
	app := NewApp()
	sources := []string{
		postCatalog,
		`(deftile "broken"`,
		``,
		`(undefined-func 1 2 3)`,
		postCatalog,
	}
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			app.LoadCatalog(source)
		}()
	}
	if app.cat == nil || app.cat.Len() != 2 {
		t.Error("the last good catalog should be active")
	}
}

// ---------------------------------------------------------------------------
// Colors
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	var b strings.Builder
	n := len(colorPalette) + 2
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "(deftile \"t%d\" :category :other :edges (edges (edge (vec3 -0.5 0 0) (vec3 -0.5 0.%d 0))))\n", i, i+1)
	}
	app := loadedApp(t, b.String())

	if len(app.colors) != n {
		t.Fatalf("expected %d tile colors, got %d", n, len(app.colors))
	}
	if app.colors["t0"] != colorPalette[0] {
		t.Errorf("t0 color = %s, want %s", app.colors["t0"], colorPalette[0])
	}
	if app.colors[fmt.Sprintf("t%d", len(colorPalette))] != colorPalette[0] {
		t.Error("palette should wrap around")
	}
}
