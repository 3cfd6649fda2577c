package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms catalog source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: corner-piece -> corner_piece
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
//  3. ; line comments become // comments.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a
		// leading minus is an operator or a negative number.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a tile-space point.
type sexpVec3 struct {
	v [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.v[0], v.v[1], v.v[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpEdges wraps one or more boundary edges.
type sexpEdges struct {
	edges []adjacency.Edge
}

func (e *sexpEdges) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(edges %d)", len(e.edges))
}
func (e *sexpEdges) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a geometry kernel solid.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(" + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpMesh wraps an explicit triangle mesh.
type sexpMesh struct {
	mesh *kernel.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %d vertices %d triangles)", m.mesh.VertexCount(), m.mesh.TriangleCount())
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

// sexpTile is returned by deftile.
type sexpTile struct {
	name string
}

func (t *sexpTile) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(tile %q)", t.name)
}
func (t *sexpTile) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toIndex extracts a non-negative integer.
func toIndex(s zygo.Sexp) (uint32, error) {
	v, ok := s.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
	}
	if v.Val < 0 {
		return 0, fmt.Errorf("negative index %d", v.Val)
	}
	return uint32(v.Val), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a point from a sexpVec3.
func toVec3(s zygo.Sexp) ([3]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.v, nil
	}
	return [3]float64{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toEdges accepts an edge, an edge list, or a list of either.
func toEdges(s zygo.Sexp) ([]adjacency.Edge, error) {
	if e, ok := s.(*sexpEdges); ok {
		return e.edges, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected edges, got %T (%s)", s, s.SexpString(nil))
	}
	var out []adjacency.Edge
	for i, item := range items {
		e, ok := item.(*sexpEdges)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected edge, got %T", i, item)
		}
		out = append(out, e.edges...)
	}
	return out, nil
}

// toSolid extracts a solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// positive reads an optional positive number keyword.
func positive(pa kwArgs, key string, def float64) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if !(f > 0) {
		return 0, fmt.Errorf("%s: must be > 0, got %g", key, f)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the catalog DSL into a zygomys environment.
// Tile definitions are appended to defs in declaration order. Shape
// builtins need k; with a nil kernel only :edges and :mesh tiles work.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, detail int, defs *[]catalog.TileDef) {

	needKernel := func(fn string) error {
		if k == nil {
			return fmt.Errorf("%s: no geometry kernel configured", fn)
		}
		return nil
	}

	// placeAt applies an optional :at translation.
	placeAt := func(fn string, pa kwArgs, s kernel.Solid) (kernel.Solid, error) {
		v, ok := pa.kw["at"]
		if !ok {
			return s, nil
		}
		at, err := toVec3(v)
		if err != nil {
			return nil, fmt.Errorf("%s: at: %w", fn, err)
		}
		return k.Translate(s, at[0], at[1], at[2]), nil
	}

	// -----------------------------------------------------------------------
	// (vec3 0.5 0 -0.25)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{v: v}, nil
	})

	// -----------------------------------------------------------------------
	// (edge (vec3 ...) (vec3 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("edge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("edge requires exactly 2 points, got %d", len(args))
		}
		a, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: from: %w", err)
		}
		b, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: to: %w", err)
		}
		e := adjacency.NewEdge(adjacency.Quantize(a), adjacency.Quantize(b))
		if e.Degenerate() {
			return zygo.SexpNull, fmt.Errorf("edge: endpoints coincide at %s", e.A)
		}
		return &sexpEdges{edges: []adjacency.Edge{e}}, nil
	})

	// -----------------------------------------------------------------------
	// (edges e1 e2 ...)
	// -----------------------------------------------------------------------
	env.AddFunction("edges", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var out []adjacency.Edge
		for i, arg := range args {
			es, err := toEdges(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: argument %d: %w", i+1, err)
			}
			out = append(out, es...)
		}
		return &sexpEdges{edges: out}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 1 0.2 0.2) :at (vec3 0 -0.4 0))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("box"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box requires :size")
		}
		size, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		for _, c := range size {
			if !(c > 0) {
				return zygo.SexpNull, fmt.Errorf("box: size components must be > 0, got %v", size)
			}
		}
		s, err := placeAt("box", pa, k.Box(size[0], size[1], size[2]))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: s, desc: "box"}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 1 :radius 0.1 :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("cylinder"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		h, err := positive(pa, "height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		r, err := positive(pa, "radius", 0.1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		s, err := placeAt("cylinder", pa, k.Cylinder(h, r))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: s, desc: "cylinder"}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b), (intersection a b)
	// -----------------------------------------------------------------------
	booleans := []struct {
		name  string
		nary  bool
		apply func(a, b kernel.Solid) kernel.Solid
	}{
		{"union", true, func(a, b kernel.Solid) kernel.Solid { return k.Union(a, b) }},
		{"difference", false, func(a, b kernel.Solid) kernel.Solid { return k.Difference(a, b) }},
		{"intersection", false, func(a, b kernel.Solid) kernel.Solid { return k.Intersection(a, b) }},
	}
	for _, op := range booleans {
		op := op
		env.AddFunction(op.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := needKernel(op.name); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) < 2 || (!op.nary && len(args) != 2) {
				if op.nary {
					return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op.name, len(args))
				}
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 solids, got %d", op.name, len(args))
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", op.name, err)
			}
			for i := 1; i < len(args); i++ {
				next, err := toSolid(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", op.name, i+1, err)
				}
				acc = op.apply(acc, next)
			}
			return &sexpSolid{solid: acc, desc: op.name}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (rotate solid :y 90)
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("rotate"); err != nil {
			return zygo.SexpNull, err
		}
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires one solid")
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		var deg [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			if v, ok := pa.kw[axis]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("rotate: %s: %w", axis, err)
				}
				deg[i] = f
			}
		}
		return &sexpSolid{solid: k.Rotate(s, deg[0], deg[1], deg[2]), desc: "rotate"}, nil
	})

	// -----------------------------------------------------------------------
	// (translate solid (vec3 0 0.25 0))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel("translate"); err != nil {
			return zygo.SexpNull, err
		}
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid and a vec3")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		by, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpSolid{solid: k.Translate(s, by[0], by[1], by[2]), desc: "translate"}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh :vertices (list (vec3 ...) ...) :triangles (list 0 1 2 ...))
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		vs, ok := pa.kw["vertices"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("mesh requires :vertices")
		}
		ts, ok := pa.kw["triangles"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("mesh requires :triangles")
		}

		vItems, err := sexpListToSlice(vs)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: vertices: %w", err)
		}
		positions := make([][3]float64, 0, len(vItems))
		for i, item := range vItems {
			v, err := toVec3(item)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: vertex %d: %w", i, err)
			}
			positions = append(positions, v)
		}

		tItems, err := sexpListToSlice(ts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: triangles: %w", err)
		}
		if len(tItems)%3 != 0 {
			return zygo.SexpNull, fmt.Errorf("mesh: %d triangle indices is not a multiple of 3", len(tItems))
		}
		triangles := make([][3]uint32, 0, len(tItems)/3)
		for i := 0; i < len(tItems); i += 3 {
			var tri [3]uint32
			for j := 0; j < 3; j++ {
				idx, err := toIndex(tItems[i+j])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("mesh: triangle %d: %w", i/3, err)
				}
				if int(idx) >= len(positions) {
					return zygo.SexpNull, fmt.Errorf("mesh: triangle %d: index %d out of range", i/3, idx)
				}
				tri[j] = idx
			}
			triangles = append(triangles, tri)
		}
		return &sexpMesh{mesh: kernel.NewMesh("", positions, triangles)}, nil
	})

	// -----------------------------------------------------------------------
	// (deftile "name" :probability 1 :category :ground :symmetry :L
	//          :shape solid | :mesh m | :edges es)
	// -----------------------------------------------------------------------
	env.AddFunction("deftile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("deftile requires a name")
		}
		tileName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deftile: name: %w", err)
		}

		def := catalog.TileDef{Name: tileName, Probability: 1, Category: catalog.Other, Symmetry: catalog.SymX}
		fail := func(field string, err error) (zygo.Sexp, error) {
			return zygo.SexpNull, fmt.Errorf("deftile %q: %s: %w", tileName, field, err)
		}

		if v, ok := pa.kw["probability"]; ok {
			if def.Probability, err = toFloat64(v); err != nil {
				return fail("probability", err)
			}
		}
		if v, ok := pa.kw["category"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return fail("category", err)
			}
			if def.Category, err = catalog.ParseCategory(s); err != nil {
				return fail("category", err)
			}
		}
		if v, ok := pa.kw["symmetry"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return fail("symmetry", err)
			}
			if def.Symmetry, err = catalog.ParseSymmetry(s); err != nil {
				return fail("symmetry", err)
			}
		}

		sources := 0
		if v, ok := pa.kw["shape"]; ok {
			sources++
			if err := needKernel("deftile"); err != nil {
				return zygo.SexpNull, err
			}
			s, err := toSolid(v)
			if err != nil {
				return fail("shape", err)
			}
			m, err := k.TileMesh(s, detail)
			if err != nil {
				return fail("shape", err)
			}
			m.PartName = tileName
			def.Mesh = m
		}
		if v, ok := pa.kw["mesh"]; ok {
			sources++
			m, ok := v.(*sexpMesh)
			if !ok {
				return fail("mesh", fmt.Errorf("expected mesh, got %T", v))
			}
			def.Mesh = m.mesh
			def.Mesh.PartName = tileName
		}
		if v, ok := pa.kw["edges"]; ok {
			sources++
			es, err := toEdges(v)
			if err != nil {
				return fail("edges", err)
			}
			def.Edges = es
		}
		if sources > 1 {
			return zygo.SexpNull, fmt.Errorf("deftile %q: use only one of :shape, :mesh, :edges", tileName)
		}

		*defs = append(*defs, def)
		return &sexpTile{name: tileName}, nil
	})
}
