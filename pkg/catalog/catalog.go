// Package catalog expands tile definitions into the rotated variants the
// solver places, each carrying its precomputed face keys.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/kernel"
	"github.com/samber/lo"
)

// Category groups tiles for zone selection.
type Category int

const (
	Ground Category = iota
	Roof
	Empty
	Other
)

var categoryNames = []string{"ground", "roof", "empty", "other"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory accepts a category name, case-insensitively, with or
// without a leading colon.
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimPrefix(s, ":"))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("catalog: unknown category %q", s)
}

// CategorySet is a bit set of categories.
type CategorySet uint8

// AllCategories selects every category.
const AllCategories CategorySet = 1<<Ground | 1<<Roof | 1<<Empty | 1<<Other

// Set builds a CategorySet from its members.
func Set(cs ...Category) CategorySet {
	var s CategorySet
	for _, c := range cs {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	return s&(1<<c) != 0
}

func (s CategorySet) String() string {
	var names []string
	for i, n := range categoryNames {
		if s.Has(Category(i)) {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

// Symmetry describes which quarter turns of a tile are distinct.
type Symmetry int

const (
	SymX Symmetry = iota // invariant under every rotation
	SymI                 // two distinct rotations
	SymT                 // four
	SymL                 // four
)

var symmetryNames = []string{"X", "I", "T", "L"}

func (s Symmetry) String() string {
	if s < 0 || int(s) >= len(symmetryNames) {
		return fmt.Sprintf("symmetry(%d)", int(s))
	}
	return symmetryNames[s]
}

// Cardinality is the number of distinct variants a symmetry yields.
func (s Symmetry) Cardinality() int {
	switch s {
	case SymX:
		return 1
	case SymI:
		return 2
	default:
		return 4
	}
}

// ParseSymmetry accepts X, I, T or L, with or without a leading colon.
func ParseSymmetry(s string) (Symmetry, error) {
	name := strings.ToUpper(strings.TrimPrefix(s, ":"))
	for i, n := range symmetryNames {
		if n == name {
			return Symmetry(i), nil
		}
	}
	return 0, fmt.Errorf("catalog: unknown symmetry %q", s)
}

// TileDef is an authored tile before symmetry expansion. Geometry comes
// from Mesh or from pre-extracted Edges; with neither the tile has six
// empty faces.
type TileDef struct {
	Name        string
	Probability float64
	Category    Category
	Symmetry    Symmetry
	Mesh        *kernel.Mesh
	Edges       []adjacency.Edge
}

// TileModel is one placeable variant of a TileDef.
type TileModel struct {
	Name        string
	Variant     int
	Rotation    int // quarter turns about +Y
	Probability float64
	Category    Category
	Faces       adjacency.Faces
	Mesh        *kernel.Mesh // unrotated render mesh, may be nil
}

// ID returns "name#variant".
func (m *TileModel) ID() string {
	return fmt.Sprintf("%s#%d", m.Name, m.Variant)
}

// IsEmpty reports whether the model is in the EMPTY category.
func (m *TileModel) IsEmpty() bool {
	return m.Category == Empty
}

// Warning is a non-fatal catalog finding.
type Warning struct {
	Tile    string
	Message string
}

func (w Warning) String() string {
	return w.Tile + ": " + w.Message
}

// Catalog is the immutable set of tile models. It is built once and
// reused across solver restarts.
type Catalog struct {
	models []*TileModel
}

// ErrEmptyCatalog is returned when no definitions are supplied.
var ErrEmptyCatalog = errors.New("catalog: no tile definitions")

// Build validates defs and expands them into models. Duplicate variants
// are reported as warnings, not rejected.
func Build(defs []TileDef) (*Catalog, []Warning, error) {
	if len(defs) == 0 {
		return nil, nil, ErrEmptyCatalog
	}
	if err := validate(defs); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	c := &Catalog{}
	for _, def := range defs {
		faces := adjacency.EmptyFaces()
		switch {
		case def.Mesh != nil && !def.Mesh.IsEmpty():
			res := adjacency.Build(def.Mesh)
			faces = res.Faces
			if w := res.Warning(); w != "" {
				warnings = append(warnings, Warning{Tile: def.Name, Message: w})
			}
		case len(def.Edges) > 0:
			faces = adjacency.FromEdges(def.Edges)
		}

		for v := 0; v < def.Symmetry.Cardinality(); v++ {
			c.models = append(c.models, &TileModel{
				Name:        def.Name,
				Variant:     v,
				Rotation:    v,
				Probability: def.Probability,
				Category:    def.Category,
				Faces:       faces.Rotate(v),
				Mesh:        def.Mesh,
			})
		}
	}

	warnings = append(warnings, c.duplicates()...)
	return c, warnings, nil
}

func validate(defs []TileDef) error {
	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		switch {
		case strings.TrimSpace(def.Name) == "":
			return fmt.Errorf("catalog: tile %d: empty name", i)
		case seen[def.Name]:
			return fmt.Errorf("catalog: tile %q: duplicate name", def.Name)
		case !(def.Probability > 0):
			return fmt.Errorf("catalog: tile %q: probability %v must be > 0", def.Name, def.Probability)
		case def.Category < Ground || def.Category > Other:
			return fmt.Errorf("catalog: tile %q: unknown %v", def.Name, def.Category)
		case def.Symmetry < SymX || def.Symmetry > SymL:
			return fmt.Errorf("catalog: tile %q: unknown %v", def.Name, def.Symmetry)
		case def.Mesh != nil && !def.Mesh.IsEmpty() && len(def.Edges) > 0:
			return fmt.Errorf("catalog: tile %q: both mesh and edges given", def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}

// duplicates flags models sharing a category and all six fingerprints.
func (c *Catalog) duplicates() []Warning {
	type key struct {
		cat Category
		fp  [adjacency.NumOrientations]uint64
	}
	first := make(map[key]*TileModel)
	var out []Warning
	for _, m := range c.models {
		k := key{m.Category, m.Faces.Fingerprints()}
		if prev, ok := first[k]; ok {
			out = append(out, Warning{
				Tile:    m.ID(),
				Message: fmt.Sprintf("same category and face fingerprints as %s", prev.ID()),
			})
			continue
		}
		first[k] = m
	}
	return out
}

// Models returns every model in catalog order.
func (c *Catalog) Models() []*TileModel {
	return append([]*TileModel(nil), c.models...)
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Select returns the models whose category is in set, in catalog order.
func (c *Catalog) Select(set CategorySet) []*TileModel {
	return lo.Filter(c.models, func(m *TileModel, _ int) bool {
		return set.Has(m.Category)
	})
}

// Lookup finds a model by name and variant.
func (c *Catalog) Lookup(name string, variant int) (*TileModel, bool) {
	return lo.Find(c.models, func(m *TileModel) bool {
		return m.Name == name && m.Variant == variant
	})
}
