// Package graph tracks connected structures in a partially solved grid.
// Vertices are resolved non-empty cells; an edge joins two adjoining cells
// whose facing faces carry the same outline. The graph is grown
// incrementally as cells collapse and never shrinks; a solver restart
// starts a new graph.
package graph
