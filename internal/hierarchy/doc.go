// doc.go - Package documentation for hierarchy.

// Package hierarchy infers parent/child structure from a materialized grid.
//
// Hierarchical grids render nesting only as left padding on the first cell,
// plus an icon on item rows. Group header rows carry no icon. All functions
// operate on positions within an ordered []grid.Row, not on grid indices.
package hierarchy
