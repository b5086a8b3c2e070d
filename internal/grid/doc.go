// doc.go - Package documentation for the grid adapter contract.

// Package grid defines the narrow contract between the materializer and the
// host virtualization framework.
//
// A host renders a bounded window of rows, each tagged with a stable item
// index, inside a scrollable region whose offset can be written and whose
// total content height can be read. Everything the materializer knows about
// the page goes through Adapter, so the algorithm can be exercised against
// the synthetic host in grid/synthetic as well as a live browser through
// grid/script.
package grid
