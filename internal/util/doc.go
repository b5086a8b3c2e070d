// doc.go - Package documentation for util.

// Package util holds small helpers shared by the HTTP surfaces: JSON
// responses, URL parsing and panic-safe goroutines.
package util
