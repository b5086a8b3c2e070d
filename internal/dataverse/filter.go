// filter.go - Solution id extraction and managed-row filtering.
package dataverse

import (
	"net/url"
	"strings"

	"github.com/dev-console/gridmat/internal/grid"
)

// DefaultNameCell is the automation key of the display-name column.
const DefaultNameCell = "solution-component-name"

// SolutionIDFromURL extracts the solution id from a maker portal URL: the
// "id" query parameter, else the path segment after "solutions". Braces are
// stripped. Returns "" when neither is present.
func SolutionIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	id := u.Query().Get("id")
	if id == "" {
		parts := strings.Split(u.Path, "/")
		for i, p := range parts {
			if p == "solutions" && i+1 < len(parts) {
				id = parts[i+1]
				break
			}
		}
	}
	return strings.NewReplacer("{", "", "}", "").Replace(id)
}

// ManagedFilter returns the keys of rows whose display name, read from the
// nameCell cell, belongs to a managed component.
func ManagedFilter(rows []grid.Row, items []Component, nameCell string) []string {
	if nameCell == "" {
		nameCell = DefaultNameCell
	}
	byName := make(map[string]Component, len(items))
	for _, it := range items {
		byName[it.DisplayName] = it
	}
	var keys []string
	for _, r := range rows {
		name := strings.TrimSpace(r.Cells[nameCell])
		if name == "" {
			continue
		}
		if it, ok := byName[name]; ok && it.IsManaged {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// WithoutKeys drops rows whose key is in keys, preserving order.
func WithoutKeys(rows []grid.Row, keys []string) []grid.Row {
	if len(keys) == 0 {
		return rows
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make([]grid.Row, 0, len(rows))
	for _, r := range rows {
		if _, ok := drop[r.Key]; !ok {
			out = append(out, r)
		}
	}
	return out
}
