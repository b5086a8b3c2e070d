// hierarchy.go - Toggle placement, collapse/expand sets, and tree building.
package hierarchy

import "github.com/dev-console/gridmat/internal/grid"

// ShouldHaveToggle reports whether the row at pos owns collapsible children.
//
// The row needs a native expander and a following row with an icon. Icon rows
// additionally need the next row to be indented deeper; group headers (no icon)
// always qualify.
func ShouldHaveToggle(rows []grid.Row, pos int) bool {
	if pos < 0 || pos+1 >= len(rows) {
		return false
	}
	row, next := rows[pos], rows[pos+1]
	if !row.Expandable || !next.HasIcon {
		return false
	}
	if row.HasIcon {
		return next.Indent > row.Indent
	}
	return true
}

// CollapseSet returns the positions hidden when the row at pos collapses.
func CollapseSet(rows []grid.Row, pos int) []int {
	if pos < 0 || pos >= len(rows) {
		return nil
	}
	var hidden []int
	if !rows[pos].HasIcon {
		for i := pos + 1; i < len(rows) && rows[i].HasIcon; i++ {
			hidden = append(hidden, i)
		}
		return hidden
	}
	base := rows[pos].Indent
	for i := pos + 1; i < len(rows) && rows[i].Indent > base; i++ {
		hidden = append(hidden, i)
	}
	return hidden
}

// ExpandSet returns the positions revealed when the row at pos expands.
// Subtrees of descendants that are themselves in collapsed stay hidden;
// the collapsed child row itself is revealed.
func ExpandSet(rows []grid.Row, pos int, collapsed map[int]bool) []int {
	if pos < 0 || pos >= len(rows) {
		return nil
	}
	if !rows[pos].HasIcon {
		return CollapseSet(rows, pos)
	}
	var shown []int
	base := rows[pos].Indent
	for i := pos + 1; i < len(rows) && rows[i].Indent > base; i++ {
		shown = append(shown, i)
		if !collapsed[i] {
			continue
		}
		child := rows[i].Indent
		for i+1 < len(rows) && rows[i+1].Indent > child {
			i++
		}
	}
	return shown
}

// Node is one row's place in the inferred tree.
type Node struct {
	Pos    int `json:"pos" yaml:"pos"`
	Parent int `json:"parent" yaml:"parent"`
	Depth  int `json:"depth" yaml:"depth"`
}

// Tree links every row to its nearest preceding shallower row. Group headers
// are roots and adopt every icon row up to the next header. Parent is -1 for
// roots.
func Tree(rows []grid.Row) []Node {
	nodes := make([]Node, len(rows))
	var stack []int
	for i, row := range rows {
		if !row.HasIcon {
			stack = stack[:0]
			nodes[i] = Node{Pos: i, Parent: -1}
			stack = append(stack, i)
			continue
		}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if !rows[top].HasIcon || rows[top].Indent < row.Indent {
				break
			}
			stack = stack[:len(stack)-1]
		}
		n := Node{Pos: i, Parent: -1}
		if len(stack) > 0 {
			p := stack[len(stack)-1]
			n.Parent = p
			n.Depth = nodes[p].Depth + 1
		}
		nodes[i] = n
		stack = append(stack, i)
	}
	return nodes
}

// Toggles returns the positions that get a toggle control.
func Toggles(rows []grid.Row) []int {
	var out []int
	for i := range rows {
		if ShouldHaveToggle(rows, i) {
			out = append(out, i)
		}
	}
	return out
}
