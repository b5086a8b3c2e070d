// gap.go - Missing-index detection between successive windows.
package materialize

// NoIndex marks a watermark before any index has been confirmed. Distinct
// from 0, which is a real index.
const NoIndex = -1

// HasGap reports whether the smallest newly inserted index skipped past the
// highest confirmed one. newly must be ascending.
func HasGap(newly []int, highest int) bool {
	if highest == NoIndex || len(newly) == 0 {
		return false
	}
	return newly[0] > highest+1
}

// Advance returns the watermark after confirming newly. It never decreases.
func Advance(highest int, newly []int) int {
	if len(newly) == 0 {
		return highest
	}
	return max(highest, newly[len(newly)-1])
}
