// json.go - JSON output formatter.
package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter produces machine-parseable JSON.
type JSONFormatter struct {
	Indent bool
}

// Format writes r as one JSON document followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}
