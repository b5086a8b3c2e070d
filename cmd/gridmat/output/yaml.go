// yaml.go - YAML output formatter.
package output

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter produces YAML.
type YAMLFormatter struct{}

// Format writes r as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
