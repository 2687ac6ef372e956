package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter outputs reports as indented JSON.
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

// Write encodes r.
func (w *JSONWriter) Write(r *Report) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}
