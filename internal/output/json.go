// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"os"
)

// JSONWriter writes records as one indented JSON array
type JSONWriter struct {
	filename string
	file     *os.File
}

type jsonRecord struct {
	Record
	DurationMS int64 `json:"duration_ms"`
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		filename: filename,
		file:     file,
	}, nil
}

// Write writes data to JSON file
func (w *JSONWriter) Write(ctx context.Context, records []Record) error {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{Record: r, DurationMS: r.DurationMS()})
	}

	encoder := json.NewEncoder(w.file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// Close closes the JSON writer
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
