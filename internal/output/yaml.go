// internal/output/yaml.go
package output

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes records as a single YAML sequence
type YAMLWriter struct {
	file *os.File
}

type yamlRecord struct {
	Record     `yaml:",inline"`
	DurationMS int64 `yaml:"duration_ms"`
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(filename string) (*YAMLWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("YAML file path is required")
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &YAMLWriter{file: file}, nil
}

// Write writes the records
func (w *YAMLWriter) Write(ctx context.Context, records []Record) error {
	out := make([]yamlRecord, 0, len(records))
	for _, r := range records {
		out = append(out, yamlRecord{Record: r, DurationMS: r.DurationMS()})
	}

	encoder := yaml.NewEncoder(w.file)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// Close closes the YAML writer
func (w *YAMLWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
