// internal/output/manager.go
package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/PageProbe/internal/config"
)

// Manager fans records out to every configured sink
type Manager struct {
	outputs []config.OutputConfig
}

// NewManager creates a new output manager
func NewManager(outputs []config.OutputConfig) *Manager {
	return &Manager{outputs: outputs}
}

// Len returns the number of configured sinks
func (m *Manager) Len() int {
	return len(m.outputs)
}

// GetWriter returns the writer for one output configuration
func GetWriter(ctx context.Context, cfg config.OutputConfig) (Writer, error) {
	switch cfg.Format {
	case config.FormatJSON:
		return NewJSONWriter(cfg.File)
	case config.FormatYAML:
		return NewYAMLWriter(cfg.File)
	case config.FormatCSV:
		return NewCSVWriter(cfg.File)
	case config.FormatJUnit:
		return NewJUnitWriter(cfg.File)
	case config.FormatExcel:
		return NewExcelWriter(cfg.File)
	case config.FormatSQLite:
		return NewSQLWriter(ctx, SQLOptions{Driver: DriverSQLite, DSN: cfg.DSN, Table: cfg.Table})
	case config.FormatPostgreSQL:
		return NewSQLWriter(ctx, SQLOptions{Driver: DriverPostgres, DSN: cfg.DSN, Table: cfg.Table})
	case config.FormatMySQL:
		return NewSQLWriter(ctx, SQLOptions{Driver: DriverMySQL, DSN: cfg.DSN, Table: cfg.Table})
	case config.FormatMongoDB:
		return NewMongoDBWriter(ctx, MongoDBOptions{
			ConnectionString: cfg.DSN,
			Database:         cfg.Database,
			Collection:       cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
	}
}

// Write writes records to every sink. A failing sink does not stop the
// others; all failures are returned joined.
func (m *Manager) Write(ctx context.Context, records []Record) error {
	var errs []error
	for _, out := range m.outputs {
		if err := write(ctx, out, records); err != nil {
			errs = append(errs, fmt.Errorf("%s output: %w", out.Format, err))
		}
	}
	return errors.Join(errs...)
}

func write(ctx context.Context, cfg config.OutputConfig, records []Record) (err error) {
	writer, err := GetWriter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return writer.Write(ctx, records)
}
