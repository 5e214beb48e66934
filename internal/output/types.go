// internal/output/types.go
package output

import (
	"context"
	"regexp"
	"time"
)

// Record is the stored form of one case result.
type Record struct {
	RunID     string        `json:"run_id" yaml:"run_id" bson:"run_id"`
	Suite     string        `json:"suite" yaml:"suite" bson:"suite"`
	Case      string        `json:"case" yaml:"case" bson:"case"`
	Outcome   string        `json:"outcome" yaml:"outcome" bson:"outcome"`
	Code      string        `json:"code,omitempty" yaml:"code,omitempty" bson:"code,omitempty"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty" bson:"message,omitempty"`
	Duration  time.Duration `json:"-" yaml:"-" bson:"-"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at" bson:"started_at"`
}

// DurationMS returns the case duration in milliseconds.
func (r Record) DurationMS() int64 {
	return r.Duration.Milliseconds()
}

// Writer stores a batch of records.
type Writer interface {
	Write(ctx context.Context, records []Record) error
	Close() error
}

// Outcome values as stored.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)

// columns is the fixed column order of tabular sinks.
var columns = []string{"run_id", "suite", "case", "outcome", "code", "message", "duration_ms", "started_at"}

// row flattens a record in column order.
func (r Record) row() []interface{} {
	return []interface{}{
		r.RunID, r.Suite, r.Case, r.Outcome, r.Code, r.Message, r.DurationMS(),
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	}
}

// SQL identifier regex: starts with letter or underscore, contains letters, digits, underscores
var sqlIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// IsValidSQLIdentifier checks a table name before it is interpolated.
func IsValidSQLIdentifier(name string) bool {
	return len(name) <= 63 && sqlIdentifierRegex.MatchString(name)
}
