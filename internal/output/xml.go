// internal/output/xml.go
package output

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"time"
)

// JUnitWriter writes records as a JUnit XML report so CI systems can show
// per-case results.
type JUnitWriter struct {
	file *os.File
}

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Errors    int         `xml:"errors,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr,omitempty"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitProblem `xml:"failure,omitempty"`
	Error     *junitProblem `xml:"error,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

// NewJUnitWriter creates a new JUnit XML writer
func NewJUnitWriter(filename string) (*JUnitWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("JUnit file path is required")
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &JUnitWriter{file: file}, nil
}

// Write groups records by suite and writes the report
func (w *JUnitWriter) Write(ctx context.Context, records []Record) error {
	report := buildJUnit(records)

	if _, err := w.file.WriteString(xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w.file)
	encoder.Indent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JUnit XML: %w", err)
	}
	return encoder.Flush()
}

func buildJUnit(records []Record) junitSuites {
	var report junitSuites
	index := make(map[string]int)
	totals := make(map[string]time.Duration)

	for _, r := range records {
		i, ok := index[r.Suite]
		if !ok {
			i = len(report.Suites)
			index[r.Suite] = i
			suite := junitSuite{Name: r.Suite}
			if !r.StartedAt.IsZero() {
				suite.Timestamp = r.StartedAt.UTC().Format("2006-01-02T15:04:05")
			}
			report.Suites = append(report.Suites, suite)
		}
		suite := &report.Suites[i]

		tc := junitCase{
			Name:      r.Case,
			Classname: r.Suite,
			Time:      seconds(r.Duration),
		}
		switch r.Outcome {
		case OutcomeFail:
			tc.Failure = &junitProblem{Message: r.Message, Type: r.Code, Text: r.Message}
			suite.Failures++
		case OutcomeError:
			tc.Error = &junitProblem{Message: r.Message, Type: r.Code, Text: r.Message}
			suite.Errors++
		}
		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
		totals[r.Suite] += r.Duration
	}

	for i := range report.Suites {
		report.Suites[i].Time = seconds(totals[report.Suites[i].Name])
	}
	return report
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// Close closes the writer
func (w *JUnitWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
