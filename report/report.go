// Package report records the outcome of gridwalk check runs and exports
// them as JSON or JUnit XML.
package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Status classifies one check outcome.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Check is one named verification inside a run.
type Check struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Message string        `json:"message,omitempty"`
}

// Run collects the checks of one gridwalk invocation.
type Run struct {
	ID       string    `json:"id"`
	Suite    string    `json:"suite"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Checks   []Check   `json:"checks"`
}

// NewRun starts a run for the named suite.
func NewRun(suite string) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Suite:   suite,
		Started: time.Now().UTC(),
	}
}

// Add appends one check outcome.
func (r *Run) Add(name string, status Status, elapsed time.Duration, message string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Elapsed: elapsed, Message: message})
}

// Pass records a passed check.
func (r *Run) Pass(name string, elapsed time.Duration) {
	r.Add(name, StatusPassed, elapsed, "")
}

// Fail records a failed check with its failure message.
func (r *Run) Fail(name string, elapsed time.Duration, message string) {
	r.Add(name, StatusFailed, elapsed, message)
}

// Skip records a skipped check.
func (r *Run) Skip(name, message string) {
	r.Add(name, StatusSkipped, 0, message)
}

// Finish stamps the end of the run.
func (r *Run) Finish() {
	r.Finished = time.Now().UTC()
}

// Failed reports whether any check failed.
func (r *Run) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Elapsed returns the wall time between start and finish, zero while the run
// is still open.
func (r *Run) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// WriteJSON writes the run as indented JSON.
func (r *Run) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return nil
}

type junitMessage struct {
	Message string `xml:"message,attr,omitempty"`
}

type junitTestCase struct {
	Name    string        `xml:"name,attr"`
	Time    string        `xml:"time,attr"`
	Failure *junitMessage `xml:"failure,omitempty"`
	Skipped *junitMessage `xml:"skipped,omitempty"`
}

type junitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []junitTestCase `xml:"testcase"`
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// WriteJUnit writes the run in JUnit XML form for CI ingestion.
func (r *Run) WriteJUnit(w io.Writer) error {
	suite := junitTestSuite{
		Name:      r.Suite,
		Tests:     len(r.Checks),
		Time:      seconds(r.Elapsed()),
		Timestamp: r.Started.Format(time.RFC3339),
	}
	for _, c := range r.Checks {
		tc := junitTestCase{Name: c.Name, Time: seconds(c.Elapsed)}
		switch c.Status {
		case StatusFailed:
			suite.Failures++
			tc.Failure = &junitMessage{Message: c.Message}
		case StatusSkipped:
			suite.Skipped++
			tc.Skipped = &junitMessage{Message: c.Message}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return fmt.Errorf("encode junit: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
