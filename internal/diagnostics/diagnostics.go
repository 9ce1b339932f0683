// Package diagnostics collects the structured warning stream produced
// while building the model: resolution fallbacks, member conflicts,
// module-group problems and skipped patch hooks. Diagnostics are never
// fatal; the pipeline always completes and hands the full stream to
// the caller alongside the model.
package diagnostics

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

// Code identifies the diagnostic category.
type Code string

const (
	CodeUnresolvedReference Code = "unresolved-reference"
	CodeScopedOverGlobal    Code = "scoped-over-global"
	CodeMemberConflict      Code = "member-conflict"
	CodeModuleConflict      Code = "module-conflict"
	CodeModuleFailed        Code = "module-failed"
	CodePatchSkipped        Code = "patch-skipped"
)

// Diagnostic is a single entry in the stream.
type Diagnostic struct {
	Severity  Severity
	Code      Code
	Namespace string // namespace the entry concerns, may be empty
	Subject   string // declaration or member path, may be empty
	Message   string
}

func (d Diagnostic) String() string {
	where := d.Namespace
	if d.Subject != "" {
		where = where + "." + d.Subject
	}
	if where == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, where, d.Message)
}

// Collector accumulates diagnostics from all pipeline stages. Safe for
// concurrent use: the per-namespace phase runs on a worker pool.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

func (c *Collector) Infof(code Code, namespace, subject, format string, args ...any) {
	c.Add(Diagnostic{Severity: Info, Code: code, Namespace: namespace, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (c *Collector) Warnf(code Code, namespace, subject, format string, args ...any) {
	c.Add(Diagnostic{Severity: Warning, Code: code, Namespace: namespace, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (c *Collector) Errorf(code Code, namespace, subject, format string, args ...any) {
	c.Add(Diagnostic{Severity: Error, Code: code, Namespace: namespace, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// All returns a copy of the collected stream in insertion order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Len reports the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Report is the finished diagnostic surface of one run, consumable
// independently of the model for tooling and reporting.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Diagnostics []Diagnostic
}

// NewReport snapshots the collector into a report with a fresh run ID.
func NewReport(c *Collector) Report {
	return Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Diagnostics: c.All(),
	}
}

// Counts tallies entries per severity.
func (r Report) Counts() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, d := range r.Diagnostics {
		counts[d.Severity]++
	}
	return counts
}
