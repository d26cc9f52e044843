// Package doctor runs diagnostic checks over the profiles file and the
// interpreters it describes: is the file valid, can each interpreter be
// found, can remote hosts be reached, and does a session actually start.
package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/vorax/internal/util"
	"github.com/sourcegraph/conc/iter"
)

// Status is the outcome of a check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusPass, StatusWarn, StatusFail} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Report categories, in the order they are printed.
const (
	CategoryConfig      = "CONFIG"
	CategoryProfiles    = "PROFILES"
	CategoryInterpreter = "INTERPRETER"
	CategorySSH         = "SSH"
	CategorySession     = "SESSION"
)

var categoryOrder = []string{CategoryConfig, CategoryProfiles, CategoryInterpreter, CategorySSH, CategorySession}

// Result is what one check found.
type Result struct {
	Category   string `json:"category"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Category() string
	Run(ctx context.Context) Result
}

// Run executes checks concurrently and returns their results in the order
// the checks were given.
func Run(ctx context.Context, checks []Check) []Result {
	return iter.Map(checks, func(c *Check) Result {
		check := *c
		r := check.Run(ctx)
		r.Name = check.Name()
		r.Category = check.Category()
		return r
	})
}

// Group is the results of one category.
type Group struct {
	Category string
	Results  []Result
}

// GroupByCategory orders results by report category, keeping the original
// order inside each category. Unknown categories come last.
func GroupByCategory(results []Result) []Group {
	byCat := make(map[string][]Result)
	var extra []string
	for _, r := range results {
		if _, seen := byCat[r.Category]; !seen && !isKnownCategory(r.Category) {
			extra = append(extra, r.Category)
		}
		byCat[r.Category] = append(byCat[r.Category], r)
	}

	var groups []Group
	for _, cat := range append(append([]string(nil), categoryOrder...), extra...) {
		if rs := byCat[cat]; len(rs) > 0 {
			groups = append(groups, Group{Category: cat, Results: rs})
		}
	}
	return groups
}

func isKnownCategory(cat string) bool {
	for _, c := range categoryOrder {
		if c == cat {
			return true
		}
	}
	return false
}

// CountByStatus counts results by status.
func CountByStatus(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// HasFailures reports whether any check failed.
func HasFailures(results []Result) bool {
	return CountByStatus(results)[StatusFail] > 0
}

// Summary is the one-line verdict printed under the report.
func Summary(results []Result) string {
	counts := CountByStatus(results)
	issues := counts[StatusWarn] + counts[StatusFail]
	if issues == 0 {
		return "Everything looks good"
	}
	return fmt.Sprintf("%d %s found", issues, util.Pluralize(issues, "issue", "issues"))
}

func pass(format string, args ...interface{}) Result {
	return Result{Status: StatusPass, Message: fmt.Sprintf(format, args...)}
}

func warn(suggestion, format string, args ...interface{}) Result {
	return Result{Status: StatusWarn, Message: fmt.Sprintf(format, args...), Suggestion: suggestion}
}

func fail(suggestion, format string, args ...interface{}) Result {
	return Result{Status: StatusFail, Message: fmt.Sprintf(format, args...), Suggestion: suggestion}
}
