package lint

import (
	"errors"
	"sort"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule identifies the check that produced a violation.
type Rule string

const (
	RuleMissingField  Rule = "missing-field"
	RuleFormat        Rule = "format"
	RuleBrokenLink    Rule = "broken-link"
	RuleDuplicateName Rule = "duplicate-name"
	RuleOrphanSkill   Rule = "orphan-skill"
	RuleOrphanSpoke   Rule = "orphan-spoke"
	RuleMissingIndex  Rule = "missing-index"
)

// Violation is a single finding.
type Violation struct {
	Rule     Rule
	Severity Severity
	Path     string // slash-separated, relative to the corpus root
	Line     int    // 1-based, 0 when the finding is about the whole file
	Err      error
}

// Message returns the human-readable description.
func (v Violation) Message() string {
	return v.Err.Error()
}

// Field returns the frontmatter key involved, if any.
func (v Violation) Field() string {
	var missing *MissingFieldError
	if errors.As(v.Err, &missing) {
		return missing.Field
	}
	var format *FormatError
	if errors.As(v.Err, &format) {
		return format.Field
	}
	return ""
}

// Target returns the link target involved, if any.
func (v Violation) Target() string {
	var broken *BrokenLinkError
	if errors.As(v.Err, &broken) {
		return broken.Target
	}
	return ""
}

// Report is the outcome of a run.
type Report struct {
	Root       string
	Files      int
	Skills     int
	Violations []Violation
}

// Errors returns the error-severity violations.
func (r *Report) Errors() []Violation {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity violations.
func (r *Report) Warnings() []Violation {
	return r.filter(SeverityWarning)
}

// Passed reports whether the run succeeded. Under strict, warnings fail too.
func (r *Report) Passed(strict bool) bool {
	if len(r.Errors()) > 0 {
		return false
	}
	return !strict || len(r.Warnings()) == 0
}

func (r *Report) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

func (r *Report) add(rule Rule, sev Severity, path string, line int, err error) {
	r.Violations = append(r.Violations, Violation{
		Rule:     rule,
		Severity: sev,
		Path:     path,
		Line:     line,
		Err:      err,
	})
}

// sort orders violations by path, then line, then rule.
func (r *Report) sort() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}
