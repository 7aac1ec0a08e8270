package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kennyg/skillcheck/internal/lint"
	"github.com/kennyg/skillcheck/internal/ui"
)

func sample() *lint.Report {
	return &lint.Report{
		Root:   "docs",
		Files:  4,
		Skills: 2,
		Violations: []lint.Violation{
			{
				Rule:     lint.RuleMissingField,
				Severity: lint.SeverityError,
				Path:     "skills/checkout/SKILL.md",
				Line:     1,
				Err:      &lint.MissingFieldError{Field: "license"},
			},
			{
				Rule:     lint.RuleBrokenLink,
				Severity: lint.SeverityError,
				Path:     "skills/checkout/SKILL.md",
				Line:     12,
				Err:      &lint.BrokenLinkError{Target: "refs/a,b.md", Reason: "target does not exist"},
			},
			{
				Rule:     lint.RuleOrphanSpoke,
				Severity: lint.SeverityWarning,
				Path:     "skills/checkout/references/old.md",
				Err:      &lint.OrphanError{Path: "skills/checkout/references/old.md", Parent: "skills/checkout/SKILL.md"},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" github ", FormatGitHub, false},
		{"sarif", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample(), false); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var got jsonReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.Passed {
		t.Error("expected passed=false with errors present")
	}
	if got.Errors != 2 || got.Warnings != 1 {
		t.Errorf("errors/warnings = %d/%d, want 2/1", got.Errors, got.Warnings)
	}
	if len(got.Violations) != 3 {
		t.Fatalf("got %d violations, want 3", len(got.Violations))
	}
	if got.Violations[0].Field != "license" {
		t.Errorf("field = %q, want license", got.Violations[0].Field)
	}
	if got.Violations[1].Target != "refs/a,b.md" || got.Violations[1].Line != 12 {
		t.Errorf("violation[1] = %+v", got.Violations[1])
	}
	if got.Violations[2].Severity != "warning" {
		t.Errorf("severity = %q, want warning", got.Violations[2].Severity)
	}
}

func TestWriteJSON_EmptyViolationsIsArray(t *testing.T) {
	var buf bytes.Buffer
	rep := &lint.Report{Root: ".", Files: 1}
	if err := WriteJSON(&buf, rep, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"violations": []`) {
		t.Errorf("expected empty array, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `"passed": true`) {
		t.Errorf("expected passed=true, got:\n%s", buf.String())
	}
}

func TestWriteGitHub(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGitHub(&buf, sample(), false, "docs"); err != nil {
		t.Fatalf("WriteGitHub() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		`::error file=docs/skills/checkout/SKILL.md,line=1,title=skillcheck missing-field::missing required field "license"`,
		`::error file=docs/skills/checkout/SKILL.md,line=12,title=skillcheck broken-link::broken link "refs/a,b.md": target does not exist`,
		`::warning file=docs/skills/checkout/references/old.md,title=skillcheck orphan-spoke::skills/checkout/references/old.md is not linked from skills/checkout/SKILL.md`,
		`skillcheck: 2 errors, 1 warning`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d:\n got  %s\n want %s", i, lines[i], want[i])
		}
	}
}

func TestWriteGitHub_StrictPromotesWarnings(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGitHub(&buf, sample(), true, ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "::warning") {
		t.Errorf("strict mode should report warnings as errors:\n%s", buf.String())
	}
}

func TestEscape(t *testing.T) {
	if got := escapeProperty("a:b,c%"); got != "a%3Ab%2Cc%25" {
		t.Errorf("escapeProperty() = %q", got)
	}
	if got := escapeData("line1\nline2"); got != "line1%0Aline2" {
		t.Errorf("escapeData() = %q", got)
	}
}

func TestWriteText(t *testing.T) {
	orig := ui.IsTTY
	ui.IsTTY = false
	t.Cleanup(func() { ui.IsTTY = orig })

	var buf bytes.Buffer
	if err := WriteText(&buf, sample(), false); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"=== Checking docs ===",
		"  skills/checkout/SKILL.md\n",
		"[ERR]    1 missing required field \"license\" (missing-field)",
		"[WARN]    - skills/checkout/references/old.md is not linked",
		"[FAIL] 4 files, 2 skills: 2 errors, 1 warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_Pass(t *testing.T) {
	orig := ui.IsTTY
	ui.IsTTY = false
	t.Cleanup(func() { ui.IsTTY = orig })

	rep := &lint.Report{Root: ".", Files: 1, Skills: 1}

	var buf bytes.Buffer
	if err := WriteText(&buf, rep, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[PASS] 1 file, 1 skill: 0 errors, 0 warnings") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
