// Package report renders a lint.Report as terminal text, JSON, or GitHub
// Actions workflow annotations.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kennyg/skillcheck/internal/lint"
	"github.com/kennyg/skillcheck/internal/ui"
)

// Format selects the output renderer.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatGitHub Format = "github"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatGitHub:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q: want text, json or github", s)
	}
}

// Options control rendering.
type Options struct {
	Format Format
	Strict bool
	// PathPrefix is joined in front of violation paths in annotations so
	// they resolve from the repository root.
	PathPrefix string
}

// Write renders rep in the selected format.
func Write(w io.Writer, rep *lint.Report, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return WriteJSON(w, rep, opts.Strict)
	case FormatGitHub:
		return WriteGitHub(w, rep, opts.Strict, opts.PathPrefix)
	default:
		return WriteText(w, rep, opts.Strict)
	}
}

// WriteText renders findings grouped by file with a summary line.
func WriteText(w io.Writer, rep *lint.Report, strict bool) error {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ui.SectionHeader("Checking " + rep.Root))
	b.WriteString("\n\n")

	current := ""
	for _, v := range rep.Violations {
		if v.Path != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = v.Path
			b.WriteString("  " + ui.RenderPath(v.Path) + "\n")
		}

		badge := ui.ErrorBadge()
		if v.Severity == lint.SeverityWarning {
			badge = ui.WarnBadge()
		}
		loc := "-"
		if v.Line > 0 {
			loc = fmt.Sprintf("%d", v.Line)
		}
		fmt.Fprintf(&b, "    %s %s %s %s\n",
			badge,
			ui.RenderDim(fmt.Sprintf("%4s", loc)),
			v.Message(),
			ui.RenderMuted("("+string(v.Rule)+")"))
	}
	if len(rep.Violations) > 0 {
		b.WriteString("\n")
	}

	errs, warns := len(rep.Errors()), len(rep.Warnings())
	summary := fmt.Sprintf("%s, %s: %s, %s",
		plural(rep.Files, "file"), plural(rep.Skills, "skill"),
		plural(errs, "error"), plural(warns, "warning"))

	switch {
	case !rep.Passed(strict):
		fmt.Fprintf(&b, "  %s %s\n", ui.FailBadge(), summary)
		if errs == 0 && strict {
			b.WriteString(ui.RenderMuted("    warnings fail the run in strict mode") + "\n")
		}
	default:
		fmt.Fprintf(&b, "  %s %s\n", ui.PassBadge(), summary)
	}
	b.WriteString(ui.PageFooter())

	_, err := io.WriteString(w, b.String())
	return err
}

type jsonViolation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Line     int    `json:"line,omitempty"`
	Field    string `json:"field,omitempty"`
	Target   string `json:"target,omitempty"`
	Message  string `json:"message"`
}

type jsonReport struct {
	Root       string          `json:"root"`
	Passed     bool            `json:"passed"`
	Strict     bool            `json:"strict"`
	Files      int             `json:"files"`
	Skills     int             `json:"skills"`
	Errors     int             `json:"errors"`
	Warnings   int             `json:"warnings"`
	Violations []jsonViolation `json:"violations"`
}

// WriteJSON renders the report as a single indented JSON object.
func WriteJSON(w io.Writer, rep *lint.Report, strict bool) error {
	out := jsonReport{
		Root:       rep.Root,
		Passed:     rep.Passed(strict),
		Strict:     strict,
		Files:      rep.Files,
		Skills:     rep.Skills,
		Errors:     len(rep.Errors()),
		Warnings:   len(rep.Warnings()),
		Violations: make([]jsonViolation, 0, len(rep.Violations)),
	}
	for _, v := range rep.Violations {
		out.Violations = append(out.Violations, jsonViolation{
			Rule:     string(v.Rule),
			Severity: string(v.Severity),
			Path:     v.Path,
			Line:     v.Line,
			Field:    v.Field(),
			Target:   v.Target(),
			Message:  v.Message(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteGitHub renders one workflow command per violation, e.g.
//
//	::error file=skills/a/SKILL.md,line=3,title=format::invalid name ...
func WriteGitHub(w io.Writer, rep *lint.Report, strict bool, prefix string) error {
	for _, v := range rep.Violations {
		level := "error"
		if v.Severity == lint.SeverityWarning && !strict {
			level = "warning"
		}

		file := v.Path
		if prefix != "" && prefix != "." {
			file = path.Join(prefix, v.Path)
		}

		props := "file=" + escapeProperty(file)
		if v.Line > 0 {
			props += fmt.Sprintf(",line=%d", v.Line)
		}
		props += ",title=" + escapeProperty("skillcheck "+string(v.Rule))

		if _, err := fmt.Fprintf(w, "::%s %s::%s\n", level, props, escapeData(v.Message())); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "skillcheck: %s, %s\n",
		plural(len(rep.Errors()), "error"), plural(len(rep.Warnings()), "warning"))
	return err
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(s string) string     { return dataEscaper.Replace(s) }
func escapeProperty(s string) string { return propertyEscaper.Replace(s) }

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
