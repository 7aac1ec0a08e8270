package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-runewidth"
)

// IsTTY indicates whether stdout is an interactive terminal.
// When false, UI functions produce plain text without colors or decorations.
var IsTTY = term.IsTerminal(os.Stdout.Fd())

// ═══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Gold   = lipgloss.Color("#F4D03F")
	Copper = lipgloss.Color("#DC7633")

	Purple  = lipgloss.Color("#9B59B6")
	Blue    = lipgloss.Color("#5DADE2")
	Cyan    = lipgloss.Color("#76D7C4")
	Green   = lipgloss.Color("#58D68D")
	Pink    = lipgloss.Color("#FF6B9D")

	White    = lipgloss.Color("#FDFEFE")
	Gray     = lipgloss.Color("#AAB7B8")
	DarkGray = lipgloss.Color("#5D6D7E")
	Black    = lipgloss.Color("#1C2833")
)

// ═══════════════════════════════════════════════════════════════════════════════
// TEXT STYLES
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Error = lipgloss.NewStyle().
		Foreground(Pink).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Copper)

	Muted = lipgloss.NewStyle().
		Foreground(Gray)

	Dim = lipgloss.NewStyle().
		Foreground(DarkGray)

	// File paths in findings
	Path = lipgloss.NewStyle().
		Foreground(Cyan)
)

// ═══════════════════════════════════════════════════════════════════════════════
// BADGES
// ═══════════════════════════════════════════════════════════════════════════════

var baseBadge = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true)

// SkillBadge returns the skill hub badge
func SkillBadge() string {
	if !IsTTY {
		return "[SKILL]"
	}
	return baseBadge.Background(Purple).Foreground(White).Render("✦ SKILL")
}

// ErrorBadge marks an error-severity finding
func ErrorBadge() string {
	if !IsTTY {
		return "[ERR]"
	}
	return baseBadge.Background(Pink).Foreground(White).Render("✗ ERR")
}

// WarnBadge marks a warning-severity finding
func WarnBadge() string {
	if !IsTTY {
		return "[WARN]"
	}
	return baseBadge.Background(Copper).Foreground(White).Render("! WARN")
}

// PassBadge marks a clean run
func PassBadge() string {
	if !IsTTY {
		return "[PASS]"
	}
	return baseBadge.Background(Green).Foreground(Black).Render("✓ PASS")
}

// FailBadge marks a failed run
func FailBadge() string {
	if !IsTTY {
		return "[FAIL]"
	}
	return baseBadge.Background(Pink).Foreground(White).Render("✗ FAIL")
}

// LogoCompact returns a one-line logo for headers
func LogoCompact() string {
	if !IsTTY {
		return "SKILLCHECK"
	}
	mark := lipgloss.NewStyle().Foreground(Green).Render("✓")
	name := lipgloss.NewStyle().Foreground(Gold).Bold(true).Render("SKILLCHECK")
	return fmt.Sprintf(" %s %s ", mark, name)
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECORATIVE ELEMENTS
// ═══════════════════════════════════════════════════════════════════════════════

// SectionHeader creates a decorated section header
func SectionHeader(title string) string {
	if !IsTTY {
		return fmt.Sprintf("=== %s ===", title)
	}

	width := min(TerminalWidth(), 80)

	titleStyled := lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true).
		Render(title)

	titleLen := lipgloss.Width(title)
	padLeft := max((width-titleLen-6)/2, 2)
	padRight := max(width-titleLen-6-padLeft, 2)

	left := lipgloss.NewStyle().Foreground(DarkGray).Render(strings.Repeat("─", padLeft) + "┤ ")
	right := lipgloss.NewStyle().Foreground(DarkGray).Render(" ├" + strings.Repeat("─", padRight))

	return left + titleStyled + right
}

// ═══════════════════════════════════════════════════════════════════════════════
// TABLES
// ═══════════════════════════════════════════════════════════════════════════════

// Table renders rows under a header with columns padded to their widest
// cell. Widths are measured in terminal cells so wide runes line up.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	var b strings.Builder
	b.WriteString(tableLine(header, widths, func(i int) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(Gold).Bold(true)
	}))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(tableLine(row, widths, func(i int) lipgloss.Style {
			if i == 0 {
				return lipgloss.NewStyle().Foreground(White)
			}
			return lipgloss.NewStyle().Foreground(Gray)
		}))
		b.WriteString("\n")
	}
	return b.String()
}

func tableLine(cells []string, widths []int, style func(int) lipgloss.Style) string {
	out := make([]string, 0, len(cells))
	for i, cell := range cells {
		if i < len(cells)-1 && i < len(widths) {
			cell = runewidth.FillRight(cell, widths[i])
		}
		out = append(out, Render(style(i), cell))
	}
	return strings.TrimRight(strings.Join(out, "  "), " ")
}

// ═══════════════════════════════════════════════════════════════════════════════
// STATUS LINE COMPONENTS
// ═══════════════════════════════════════════════════════════════════════════════

// StatusLine creates a status line with icon and message
func StatusLine(icon, message string, color lipgloss.Color) string {
	if !IsTTY {
		return fmt.Sprintf("  %s %s", icon, message)
	}
	iconStyled := lipgloss.NewStyle().Foreground(color).Render(icon)
	msgStyled := lipgloss.NewStyle().Foreground(color).Render(message)
	return fmt.Sprintf("  %s %s", iconStyled, msgStyled)
}

// SuccessLine creates a success status line
func SuccessLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  OK: %s", message)
	}
	return StatusLine("✓", message, Green)
}

// ErrorLine creates an error status line
func ErrorLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  ERROR: %s", message)
	}
	return StatusLine("✗", message, Pink)
}

// WarningLine creates a warning status line
func WarningLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  WARN: %s", message)
	}
	return StatusLine("!", message, Copper)
}

// InfoLine creates an info status line
func InfoLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  %s", message)
	}
	return StatusLine("→", message, Blue)
}

// NoSkills returns the empty state for list
func NoSkills(root string) string {
	if !IsTTY {
		return fmt.Sprintf("\n  No skills found under %s\n  Skills are directories containing a SKILL.md hub.\n", root)
	}

	message := lipgloss.NewStyle().Foreground(Gray).Render("No skills found under " + root)
	hint := lipgloss.NewStyle().Foreground(Cyan).Render("SKILL.md")

	return fmt.Sprintf("\n  %s\n  Skills are directories containing a %s hub.\n", message, hint)
}

// ═══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════════════════

// Truncate shortens text to max terminal cells with an ellipsis
func Truncate(text string, limit int) string {
	if limit <= 0 || runewidth.StringWidth(text) <= limit {
		return text
	}
	return runewidth.Truncate(text, limit, "...")
}

// WrapText wraps text to fit within maxWidth, returning multiple lines.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	width := 0

	for _, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case width == 0:
			current.WriteString(word)
			width = w
		case width+1+w <= maxWidth:
			current.WriteString(" ")
			current.WriteString(word)
			width += 1 + w
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			width = w
		}
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// Render applies a lipgloss style to text, returning plain text in non-TTY environments.
func Render(style lipgloss.Style, text string) string {
	if !IsTTY {
		return text
	}
	return style.Render(text)
}

// RenderMuted renders text in muted style (TTY-aware)
func RenderMuted(text string) string {
	return Render(Muted, text)
}

// RenderDim renders text in dim style (TTY-aware)
func RenderDim(text string) string {
	return Render(Dim, text)
}

// RenderWarning renders text in warning style (TTY-aware)
func RenderWarning(text string) string {
	return Render(Warning, text)
}

// RenderPath renders a file location (TTY-aware)
func RenderPath(text string) string {
	return Render(Path, text)
}

// TerminalWidth returns the current terminal width, defaulting to 80 if unknown
func TerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// DescriptionWidth returns the recommended width for descriptions based on terminal size
func DescriptionWidth() int {
	return max(TerminalWidth()-8, 40)
}

// ═══════════════════════════════════════════════════════════════════════════════
// PAGE TEMPLATES
// ═══════════════════════════════════════════════════════════════════════════════

// PageFooter creates a consistent page footer matching the header width
func PageFooter() string {
	if !IsTTY {
		return "\n"
	}

	width := min(TerminalWidth(), 80)
	padSide := (width - 5) / 2 // 5 = " ✦ " with spaces
	left := strings.Repeat("─", padSide)
	right := strings.Repeat("─", width-padSide-5)
	line := lipgloss.NewStyle().Foreground(DarkGray).Render(left + " ✦ " + right)
	return "\n" + line + "\n"
}
