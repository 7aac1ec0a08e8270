package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kennyg/skillcheck/internal/skill"
	"github.com/kennyg/skillcheck/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show <skill> [path|source]",
	Aliases: []string{"peek", "view"},
	Short:   "Render a skill's hub",
	Long: `Show a skill's frontmatter and render its SKILL.md body, followed by
the references that make up its spokes.

Examples:
  skillcheck show checkout
  skillcheck show checkout acme/skills --raw`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runShow,
}

var showRaw bool

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print SKILL.md unrendered")
}

func runShow(cmd *cobra.Command, args []string) {
	var arg string
	if len(args) > 1 {
		arg = args[1]
	}

	if err := show(cmd.Context(), cmd.OutOrStdout(), arg, args[0], showRaw); err != nil {
		exitWithError(err.Error())
	}
}

func show(ctx context.Context, w io.Writer, arg, name string, raw bool) error {
	c, err := openCorpus(ctx, arg)
	if err != nil {
		return err
	}
	defer c.Close()

	return showSkill(w, c, name, raw)
}

func showSkill(w io.Writer, c *corpus, name string, raw bool) error {
	tree, err := c.discover()
	if err != nil {
		return err
	}

	s := findSkill(c, tree, name)
	if s == nil {
		var names []string
		for _, s := range tree.Skills {
			names = append(names, describeSkill(c, s).Name)
		}
		sort.Strings(names)
		if len(names) == 0 {
			return fmt.Errorf("skill %q not found: %s has no skills", name, c.display)
		}
		return fmt.Errorf("skill %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	content, err := readFile(c, s.Hub)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.Hub, err)
	}

	if raw {
		_, err := w.Write(content)
		return err
	}

	h, doc, err := skill.ParseHeader(content)
	if err != nil {
		// Render what we can; check reports the details
		fmt.Fprintln(w, ui.WarningLine(fmt.Sprintf("%s: %v", s.Hub, err)))
		h = &skill.Header{}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionHeader(describeSkill(c, s).Name))
	fmt.Fprintln(w)

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %s %s\n", ui.RenderMuted(fmt.Sprintf("%-13s", label)), value)
		}
	}
	fmt.Fprintf(w, "  %s %s\n\n", ui.SkillBadge(), ui.RenderPath(s.Hub))
	if h.Description != "" {
		lines := ui.WrapText(h.Description, ui.DescriptionWidth()-16)
		field("description", strings.Join(lines, "\n                "))
	}
	field("license", h.License)
	field("version", h.Metadata.Version)
	field("author", h.Metadata.Author)
	field("compatibility", h.Compatibility)
	if len(h.AllowedTools) > 0 {
		field("allowed-tools", strings.Join(h.AllowedTools, ", "))
	}
	fmt.Fprintln(w)

	body := string(content)
	if doc != nil && doc.Frontmatter != nil {
		body = doc.Body
	}
	rendered, err := ui.RenderMarkdown(body)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", s.Hub, err)
	}
	fmt.Fprint(w, rendered)

	if len(s.Spokes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, ui.SectionHeader("References"))
		fmt.Fprintln(w)
		for _, spoke := range s.Spokes {
			fmt.Fprintln(w, ui.InfoLine(spoke))
		}
	}

	_, err = fmt.Fprint(w, ui.PageFooter())
	return err
}

// findSkill matches by directory name first, then by frontmatter name.
func findSkill(c *corpus, tree *skill.Tree, name string) *skill.Skill {
	if s := tree.SkillByName(name); s != nil {
		return s
	}
	for _, s := range tree.Skills {
		if describeSkill(c, s).Name == name {
			return s
		}
	}
	return nil
}
