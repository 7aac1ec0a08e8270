package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kennyg/skillcheck/internal/skill"
	"github.com/kennyg/skillcheck/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list [path|source]",
	Aliases: []string{"ls", "skills"},
	Short:   "List the skills in a corpus",
	Long: `List every skill hub with its version, reference count and description.

Examples:
  skillcheck list
  skillcheck list acme/skills --json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
}

// skillEntry summarises one skill for list output
type skillEntry struct {
	Name        string `json:"name"`
	Hub         string `json:"hub"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Spokes      int    `json:"spokes"`
	Invalid     bool   `json:"invalid,omitempty"`
}

func runList(cmd *cobra.Command, args []string) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	if err := list(cmd.Context(), cmd.OutOrStdout(), arg, listJSON); err != nil {
		exitWithError(err.Error())
	}
}

// list opens the corpus named by arg and prints its skills. The corpus is
// closed before returning so downloads are removed even on error.
func list(ctx context.Context, w io.Writer, arg string, asJSON bool) error {
	c, err := openCorpus(ctx, arg)
	if err != nil {
		return err
	}
	defer c.Close()

	return listSkills(w, c, asJSON)
}

func listSkills(w io.Writer, c *corpus, asJSON bool) error {
	tree, err := c.discover()
	if err != nil {
		return err
	}

	entries := make([]skillEntry, 0, len(tree.Skills))
	for _, s := range tree.Skills {
		entries = append(entries, describeSkill(c, s))
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprint(w, ui.NoSkills(c.display))
		return err
	}

	rows := make([][]string, 0, len(entries))
	descWidth := max(ui.DescriptionWidth()-40, 20)
	for _, e := range entries {
		desc := ui.Truncate(e.Description, descWidth)
		if e.Invalid {
			desc = ui.RenderWarning("invalid frontmatter")
		}
		version := e.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{e.Name, version, strconv.Itoa(e.Spokes), desc})
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SectionHeader(fmt.Sprintf("Skills in %s", c.display)))
	fmt.Fprintln(w)
	fmt.Fprint(w, ui.Table([]string{"NAME", "VERSION", "REFS", "DESCRIPTION"}, rows))
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("  %d skill(s)", len(entries))))
	_, err = fmt.Fprint(w, ui.PageFooter())
	return err
}

// describeSkill reads a hub's header. Hubs that fail to parse are still
// listed so the user can find them.
func describeSkill(c *corpus, s *skill.Skill) skillEntry {
	e := skillEntry{Name: s.Name, Hub: s.Hub, Spokes: len(s.Spokes)}
	if e.Name == "" {
		e.Name = c.rootName
	}

	content, err := readFile(c, s.Hub)
	if err != nil {
		e.Invalid = true
		return e
	}
	h, _, err := skill.ParseHeader(content)
	if err != nil || h == nil {
		e.Invalid = true
		return e
	}

	if h.Name != "" {
		e.Name = h.Name
	}
	e.Description = h.Description
	e.Version = h.Metadata.Version
	e.Author = h.Metadata.Author
	return e
}
