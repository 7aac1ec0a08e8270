package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kennyg/skillcheck/internal/lint"
	"github.com/kennyg/skillcheck/internal/report"
)

var checkCmd = &cobra.Command{
	Use:     "check [path|source]",
	Aliases: []string{"validate", "lint"},
	Short:   "Validate a skill corpus",
	Long: `Validate every Markdown file under a corpus root.

Checks:
  - SKILL.md hubs have frontmatter with the required keys
  - name, description, license, compatibility and metadata are well formed
  - relative links and #anchors resolve inside the corpus
  - every skill is linked from the index and every reference from its hub
  - no two skills share a name

Sources can be:
  ./path                  Local directory (default: .)
  owner/repo              GitHub repository
  owner/repo:path@ref     Subdirectory at a branch, tag or commit
  https://github.com/...  Repository or tree URL

Exit status is 0 when the corpus passes and 1 otherwise.

Examples:
  skillcheck check
  skillcheck check docs --strict
  skillcheck check acme/skills@v2 --format github`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCheck,
}

var (
	checkJSON   bool
	checkFormat string
	checkStrict bool
)

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output as JSON (same as --format json)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format: text, json or github")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat warnings as failures")
}

func runCheck(cmd *cobra.Command, args []string) {
	format, err := report.ParseFormat(checkFormat)
	if err != nil {
		exitWithError(err.Error())
	}
	if checkJSON {
		format = report.FormatJSON
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	passed, err := check(cmd.Context(), cmd.OutOrStdout(), arg, format, checkStrict)
	if err != nil {
		exitWithError(err.Error())
	}
	if !passed {
		os.Exit(1)
	}
}

// check validates the corpus named by arg and writes the report to w. It
// returns whether the corpus passed.
func check(ctx context.Context, w io.Writer, arg string, format report.Format, strict bool) (bool, error) {
	c, err := openCorpus(ctx, arg)
	if err != nil {
		return false, err
	}
	defer c.Close()

	strict = strict || c.cfg.Strict

	rep, err := lint.New(c.fsys(), c.lintOptions(), lint.WithLogger(c.log)).Run(ctx)
	if err != nil {
		return false, fmt.Errorf("check failed: %w", err)
	}
	rep.Root = c.display

	c.log.Debug("check complete",
		zap.Int("errors", len(rep.Errors())),
		zap.Int("warnings", len(rep.Warnings())),
		zap.Bool("strict", strict))

	if err := report.Write(w, rep, report.Options{
		Format:     format,
		Strict:     strict,
		PathPrefix: c.prefix,
	}); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}

	return rep.Passed(strict), nil
}
