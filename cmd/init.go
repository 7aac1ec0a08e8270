package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kennyg/skillcheck/internal/config"
	"github.com/kennyg/skillcheck/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config for a corpus",
	Long: `Write the built-in configuration to .config/skillcheck/config.yaml under
the corpus root (default: .), ready to edit.

Examples:
  skillcheck init
  skillcheck init docs --dotfile`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInit,
}

var (
	initForce   bool
	initDotfile bool
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	initCmd.Flags().BoolVar(&initDotfile, "dotfile", false, "Write .skillcheck.yaml instead")
}

func runInit(cmd *cobra.Command, args []string) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	if _, err := writeDefaultConfig(cmd.OutOrStdout(), root, initForce, initDotfile); err != nil {
		exitWithError(err.Error())
	}
}

func writeDefaultConfig(w io.Writer, root string, force, dotfile bool) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot read corpus root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}

	path := config.ProjectPath(root)
	if dotfile {
		path = filepath.Join(root, config.DotFile)
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Write(path, config.Default()); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.SuccessLine("Wrote "+path))
	fmt.Fprintln(w, ui.RenderMuted("    Run `skillcheck check "+root+"` to validate the corpus"))
	fmt.Fprintln(w)
	return path, nil
}
