package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kennyg/skillcheck/internal/config"
	"github.com/kennyg/skillcheck/internal/ghclient"
	"github.com/kennyg/skillcheck/internal/lint"
	"github.com/kennyg/skillcheck/internal/logging"
	"github.com/kennyg/skillcheck/internal/skill"
	"github.com/kennyg/skillcheck/internal/source"
)

// corpus is a skill tree on local disk, downloaded first when remote, with
// its resolved configuration.
type corpus struct {
	dir      string // local directory holding the files
	display  string // how the corpus is named in output
	prefix   string // path from the repository root, for annotations
	rootName string // name of a skill whose hub sits at dir
	cfg      *config.Config
	log      *zap.Logger
	cleanup  func()
}

// openCorpus resolves arg (a directory or GitHub source, "." when empty),
// downloads remote sources to a temporary directory, and loads config.
// Callers must call Close.
func openCorpus(ctx context.Context, arg string) (*corpus, error) {
	if arg == "" {
		arg = "."
	}

	src, err := source.Parse(arg)
	if err != nil {
		return nil, err
	}

	// Until config is loaded only --verbose controls diagnostics
	boot := logging.New(logging.Config{Level: logLevel(""), Format: "console"})

	c := &corpus{cleanup: func() {}}

	switch src.Type {
	case source.TypeLocal:
		info, err := os.Stat(src.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot read corpus: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", src.Original)
		}
		c.dir = src.Path
		c.display = src.Original
		c.prefix = relativeToCwd(src.Path)
		c.rootName = filepath.Base(src.Path)

	case source.TypeGitHub:
		tmp, err := os.MkdirTemp("", "skillcheck-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		c.cleanup = func() { os.RemoveAll(tmp) }

		client := ghclient.NewForHost(src.Host,
			ghclient.WithLogger(boot),
			ghclient.WithFetch(isConfigFile))
		snap, err := client.Download(ctx, src.Owner, src.Repo, src.Ref, src.Path, tmp)
		if err != nil {
			c.cleanup()
			if !client.IsAuthenticated() {
				return nil, fmt.Errorf("%w (set GITHUB_TOKEN for private repositories or higher rate limits)", err)
			}
			return nil, err
		}

		if src.Ref == "" {
			src.Ref = snap.Ref
		}
		c.dir = tmp
		c.display = src.String()
		c.prefix = src.Path
		c.rootName = src.Repo
		if src.Path != "" {
			c.rootName = path.Base(src.Path)
		}
	}

	cfg, err := config.Load(c.dir, configPath)
	if err != nil {
		c.cleanup()
		return nil, err
	}
	c.cfg = cfg
	c.log = logging.New(logging.Config{Level: logLevel(cfg.Log.Level), Format: cfg.Log.Format})

	c.log.Debug("opened corpus",
		zap.String("corpus", c.display),
		zap.String("dir", c.dir),
		zap.String("config", cfg.Source))

	return c, nil
}

// Close removes any downloaded files.
func (c *corpus) Close() {
	_ = c.log.Sync()
	c.cleanup()
}

func (c *corpus) fsys() fs.FS {
	return os.DirFS(c.dir)
}

// readFile reads a slash-separated corpus path.
func readFile(c *corpus, name string) ([]byte, error) {
	return fs.ReadFile(c.fsys(), name)
}

// lintOptions maps configuration onto linter options.
func (c *corpus) lintOptions() lint.Options {
	return lint.Options{
		Index:                  c.cfg.Index,
		RootName:               c.rootName,
		Required:               c.cfg.Required,
		Ignore:                 c.cfg.Ignore,
		MaxNameLength:          c.cfg.MaxNameLength,
		MaxDescriptionLength:   c.cfg.MaxDescriptionLength,
		MaxCompatibilityLength: c.cfg.MaxCompatibilityLength,
		CheckAnchors:           c.cfg.CheckAnchors,
		RequireIndexCoverage:   c.cfg.RequireIndexCoverage,
		RequireSpokeCoverage:   c.cfg.RequireSpokeCoverage,
	}
}

// discover lists the corpus's skills using the configured ignores.
func (c *corpus) discover() (*skill.Tree, error) {
	return skill.Discover(c.fsys(), skill.DiscoverOptions{
		Ignore:   c.cfg.Ignore,
		Index:    c.cfg.Index,
		RootName: c.rootName,
	})
}

func logLevel(configured string) string {
	if verbose {
		return "debug"
	}
	if configured == "" {
		return "warn"
	}
	return configured
}

// isConfigFile selects project config files in a download.
func isConfigFile(rel string) bool {
	return rel == config.DotFile || rel == path.Join(".config", config.ConfigDir, config.ConfigFile)
}

// relativeToCwd returns dir relative to the working directory when it lies
// beneath it, else "".
func relativeToCwd(dir string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(cwd, dir)
	if err != nil || !filepath.IsLocal(rel) {
		return ""
	}
	return filepath.ToSlash(rel)
}
