// Package ghclient provides a GitHub API client using go-github
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v67/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/kennyg/skillcheck/internal/skill"
)

// Client wraps the go-github client
type Client struct {
	gh            *github.Client
	authenticated bool
	log           *zap.Logger

	// fetch selects non-Markdown files to download in full
	fetch func(rel string) bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithFetch downloads files matching match in full, in addition to Markdown.
// match receives paths relative to the download destination.
func WithFetch(match func(rel string) bool) Option {
	return func(c *Client) {
		c.fetch = match
	}
}

// New creates a new GitHub client
// Token resolution order: GITHUB_TOKEN, GH_TOKEN, gh CLI config, unauthenticated
func New(opts ...Option) *Client {
	return newClient("github.com", opts...)
}

// NewForHost creates a GitHub client for a specific host (GitHub Enterprise)
func NewForHost(host string, opts ...Option) *Client {
	if host == "" || host == "api.github.com" {
		host = "github.com"
	}
	c := newClient(host, opts...)

	if host != "github.com" {
		c.gh.BaseURL, _ = url.Parse(fmt.Sprintf("https://%s/api/v3/", host))
		c.gh.UploadURL, _ = url.Parse(fmt.Sprintf("https://%s/api/uploads/", host))
	}

	return c
}

func newClient(host string, opts ...Option) *Client {
	token := getToken(host)

	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	c := &Client{
		gh:            github.NewClient(httpClient),
		authenticated: token != "",
		log:           zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsAuthenticated returns true if the client has a token
func (c *Client) IsAuthenticated() bool {
	return c.authenticated
}

// Snapshot describes a downloaded corpus.
type Snapshot struct {
	Ref          string // resolved ref the tree was read at
	Files        int    // files written, placeholders included
	Placeholders int    // non-Markdown files written empty
}

// Download materialises a repository tree, or the subtree under subpath,
// into dest. Markdown files and any selected by WithFetch are fetched in
// full. Other files are written empty so link existence checks still see
// them. An empty ref selects the default branch.
func (c *Client) Download(ctx context.Context, owner, repo, ref, subpath, dest string) (*Snapshot, error) {
	if ref == "" {
		r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
		}
		ref = r.GetDefaultBranch()
		c.log.Debug("resolved default branch", zap.String("repo", owner+"/"+repo), zap.String("ref", ref))
	}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree %s/%s@%s: %w", owner, repo, ref, err)
	}
	if tree.GetTruncated() {
		c.log.Warn("repository tree truncated by the API, some files may be missing",
			zap.String("repo", owner+"/"+repo), zap.Int("entries", len(tree.Entries)))
	}

	subpath = strings.Trim(subpath, "/")
	snap := &Snapshot{Ref: ref}
	matched := subpath == ""

	for _, entry := range tree.Entries {
		rel, ok := within(entry.GetPath(), subpath)
		if !ok {
			continue
		}
		matched = true
		if rel == "" {
			continue
		}
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("refusing to write tree entry outside destination: %s", entry.GetPath())
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))

		switch entry.GetType() {
		case "tree":
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		case "blob":
			var content []byte
			if skill.IsMarkdown(rel) || (c.fetch != nil && c.fetch(rel)) {
				content, _, err = c.gh.Git.GetBlobRaw(ctx, owner, repo, entry.GetSHA())
				if err != nil {
					return nil, fmt.Errorf("failed to get %s: %w", entry.GetPath(), err)
				}
			} else {
				snap.Placeholders++
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(target, content, 0644); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", rel, err)
			}
			snap.Files++
		default:
			// Submodules have no content in this repository
			c.log.Debug("skipping tree entry", zap.String("path", entry.GetPath()), zap.String("type", entry.GetType()))
		}
	}

	if !matched {
		return nil, fmt.Errorf("path %q not found in %s/%s@%s", subpath, owner, repo, ref)
	}

	c.log.Debug("downloaded corpus",
		zap.String("repo", owner+"/"+repo),
		zap.String("ref", ref),
		zap.Int("files", snap.Files),
		zap.Int("placeholders", snap.Placeholders))
	return snap, nil
}

// within returns p relative to dir when p is dir or lies beneath it.
func within(p, dir string) (string, bool) {
	if dir == "" {
		return p, true
	}
	if p == dir {
		return "", true
	}
	rel, ok := strings.CutPrefix(p, dir+"/")
	return path.Clean(rel), ok
}

// getToken attempts to get a GitHub token from various sources
func getToken(host string) string {
	// 1. GITHUB_TOKEN env var
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}

	// 2. GH_TOKEN env var (gh CLI compat)
	if token := os.Getenv("GH_TOKEN"); token != "" {
		return token
	}

	// 3. Try gh CLI config
	if token := readGhToken(host); token != "" {
		return token
	}

	// 4. Unauthenticated (60 req/hr)
	return ""
}

// ghHostsConfig represents the gh CLI hosts.yml config
type ghHostsConfig map[string]struct {
	OAuthToken string `yaml:"oauth_token"`
}

// readGhToken reads the token for host from gh CLI config
func readGhToken(host string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	hostsPath := filepath.Join(homeDir, ".config", "gh", "hosts.yml")
	data, err := os.ReadFile(hostsPath)
	if err != nil {
		return ""
	}

	var hosts ghHostsConfig
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return ""
	}
	if h, ok := hosts[host]; ok {
		return h.OAuthToken
	}
	return ""
}
