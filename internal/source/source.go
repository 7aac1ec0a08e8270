// Package source parses the corpus argument of a check: a local directory or
// a GitHub repository, optionally narrowed to a subdirectory and ref.
package source

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Type represents the source type
type Type string

const (
	TypeGitHub Type = "github"
	TypeLocal  Type = "local"
)

// Source represents a parsed corpus source
type Source struct {
	Type     Type
	Host     string // GitHub host (github.com or GHE hostname)
	Owner    string // GitHub owner
	Repo     string // GitHub repo
	Path     string // Subpath within repo or local path
	Ref      string // Git ref (branch, tag, commit); empty means the default branch
	Original string // Original input string
}

var (
	// Matches owner/repo or owner/repo:path
	githubShorthand = regexp.MustCompile(`^([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)(?::(.+))?$`)

	// Matches owner/repo@ref or owner/repo:path@ref
	githubWithRef = regexp.MustCompile(`^([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)(?::([^@]+))?@(.+)$`)
)

// Parse parses a source string into a Source struct
func Parse(input string) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty source")
	}

	if isLocalPath(input) {
		absPath, err := filepath.Abs(expandHome(input))
		if err != nil {
			return nil, fmt.Errorf("invalid local path: %w", err)
		}
		return &Source{
			Type:     TypeLocal,
			Path:     absPath,
			Original: input,
		}, nil
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return parseURL(input)
	}

	if matches := githubWithRef.FindStringSubmatch(input); matches != nil {
		return &Source{
			Type:     TypeGitHub,
			Host:     "github.com",
			Owner:    matches[1],
			Repo:     matches[2],
			Path:     cleanSubpath(matches[3]),
			Ref:      matches[4],
			Original: input,
		}, nil
	}

	if matches := githubShorthand.FindStringSubmatch(input); matches != nil {
		return &Source{
			Type:     TypeGitHub,
			Host:     "github.com",
			Owner:    matches[1],
			Repo:     matches[2],
			Path:     cleanSubpath(matches[3]),
			Original: input,
		}, nil
	}

	return nil, fmt.Errorf("unable to parse source: %s", input)
}

func parseURL(input string) (*Source, error) {
	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !isGitHubHost(u.Host) {
		return nil, fmt.Errorf("unsupported source host %q: only GitHub repositories can be checked remotely", u.Host)
	}
	if strings.HasPrefix(strings.ToLower(u.Host), "raw.") {
		return nil, fmt.Errorf("raw file URLs are not supported, use a repository or tree URL: %s", input)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid GitHub URL: %s", input)
	}

	src := &Source{
		Type:     TypeGitHub,
		Host:     u.Host,
		Owner:    parts[0],
		Repo:     strings.TrimSuffix(parts[1], ".git"),
		Original: input,
	}

	// github.com/owner/repo/tree/ref/path, also /blob/ for a single file's directory
	if len(parts) >= 4 && (parts[2] == "tree" || parts[2] == "blob") {
		src.Ref = parts[3]
		if len(parts) > 4 {
			sub := strings.Join(parts[4:], "/")
			if parts[2] == "blob" {
				sub = filepath.ToSlash(filepath.Dir(sub))
			}
			src.Path = cleanSubpath(sub)
		}
	}

	return src, nil
}

// isGitHubHost checks if a host is GitHub (public or enterprise)
func isGitHubHost(host string) bool {
	lowerHost := strings.ToLower(host)
	if lowerHost == "github.com" || lowerHost == "www.github.com" {
		return true
	}
	// GitHub Enterprise: github.company.com, git.company.com, ghe.company.com
	return strings.Contains(lowerHost, "github") ||
		strings.HasPrefix(lowerHost, "git.") ||
		strings.HasPrefix(lowerHost, "ghe.")
}

func cleanSubpath(p string) string {
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// isLocalPath checks if the input looks like a local path
func isLocalPath(input string) bool {
	if strings.HasPrefix(input, ".") ||
		strings.HasPrefix(input, "/") ||
		strings.HasPrefix(input, "~") ||
		(len(input) >= 2 && input[1] == ':') {
		return true
	}

	_, err := os.Stat(input)
	return err == nil
}

// IsEnterprise returns true if this is a GitHub Enterprise source
func (s *Source) IsEnterprise() bool {
	h := strings.ToLower(s.Host)
	return h != "" && h != "github.com" && h != "www.github.com"
}

// String returns a human-readable representation
func (s *Source) String() string {
	switch s.Type {
	case TypeGitHub:
		result := fmt.Sprintf("%s/%s", s.Owner, s.Repo)
		if s.IsEnterprise() {
			result = s.Host + "/" + result
		}
		if s.Path != "" {
			result += ":" + s.Path
		}
		if s.Ref != "" {
			result += "@" + s.Ref
		}
		return result
	case TypeLocal:
		return s.Path
	default:
		return s.Original
	}
}
