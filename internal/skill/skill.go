// Package skill models skill bundles: a SKILL.md hub with YAML frontmatter
// and the references/*.md spokes it links to.
package skill

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// File and directory name conventions for a skill corpus.
const (
	// HubFilename is the standard filename for a skill hub
	HubFilename = "SKILL.md"

	// SpokesDirName holds a skill's on-demand topic documents
	SpokesDirName = "references"

	// DefaultIndex is the root document mapping triggers to skills
	DefaultIndex = "CLAUDE.md"
)

// Skill is a directory containing a SKILL.md hub.
type Skill struct {
	// Name is the directory name, which the frontmatter name must match
	Name string

	// Dir is the slash-separated path of the skill directory, relative to the corpus root
	Dir string

	// Hub is the path of SKILL.md
	Hub string

	// Spokes are the Markdown files under references/
	Spokes []string
}

// Contains reports whether path lies inside the skill directory.
func (s *Skill) Contains(path string) bool {
	if s.Dir == "." || s.Dir == "" {
		return true
	}
	return path == s.Dir || strings.HasPrefix(path, s.Dir+"/")
}

// Metadata is the nested metadata block of a hub's frontmatter.
type Metadata struct {
	Author  string `yaml:"author,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// Header is the typed view of a hub's frontmatter.
type Header struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	License       string   `yaml:"license,omitempty"`
	Compatibility string   `yaml:"compatibility,omitempty"`
	AllowedTools  ToolList `yaml:"allowed-tools,omitempty"`
	Metadata      Metadata `yaml:"metadata,omitempty"`
}

// ToolList accepts either a YAML sequence or a space-delimited string.
type ToolList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *ToolList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = strings.Fields(node.Value)
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*t = list
	return nil
}

// IsMarkdown reports whether a path names a Markdown document.
func IsMarkdown(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
