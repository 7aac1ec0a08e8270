package skill

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Tree is the Markdown layout of a corpus.
type Tree struct {
	// Files is every Markdown file, slash-separated and relative to the root, sorted
	Files []string

	// Skills is every directory holding a SKILL.md, sorted by directory
	Skills []*Skill

	// Index is the path of the root index document, or "" if absent
	Index string
}

// DiscoverOptions controls what Discover visits.
type DiscoverOptions struct {
	// Ignore holds doublestar patterns matched against slash-separated relative paths
	Ignore []string

	// Index is the root index filename; empty disables index lookup
	Index string

	// RootName names a skill whose SKILL.md sits at the corpus root, since
	// the root directory's own name is not visible through fs.FS
	RootName string
}

// Discover walks fsys and groups its Markdown files into skills.
func Discover(fsys fs.FS, opts DiscoverOptions) (*Tree, error) {
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	tree := &Tree{}
	hubs := make(map[string]*Skill)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && Ignored(p, opts.Ignore) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(p) {
			return nil
		}

		tree.Files = append(tree.Files, p)

		if path.Base(p) == HubFilename {
			dir := path.Dir(p)
			name := path.Base(dir)
			if dir == "." {
				name = opts.RootName
			}
			hubs[dir] = &Skill{
				Name: name,
				Dir:  dir,
				Hub:  p,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus: %w", err)
	}

	sort.Strings(tree.Files)

	for _, s := range hubs {
		tree.Skills = append(tree.Skills, s)
	}
	sort.Slice(tree.Skills, func(i, j int) bool {
		return tree.Skills[i].Dir < tree.Skills[j].Dir
	})

	for _, f := range tree.Files {
		if s := tree.owner(path.Dir(f)); s != nil && isSpoke(s, f) {
			s.Spokes = append(s.Spokes, f)
		}
	}

	if opts.Index != "" {
		if info, err := fs.Stat(fsys, opts.Index); err == nil && !info.IsDir() {
			tree.Index = path.Clean(opts.Index)
		}
	}

	return tree, nil
}

// SkillByName returns the skill whose directory is name.
func (t *Tree) SkillByName(name string) *Skill {
	for _, s := range t.Skills {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Owner returns the skill whose directory contains file, if any.
func (t *Tree) Owner(file string) *Skill {
	return t.owner(path.Dir(file))
}

// owner finds the nearest enclosing skill directory.
func (t *Tree) owner(dir string) *Skill {
	for {
		for _, s := range t.Skills {
			if s.Dir == dir {
				return s
			}
		}
		if dir == "." || dir == "/" || dir == "" {
			return nil
		}
		dir = path.Dir(dir)
	}
}

func isSpoke(s *Skill, file string) bool {
	prefix := SpokesDirName + "/"
	if s.Dir != "." {
		prefix = s.Dir + "/" + prefix
	}
	return strings.HasPrefix(file, prefix)
}

// Ignored reports whether p matches any ignore pattern.
func Ignored(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		// Directory patterns such as "drafts/**" should prune the directory itself.
		if strings.HasSuffix(pattern, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), p); ok {
				return true
			}
		}
	}
	return false
}
