// Package lint validates a skill corpus: frontmatter presence and format,
// relative link resolution, and hub-and-spoke coverage.
package lint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/kennyg/skillcheck/internal/skill"
)

// Options selects which checks run and their limits.
type Options struct {
	Index                  string
	RootName               string // name of a skill whose hub is at the corpus root
	Required               []string
	Ignore                 []string
	MaxNameLength          int
	MaxDescriptionLength   int
	MaxCompatibilityLength int
	CheckAnchors           bool
	RequireIndexCoverage   bool
	RequireSpokeCoverage   bool
}

// DefaultOptions mirrors the built-in configuration.
func DefaultOptions() Options {
	return Options{
		Index:                  skill.DefaultIndex,
		Required:               []string{"name", "description", "license", "metadata.author", "metadata.version"},
		MaxNameLength:          64,
		MaxDescriptionLength:   1024,
		MaxCompatibilityLength: 500,
		CheckAnchors:           true,
		RequireIndexCoverage:   true,
		RequireSpokeCoverage:   true,
	}
}

// Linter validates the corpus rooted at an fs.FS.
type Linter struct {
	fsys     fs.FS
	opts     Options
	log      *zap.Logger
	md       goldmark.Markdown
	validate *validator.Validate
	rules    []fieldRule

	// parsed holds scans by path so anchor checks don't reparse targets
	parsed map[string]*parsed
}

type parsed struct {
	doc    *skill.Document
	docErr error
	scan   *scan
}

// Option configures a Linter.
type Option func(*Linter)

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Linter) {
		l.log = log
	}
}

// New creates a Linter over fsys.
func New(fsys fs.FS, opts Options, options ...Option) *Linter {
	l := &Linter{
		fsys:     fsys,
		opts:     opts,
		log:      zap.NewNop(),
		md:       newMarkdown(),
		validate: newValidate(),
		rules:    fieldRules(opts),
		parsed:   make(map[string]*parsed),
	}
	for _, o := range options {
		o(l)
	}
	return l
}

// Run validates every Markdown file once, in path order.
func (l *Linter) Run(ctx context.Context) (*Report, error) {
	tree, err := skill.Discover(l.fsys, skill.DiscoverOptions{
		Ignore:   l.opts.Ignore,
		Index:    l.opts.Index,
		RootName: l.opts.RootName,
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug("discovered corpus",
		zap.Int("files", len(tree.Files)),
		zap.Int("skills", len(tree.Skills)),
		zap.String("index", tree.Index))

	rep := &Report{Files: len(tree.Files), Skills: len(tree.Skills)}

	if l.opts.Index != "" && tree.Index == "" {
		rep.add(RuleMissingIndex, SeverityError, l.opts.Index, 0, &MissingFileError{Path: l.opts.Index})
	}

	hubs := make(map[string]*skill.Skill, len(tree.Skills))
	for _, s := range tree.Skills {
		hubs[s.Hub] = s
	}

	names := make(map[string]string)
	targets := make(map[string][]string)

	for _, file := range tree.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := l.parse(file)
		if err != nil {
			return nil, err
		}

		hub := hubs[file]
		l.log.Debug("checking file", zap.String("file", file), zap.Bool("hub", hub != nil))

		if p.docErr != nil {
			sev := SeverityWarning
			if hub != nil {
				sev = SeverityError
			}
			line, reason := 1, p.docErr.Error()
			var se *skill.SyntaxError
			if errors.As(p.docErr, &se) {
				line, reason = se.Line, se.Msg
			}
			rep.add(RuleFormat, sev, file, line, &FormatError{Field: "frontmatter", Reason: reason})
		} else {
			l.checkFrontmatter(rep, file, p.doc, hub)
		}

		if hub != nil && p.doc.Frontmatter != nil {
			if field, ok := p.doc.Frontmatter.Lookup("name"); ok && field.IsScalar() && field.Value != "" {
				if other, dup := names[field.Value]; dup {
					rep.add(RuleDuplicateName, SeverityError, file, field.Line, &DuplicateNameError{Name: field.Value, Other: other})
				} else {
					names[field.Value] = file
				}
			}
		}

		for _, lk := range p.scan.links {
			if target, ok := l.checkLink(rep, file, p, lk); ok {
				targets[file] = append(targets[file], target)
			}
		}
	}

	if l.opts.RequireIndexCoverage && tree.Index != "" {
		l.checkIndexCoverage(rep, tree, targets[tree.Index])
	}
	if l.opts.RequireSpokeCoverage {
		l.checkSpokeCoverage(rep, tree, targets)
	}

	rep.sort()
	return rep, nil
}

// parse reads and scans a file once.
func (l *Linter) parse(file string) (*parsed, error) {
	if p, ok := l.parsed[file]; ok {
		return p, nil
	}

	content, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	doc, docErr := skill.Parse(content)
	if errors.Is(docErr, skill.ErrUnterminated) && path.Base(file) != skill.HubFilename {
		// Outside hubs a leading --- is more likely a thematic break than a header.
		docErr = nil
	}

	p := &parsed{
		doc:    doc,
		docErr: docErr,
		scan:   scanBody(l.md, []byte(doc.Body), doc.BodyLine),
	}
	l.parsed[file] = p
	return p, nil
}

// checkLink validates one destination. It returns the resolved corpus path
// when the link is a relative link that resolved.
func (l *Linter) checkLink(rep *Report, file string, from *parsed, lk link) (string, bool) {
	dest := strings.TrimSpace(lk.Dest)
	if dest == "" {
		return "", false
	}

	u, err := url.Parse(dest)
	if err != nil {
		// A literal % in a file name is not a valid escape
		if u = rawURL(dest); u == nil {
			rep.add(RuleBrokenLink, SeverityError, file, lk.Line, &BrokenLinkError{Target: dest, Reason: "malformed link"})
			return "", false
		}
	}

	// External links are out of scope
	if u.Scheme != "" || u.Host != "" || strings.HasPrefix(dest, "//") {
		return "", false
	}

	if u.Path == "" {
		if u.Fragment != "" && l.opts.CheckAnchors && !from.scan.anchors[strings.ToLower(u.Fragment)] {
			rep.add(RuleBrokenLink, SeverityError, file, lk.Line, &BrokenLinkError{
				Target: dest,
				Reason: fmt.Sprintf("no heading with anchor #%s in this file", u.Fragment),
			})
		}
		return "", false
	}

	resolved := resolve(file, u.Path)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		rep.add(RuleBrokenLink, SeverityError, file, lk.Line, &BrokenLinkError{Target: dest, Reason: "points outside the corpus root"})
		return "", false
	}

	info, err := fs.Stat(l.fsys, resolved)
	if err != nil {
		rep.add(RuleBrokenLink, SeverityError, file, lk.Line, &BrokenLinkError{Target: dest, Reason: "target does not exist"})
		return "", false
	}

	if u.Fragment != "" && l.opts.CheckAnchors && !info.IsDir() && skill.IsMarkdown(resolved) {
		target, err := l.parse(resolved)
		if err != nil {
			return "", false
		}
		if !target.scan.anchors[strings.ToLower(u.Fragment)] {
			rep.add(RuleBrokenLink, SeverityError, file, lk.Line, &BrokenLinkError{
				Target: dest,
				Reason: fmt.Sprintf("no heading with anchor #%s in %s", u.Fragment, resolved),
			})
		}
	}

	return resolved, true
}

// rawURL splits a destination that url.Parse rejects into its unescaped path
// and fragment. It returns nil for destinations that carry a scheme.
func rawURL(dest string) *url.URL {
	p, frag, _ := strings.Cut(dest, "#")
	p, _, _ = strings.Cut(p, "?")
	if before, _, ok := strings.Cut(p, ":"); ok && !strings.Contains(before, "/") {
		return nil
	}
	return &url.URL{Path: p, Fragment: frag}
}

// resolve joins a link path to the linking file's directory. A leading
// slash anchors the path at the corpus root.
func resolve(file, p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(strings.TrimPrefix(p, "/"))
	}
	return path.Join(path.Dir(file), p)
}

func (l *Linter) checkIndexCoverage(rep *Report, tree *skill.Tree, indexTargets []string) {
	for _, s := range tree.Skills {
		if !slices.ContainsFunc(indexTargets, func(t string) bool { return t == s.Hub || t == s.Dir }) {
			rep.add(RuleOrphanSkill, SeverityWarning, s.Hub, 0, &OrphanError{Path: s.Hub, Parent: tree.Index})
		}
	}
}

func (l *Linter) checkSpokeCoverage(rep *Report, tree *skill.Tree, targets map[string][]string) {
	for _, s := range tree.Skills {
		reached := reachable(s, targets)
		for _, spoke := range s.Spokes {
			if !reached[spoke] {
				rep.add(RuleOrphanSpoke, SeverityWarning, spoke, 0, &OrphanError{Path: spoke, Parent: s.Hub})
			}
		}
	}
}

// reachable returns the documents of s that can be reached from its hub by
// following links that stay inside the skill directory.
func reachable(s *skill.Skill, targets map[string][]string) map[string]bool {
	seen := map[string]bool{s.Hub: true}
	queue := []string{s.Hub}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]
		for _, t := range targets[from] {
			if s.Contains(t) && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return seen
}
