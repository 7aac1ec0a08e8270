package lint

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// link is a Markdown link or image destination found in a body.
type link struct {
	Dest  string
	Line  int // 1-based line within the whole file
	Image bool
}

// scan is what the linter learns from one Markdown body.
type scan struct {
	links   []link
	anchors map[string]bool
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// scanBody extracts links and heading anchors. Code spans and blocks are
// not parsed as inline Markdown, so links inside them never appear.
func scanBody(md goldmark.Markdown, body []byte, bodyLine int) *scan {
	out := &scan{anchors: make(map[string]bool)}
	slugs := newSlugger()

	doc := md.Parser().Parse(text.NewReader(body))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			out.links = append(out.links, link{
				Dest: string(node.Destination),
				Line: bodyLine + lineAt(body, offsetOf(node)) - 1,
			})
		case *ast.Image:
			out.links = append(out.links, link{
				Dest:  string(node.Destination),
				Line:  bodyLine + lineAt(body, offsetOf(node)) - 1,
				Image: true,
			})
		case *ast.Heading:
			out.anchors[slugs.slug(headingText(node, body))] = true
		}
		return ast.WalkContinue, nil
	})

	return out
}

// offsetOf returns the byte offset of an inline node, using its first text
// descendant or, failing that, the enclosing block's first line.
func offsetOf(n ast.Node) int {
	found := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			found = t.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found >= 0 {
		return found
	}

	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == ast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return 0
}

// lineAt converts a byte offset into a 1-based line number.
func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// slugger generates GitHub-style heading anchors, suffixing repeats with -1, -2, ...
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

func (s *slugger) slug(heading string) string {
	base := slugify(heading)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

func slugify(heading string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
