package skill

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated is returned when a document opens a frontmatter block
// but never closes it.
var ErrUnterminated = errors.New("frontmatter opened with --- but never closed")

// SyntaxError reports a frontmatter block that is not a YAML mapping.
type SyntaxError struct {
	Line int // 1-based line within the whole file
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("failed to parse frontmatter on line %d: %s", e.Line, e.Msg)
}

// yamlLine matches the position prefix of yaml.v3 errors.
var yamlLine = regexp.MustCompile(`^yaml: line (\d+): `)

// newSyntaxError converts a yaml.v3 error, whose lines count from the start
// of the block, to file lines. Errors without a position point at the first
// line of the block.
func newSyntaxError(err error) *SyntaxError {
	msg := err.Error()
	line := 2
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line = n + 1
		}
		msg = msg[len(m[0]):]
	}
	return &SyntaxError{Line: line, Msg: strings.TrimPrefix(msg, "yaml: ")}
}

// Field is a single frontmatter entry, addressed by its dotted key path.
type Field struct {
	Key   string
	Value string // raw scalar text, empty for mappings and sequences
	Kind  yaml.Kind
	Tag   string
	Line  int // 1-based line within the whole file
}

// IsScalar reports whether the field holds a plain value.
func (f Field) IsScalar() bool {
	return f.Kind == yaml.ScalarNode
}

// Frontmatter is a parsed YAML header that remembers where each key lives.
type Frontmatter struct {
	root   *yaml.Node
	fields map[string]Field
	keys   []string
}

// Lookup returns the field at a dotted key path such as "metadata.version".
func (f *Frontmatter) Lookup(key string) (Field, bool) {
	field, ok := f.fields[key]
	return field, ok
}

// Has reports whether the key is present.
func (f *Frontmatter) Has(key string) bool {
	_, ok := f.fields[key]
	return ok
}

// Keys returns every dotted key in document order.
func (f *Frontmatter) Keys() []string {
	return f.keys
}

// Decode unmarshals the frontmatter into a typed struct.
func (f *Frontmatter) Decode(v interface{}) error {
	if len(f.root.Content) == 0 {
		return nil
	}
	return f.root.Decode(v)
}

// Document is a Markdown file split into its frontmatter and body.
type Document struct {
	// Frontmatter is nil when the file has no header block
	Frontmatter *Frontmatter

	// Body is the Markdown after the closing delimiter
	Body string

	// BodyLine is the 1-based file line on which Body starts
	BodyLine int
}

// Parse splits content into frontmatter and body.
//
// A document without a leading --- line has no frontmatter. A document that
// opens a block but never closes it returns ErrUnterminated together with a
// Document whose body is the full text. A closed block that is not valid
// YAML returns a *SyntaxError and a Document with the body after the block.
func Parse(content []byte) (*Document, error) {
	text := strings.TrimPrefix(string(content), "\ufeff")
	doc := &Document{Body: text, BodyLine: 1}

	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return doc, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], "\r")
		if l == "---" || l == "..." {
			closing = i
			break
		}
	}
	if closing == -1 {
		return doc, ErrUnterminated
	}

	// The body is known once the block is closed, even if its YAML is bad
	doc.Body = strings.Join(lines[closing+1:], "\n")
	doc.BodyLine = closing + 2

	fm, err := parseHeader(strings.Join(lines[1:closing], "\n"))
	if err != nil {
		return doc, err
	}
	doc.Frontmatter = fm
	return doc, nil
}

// ParseHeader parses content and decodes its frontmatter into a Header.
// Content without frontmatter yields a zero Header.
func ParseHeader(content []byte) (*Header, *Document, error) {
	doc, err := Parse(content)
	if err != nil {
		return nil, doc, err
	}
	h := &Header{}
	if doc.Frontmatter != nil {
		if err := doc.Frontmatter.Decode(h); err != nil {
			return nil, doc, fmt.Errorf("failed to decode frontmatter: %w", err)
		}
	}
	return h, doc, nil
}

func parseHeader(src string) (*Frontmatter, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		return nil, newSyntaxError(err)
	}

	fm := &Frontmatter{
		root:   &yaml.Node{Kind: yaml.MappingNode},
		fields: make(map[string]Field),
	}

	// Empty header
	if node.Kind == 0 || len(node.Content) == 0 {
		return fm, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return fm, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &SyntaxError{Line: root.Line + 1, Msg: "expected key-value mapping"}
	}

	fm.root = root
	if err := fm.flatten(root, ""); err != nil {
		return nil, err
	}
	return fm, nil
}

// flatten records every key of a mapping, descending into nested mappings.
// Lines are shifted by one for the opening delimiter.
func (f *Frontmatter) flatten(m *yaml.Node, prefix string) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}

		path := prefix + key.Value
		if _, dup := f.fields[path]; dup {
			return &SyntaxError{Line: key.Line + 1, Msg: fmt.Sprintf("duplicate key %q", path)}
		}

		field := Field{
			Key:  path,
			Kind: val.Kind,
			Tag:  val.ShortTag(),
			Line: key.Line + 1,
		}
		if val.Kind == yaml.ScalarNode {
			field.Value = val.Value
		}
		f.fields[path] = field
		f.keys = append(f.keys, path)

		if val.Kind == yaml.MappingNode {
			if err := f.flatten(val, path+"."); err != nil {
				return err
			}
		}
	}
	return nil
}
