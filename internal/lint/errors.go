package lint

import "fmt"

// MissingFieldError reports a required frontmatter key that is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// FormatError reports a frontmatter value that violates its format rule.
type FormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// BrokenLinkError reports a relative link whose target cannot be resolved.
type BrokenLinkError struct {
	Target string
	Reason string
}

func (e *BrokenLinkError) Error() string {
	return fmt.Sprintf("broken link %q: %s", e.Target, e.Reason)
}

// DuplicateNameError reports two skills declaring the same name.
type DuplicateNameError struct {
	Name  string
	Other string // hub path of the first declaration
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("skill name %q already declared in %s", e.Name, e.Other)
}

// OrphanError reports a document that its parent never links to.
type OrphanError struct {
	Path   string
	Parent string
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("%s is not linked from %s", e.Path, e.Parent)
}

// MissingFileError reports an expected file that does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s not found", e.Path)
}
