package lint

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kennyg/skillcheck/internal/skill"
)

// skillNamePattern allows lowercase alphanumerics separated by single hyphens.
var skillNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// fieldRule binds a dotted frontmatter key to validator tags.
type fieldRule struct {
	key string
	tag string
}

func newValidate() *validator.Validate {
	v := validator.New()
	// Registration only fails for malformed tag names.
	_ = v.RegisterValidation("skillname", func(fl validator.FieldLevel) bool {
		return skillNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strictsemver", func(fl validator.FieldLevel) bool {
		_, err := semver.StrictNewVersion(fl.Field().String())
		return err == nil
	})
	return v
}

func fieldRules(opts Options) []fieldRule {
	return []fieldRule{
		{key: "name", tag: fmt.Sprintf("min=1,max=%d,skillname", opts.MaxNameLength)},
		{key: "description", tag: fmt.Sprintf("min=1,max=%d", opts.MaxDescriptionLength)},
		{key: "license", tag: "min=1"},
		{key: "compatibility", tag: fmt.Sprintf("max=%d", opts.MaxCompatibilityLength)},
		{key: "metadata.author", tag: "min=1"},
		{key: "metadata.version", tag: "min=1,strictsemver"},
	}
}

// checkFrontmatter applies presence and format rules to one file. Required
// keys and the directory match apply only to hubs; format rules apply to any
// file that declares the key.
func (l *Linter) checkFrontmatter(rep *Report, file string, doc *skill.Document, hub *skill.Skill) {
	fm := doc.Frontmatter
	if fm == nil {
		if hub != nil {
			rep.add(RuleMissingField, SeverityError, file, 1, &MissingFieldError{Field: "frontmatter"})
		}
		return
	}

	if hub != nil {
		for _, key := range l.opts.Required {
			if !fm.Has(key) {
				rep.add(RuleMissingField, SeverityError, file, 1, &MissingFieldError{Field: key})
			}
		}
	}

	for _, rule := range l.rules {
		field, ok := fm.Lookup(rule.key)
		if !ok {
			continue
		}
		if err := l.checkField(field, rule.tag); err != nil {
			rep.add(RuleFormat, SeverityError, file, field.Line, err)
			continue
		}
		if rule.key == "name" && hub != nil && hub.Name != "" && field.Value != hub.Name {
			rep.add(RuleFormat, SeverityError, file, field.Line, &FormatError{
				Field:  "name",
				Value:  field.Value,
				Reason: fmt.Sprintf("must match directory name %q", hub.Name),
			})
		}
	}

	if field, ok := fm.Lookup("metadata"); ok && field.Kind != yaml.MappingNode {
		rep.add(RuleFormat, SeverityError, file, field.Line, &FormatError{
			Field:  "metadata",
			Reason: "must be a mapping of key-value pairs",
		})
	}

	if field, ok := fm.Lookup("allowed-tools"); ok && field.Kind == yaml.MappingNode {
		rep.add(RuleFormat, SeverityError, file, field.Line, &FormatError{
			Field:  "allowed-tools",
			Reason: "must be a list or a space-delimited string",
		})
	}
}

func (l *Linter) checkField(field skill.Field, tag string) *FormatError {
	if !field.IsScalar() {
		return &FormatError{Field: field.Key, Reason: "must be a string"}
	}

	value := field.Value
	if field.Tag == "!!null" {
		value = ""
	}

	err := l.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FormatError{Field: field.Key, Value: value, Reason: err.Error()}
	}

	fe := verrs[0]
	fmtErr := &FormatError{Field: field.Key, Value: value, Reason: validationMessage(fe)}
	if fe.Tag() == "max" {
		// Long values would swamp the message
		fmtErr.Value = ""
		fmtErr.Reason = fmt.Sprintf("is %d characters, %s", utf8.RuneCountInString(value), fmtErr.Reason)
	}
	return fmtErr
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "min":
		if e.Param() == "1" {
			return "must not be empty"
		}
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "skillname":
		return "must use lowercase letters, digits and single hyphens, without a leading or trailing hyphen"
	case "strictsemver":
		return "must be a semantic version such as 1.0.0"
	default:
		return "invalid value"
	}
}
