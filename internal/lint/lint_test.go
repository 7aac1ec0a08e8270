package lint

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutHub = `---
name: checkout
description: Build carts and convert them to orders
license: MIT
metadata:
  author: commerce-team
  version: 1.0.0
---
# Checkout

Read [carts](references/carts.md) before [payments](references/payments.md#retries).

## Anti-patterns

See [the index](/CLAUDE.md).
`

func validCorpus() fstest.MapFS {
	return fstest.MapFS{
		"CLAUDE.md": {Data: []byte(`# Skills

| Trigger | Skill |
|---|---|
| cart, checkout | [checkout](skills/checkout/SKILL.md) |
| webhook | [webhooks](skills/webhooks/) |

External docs live at [the platform](https://example.com/docs).
`)},
		"skills/checkout/SKILL.md":            {Data: []byte(checkoutHub)},
		"skills/checkout/references/carts.md": {Data: []byte("# Carts\n\nBack to [hub](../SKILL.md#anti-patterns).\n")},
		"skills/checkout/references/payments.md": {Data: []byte(`# Payments

## Retries

Use ` + "`[not a link](missing.md)`" + ` in code.

` + "```" + `
[also not a link](nowhere.md)
` + "```" + `
`)},
		"skills/webhooks/SKILL.md": {Data: []byte(`---
name: webhooks
description: Verify and retry webhook deliveries
license: Apache-2.0
metadata:
  author: commerce-team
  version: 0.3.1-beta.1
---
# Webhooks

![diagram](assets/flow.png) and [mail](mailto:team@example.com).
`)},
		"skills/webhooks/assets/flow.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func run(t *testing.T, fsys fstest.MapFS, opts Options) *Report {
	t.Helper()
	rep, err := New(fsys, opts).Run(context.Background())
	require.NoError(t, err)
	return rep
}

func rules(rep *Report) []Rule {
	var out []Rule
	for _, v := range rep.Violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestRun_ValidCorpus(t *testing.T) {
	rep := run(t, validCorpus(), DefaultOptions())

	assert.Empty(t, rep.Violations, "violations: %v", rules(rep))
	assert.Equal(t, 5, rep.Files)
	assert.Equal(t, 2, rep.Skills)
	assert.True(t, rep.Passed(true))
}

func TestRun_MissingLicense(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte(`---
name: webhooks
description: Verify webhooks
metadata:
  author: commerce-team
  version: 1.0.0
---
# Webhooks
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	v := rep.Errors()[0]
	assert.Equal(t, RuleMissingField, v.Rule)
	assert.Equal(t, "skills/webhooks/SKILL.md", v.Path)
	assert.Equal(t, "license", v.Field())

	var missing *MissingFieldError
	require.True(t, errors.As(v.Err, &missing))
	assert.Equal(t, "license", missing.Field)
	assert.False(t, rep.Passed(false))
}

func TestRun_NestedRequiredField(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte(`---
name: webhooks
description: Verify webhooks
license: MIT
metadata:
  author: commerce-team
---
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, "metadata.version", rep.Errors()[0].Field())
}

func TestRun_HubWithoutFrontmatter(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte("# Webhooks\n")}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, "frontmatter", rep.Errors()[0].Field())
}

func TestRun_FormatErrors(t *testing.T) {
	tests := []struct {
		name      string
		hub       string
		wantField string
		wantLine  int
	}{
		{
			name: "name does not match directory",
			hub: `---
name: web-hooks
description: d
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "name",
			wantLine:  2,
		},
		{
			name: "name with uppercase",
			hub: `---
name: Webhooks
description: d
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "name",
			wantLine:  2,
		},
		{
			name: "name with double hyphen",
			hub: `---
name: web--hooks
description: d
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "name",
			wantLine:  2,
		},
		{
			name: "two part version",
			hub: `---
name: webhooks
description: d
license: MIT
metadata:
  author: a
  version: 1.0
---
`,
			wantField: "metadata.version",
			wantLine:  7,
		},
		{
			name: "v-prefixed version",
			hub: `---
name: webhooks
description: d
license: MIT
metadata:
  author: a
  version: v1.0.0
---
`,
			wantField: "metadata.version",
			wantLine:  7,
		},
		{
			name: "empty license",
			hub: `---
name: webhooks
description: d
license:
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "license",
			wantLine:  4,
		},
		{
			name: "null name",
			hub: `---
name: ~
description: d
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "name",
			wantLine:  2,
		},
		{
			name: "description is a list",
			hub: `---
name: webhooks
description:
  - one
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`,
			wantField: "description",
			wantLine:  3,
		},
		{
			name: "metadata is a scalar",
			hub: `---
name: webhooks
description: d
license: MIT
metadata: none
---
`,
			wantField: "metadata",
			wantLine:  5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := validCorpus()
			fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte(tt.hub)}

			opts := DefaultOptions()
			if tt.wantField == "metadata" {
				opts.Required = []string{"name"}
			}
			rep := run(t, fsys, opts)

			require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
			v := rep.Errors()[0]
			assert.Equal(t, RuleFormat, v.Rule)
			assert.Equal(t, tt.wantField, v.Field())
			assert.Equal(t, tt.wantLine, v.Line)

			var fe *FormatError
			assert.True(t, errors.As(v.Err, &fe))
		})
	}
}

func TestRun_DescriptionTooLong(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte(`---
name: webhooks
description: this description is far too long
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`)}

	opts := DefaultOptions()
	opts.MaxDescriptionLength = 10
	rep := run(t, fsys, opts)

	// The limit applies to every hub, so look only at webhooks
	var errs []Violation
	for _, v := range rep.Errors() {
		if v.Path == "skills/webhooks/SKILL.md" {
			errs = append(errs, v)
		}
	}
	require.Len(t, errs, 1, "violations: %v", rep.Violations)
	assert.Equal(t, "description", errs[0].Field())
	assert.Contains(t, errs[0].Message(), "is 32 characters, must be at most 10 characters")
}

func TestRun_NonHubFrontmatterChecksFormatOnly(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte(`---
name: Carts
---
# Carts

[hub](../SKILL.md)
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	v := rep.Errors()[0]
	assert.Equal(t, "skills/checkout/references/carts.md", v.Path)
	assert.Equal(t, "name", v.Field())
}

func TestRun_BrokenLinks(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte(`# Carts

See [missing](gone.md).

Escape [root](../../../../etc/passwd).

Anchor [bad](../SKILL.md#no-such-heading) and [local](#carts) and [nope](#nope).
`)}

	rep := run(t, fsys, DefaultOptions())

	errs := rep.Errors()
	require.Len(t, errs, 4, "violations: %v", rep.Violations)

	assert.Equal(t, "gone.md", errs[0].Target())
	assert.Equal(t, 3, errs[0].Line)
	assert.Contains(t, errs[0].Message(), "does not exist")

	assert.Equal(t, "../../../../etc/passwd", errs[1].Target())
	assert.Equal(t, 5, errs[1].Line)
	assert.Contains(t, errs[1].Message(), "outside the corpus root")

	// Same line: reported in link order
	assert.Equal(t, "../SKILL.md#no-such-heading", errs[2].Target())
	assert.Equal(t, 7, errs[2].Line)
	assert.Equal(t, "#nope", errs[3].Target())
	assert.Equal(t, 7, errs[3].Line)

	for _, v := range errs {
		assert.Equal(t, RuleBrokenLink, v.Rule)
		var ble *BrokenLinkError
		assert.True(t, errors.As(v.Err, &ble))
	}
}

func TestRun_SameFileAnchor(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte(`# Carts

[ok](#carts) [missing](#nope) [hub](../SKILL.md)
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, "#nope", rep.Errors()[0].Target())
	assert.Equal(t, 3, rep.Errors()[0].Line)
}

func TestRun_AnchorsDisabled(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte("[x](../SKILL.md#nowhere) [y](#nope)\n")}

	opts := DefaultOptions()
	opts.CheckAnchors = false
	rep := run(t, fsys, opts)

	assert.Empty(t, rep.Errors())
}

func TestRun_LinkLineAccountsForFrontmatter(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte(`---
name: webhooks
description: d
license: MIT
metadata:
  author: a
  version: 1.0.0
---
# Webhooks

[broken](references/none.md)
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1)
	assert.Equal(t, 11, rep.Errors()[0].Line)
}

func TestRun_DuplicateNames(t *testing.T) {
	fsys := validCorpus()
	fsys["other/checkout/SKILL.md"] = &fstest.MapFile{Data: []byte(checkoutHub)}
	fsys["other/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte("# c")}
	fsys["other/checkout/references/payments.md"] = &fstest.MapFile{Data: []byte("## Retries")}

	opts := DefaultOptions()
	opts.RequireIndexCoverage = false
	rep := run(t, fsys, opts)

	require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
	v := rep.Errors()[0]
	assert.Equal(t, RuleDuplicateName, v.Rule)
	assert.Equal(t, "skills/checkout/SKILL.md", v.Path)

	var dup *DuplicateNameError
	require.True(t, errors.As(v.Err, &dup))
	assert.Equal(t, "other/checkout/SKILL.md", dup.Other)
}

func TestRun_Coverage(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/orders/SKILL.md"] = &fstest.MapFile{Data: []byte(`---
name: orders
description: Order edits
license: MIT
metadata:
  author: a
  version: 1.0.0
---
`)}
	fsys["skills/checkout/references/unused.md"] = &fstest.MapFile{Data: []byte("# Unused")}

	rep := run(t, fsys, DefaultOptions())

	assert.Empty(t, rep.Errors())
	warnings := rep.Warnings()
	require.Len(t, warnings, 2)

	assert.Equal(t, RuleOrphanSpoke, warnings[0].Rule)
	assert.Equal(t, "skills/checkout/references/unused.md", warnings[0].Path)
	assert.Equal(t, RuleOrphanSkill, warnings[1].Rule)
	assert.Equal(t, "skills/orders/SKILL.md", warnings[1].Path)

	assert.True(t, rep.Passed(false))
	assert.False(t, rep.Passed(true))

	opts := DefaultOptions()
	opts.RequireIndexCoverage = false
	opts.RequireSpokeCoverage = false
	assert.Empty(t, run(t, fsys, opts).Violations)
}

func TestRun_SpokesMustBeReachableFromHub(t *testing.T) {
	fsys := validCorpus()
	// Two spokes that only link each other are still orphans
	fsys["skills/checkout/references/a.md"] = &fstest.MapFile{Data: []byte("# A\n\n[b](b.md)\n")}
	fsys["skills/checkout/references/b.md"] = &fstest.MapFile{Data: []byte("# B\n\n[a](a.md)\n")}

	rep := run(t, fsys, DefaultOptions())

	assert.Equal(t, []Rule{RuleOrphanSpoke, RuleOrphanSpoke}, rules(rep))
	assert.Equal(t, "skills/checkout/references/a.md", rep.Violations[0].Path)
	assert.Equal(t, "skills/checkout/references/b.md", rep.Violations[1].Path)

	// A chain that starts at the hub covers both
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte("# Carts\n\n[a](a.md)\n")}
	assert.Empty(t, run(t, fsys, DefaultOptions()).Violations)
}

func TestRun_IndexMustLinkHubOrDirectory(t *testing.T) {
	fsys := validCorpus()
	fsys["CLAUDE.md"] = &fstest.MapFile{Data: []byte(`# Skills

- [carts](skills/checkout/references/carts.md)
- [webhooks](skills/webhooks/)
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Violations, 1, "violations: %v", rep.Violations)
	assert.Equal(t, RuleOrphanSkill, rep.Violations[0].Rule)
	assert.Equal(t, "skills/checkout/SKILL.md", rep.Violations[0].Path)
}

func TestRun_PercentInFileName(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/100%.md"] = &fstest.MapFile{Data: []byte("# Full\n")}
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte(`# Carts

[hub](../SKILL.md) [full](100%.md) [section](100%.md#full) [gone](50%.md)
`)}

	rep := run(t, fsys, DefaultOptions())

	require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
	assert.Equal(t, "50%.md", rep.Errors()[0].Target())
	assert.Contains(t, rep.Errors()[0].Message(), "does not exist")
}

func TestRun_BadFrontmatterIsNotScannedForLinks(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/checkout/references/carts.md"] = &fstest.MapFile{Data: []byte(`---
title: [unclosed
see: "[x](nope.md)"
---
# Carts

[hub](../SKILL.md)
`)}

	rep := run(t, fsys, DefaultOptions())

	assert.Empty(t, rep.Errors(), "violations: %v", rep.Violations)
	require.Len(t, rep.Warnings(), 1)
	v := rep.Warnings()[0]
	assert.Equal(t, "frontmatter", v.Field())
	assert.GreaterOrEqual(t, v.Line, 2)
	assert.True(t, rep.Passed(false))

	// The same header on a hub fails the run
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte("---\nname: [unclosed\n---\n# Webhooks\n")}
	rep = run(t, fsys, DefaultOptions())
	require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
	assert.Equal(t, "skills/webhooks/SKILL.md", rep.Errors()[0].Path)
}

func TestRawURL(t *testing.T) {
	u := rawURL("100%.md#full")
	require.NotNil(t, u)
	assert.Equal(t, "100%.md", u.Path)
	assert.Equal(t, "full", u.Fragment)

	assert.Nil(t, rawURL("http://example.com/%zz"))
	assert.NotNil(t, rawURL("dir/a:b%.md"))
}

func TestRun_MissingIndex(t *testing.T) {
	fsys := validCorpus()
	delete(fsys, "CLAUDE.md")

	rep := run(t, fsys, DefaultOptions())

	// The hub's link back to the index breaks too
	errs := rep.Errors()
	require.Len(t, errs, 2, "violations: %v", rep.Violations)
	assert.Equal(t, RuleMissingIndex, errs[0].Rule)
	assert.Equal(t, "CLAUDE.md", errs[0].Path)
	assert.Equal(t, RuleBrokenLink, errs[1].Rule)

	opts := DefaultOptions()
	opts.Index = ""
	assert.Equal(t, []Rule{RuleBrokenLink}, rules(run(t, fsys, opts)))
}

func TestRun_UnterminatedFrontmatter(t *testing.T) {
	fsys := validCorpus()
	fsys["skills/webhooks/SKILL.md"] = &fstest.MapFile{Data: []byte("---\nname: webhooks\n# Webhooks\n")}
	// Outside a hub a leading rule is ignored
	fsys["skills/webhooks/references/notes.md"] = &fstest.MapFile{Data: []byte("---\n\nNotes [hub](../SKILL.md)\n")}

	opts := DefaultOptions()
	opts.RequireSpokeCoverage = false
	rep := run(t, fsys, opts)

	require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
	assert.Equal(t, "frontmatter", rep.Errors()[0].Field())
	assert.Equal(t, "skills/webhooks/SKILL.md", rep.Errors()[0].Path)
}

func TestRun_RootHub(t *testing.T) {
	fsys := fstest.MapFS{
		"SKILL.md":            {Data: []byte(checkoutHub)},
		"references/carts.md": {Data: []byte("# Carts\n\n[hub](../SKILL.md)\n")},
	}
	// The hub's /CLAUDE.md and payments links have nothing to point at here
	fsys["SKILL.md"] = &fstest.MapFile{Data: []byte(strings.Replace(checkoutHub,
		"Read [carts](references/carts.md) before [payments](references/payments.md#retries).",
		"Read [carts](references/carts.md).", 1))}
	fsys["CLAUDE.md"] = &fstest.MapFile{Data: []byte("# Index\n\n[checkout](SKILL.md)\n")}

	opts := DefaultOptions()
	opts.RootName = "checkout"
	assert.Empty(t, run(t, fsys, opts).Violations)

	opts.RootName = "cart"
	rep := run(t, fsys, opts)
	require.Len(t, rep.Errors(), 1, "violations: %v", rep.Violations)
	assert.Equal(t, "name", rep.Errors()[0].Field())
	assert.Contains(t, rep.Errors()[0].Message(), `must match directory name "cart"`)

	// Unnamed roots skip the directory match
	opts.RootName = ""
	assert.Empty(t, run(t, fsys, opts).Violations)
}

func TestRun_Ignore(t *testing.T) {
	fsys := validCorpus()
	fsys["drafts/broken.md"] = &fstest.MapFile{Data: []byte("[x](nowhere.md)")}

	opts := DefaultOptions()
	opts.Ignore = []string{"drafts/**"}
	rep := run(t, fsys, opts)

	assert.Empty(t, rep.Violations)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(validCorpus(), DefaultOptions()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSlugger(t *testing.T) {
	s := newSlugger()
	assert.Equal(t, "anti-patterns", s.slug("Anti-patterns"))
	assert.Equal(t, "http-409-conflicts", s.slug("HTTP 409: Conflicts!"))
	assert.Equal(t, "anti-patterns-1", s.slug("Anti-patterns"))
	assert.Equal(t, "retries", s.slug("  Retries  "))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "skills/a/references/x.md", resolve("skills/a/SKILL.md", "references/x.md"))
	assert.Equal(t, "CLAUDE.md", resolve("skills/a/SKILL.md", "/CLAUDE.md"))
	assert.Equal(t, "skills/b", resolve("skills/a/SKILL.md", "../b/"))
	assert.Equal(t, "..", resolve("CLAUDE.md", ".."))
}
