package compose

import (
	"strings"

	"github.com/HendryAvila/farrier/internal/hooks"
)

// rfc2119Reference is emitted once at the top of any non-empty document.
const rfc2119Reference = "> The key words MUST, MUST NOT, SHOULD, SHOULD NOT, and MAY are to be interpreted as described in RFC 2119."

const (
	// hookSeparator sits between hooks within one level section.
	hookSeparator = "\n\n---\n\n"
	// groupSeparator sits between level sections.
	groupSeparator = "\n\n***\n\n"
)

// levelPreambles are the canned sentences under each level header.
var levelPreambles = map[hooks.RequirementLevel]string{
	hooks.LevelMust:      "These requirements are mandatory.",
	hooks.LevelMustNot:   "These prohibitions are absolute.",
	hooks.LevelShould:    "These recommendations apply unless there is a strong reason to deviate.",
	hooks.LevelShouldNot: "Avoid these unless there is a strong reason not to.",
	hooks.LevelMay:       "These are optional.",
}

// render produces the composed markdown document from hooks already in
// final emission order. Empty groups produce no section header; an empty
// input produces an empty string.
func render(ordered []hooks.ResolvedHook) string {
	if len(ordered) == 0 {
		return ""
	}

	var sections []string
	for _, level := range hooks.LevelOrder {
		var entries []string
		for _, h := range ordered {
			if h.Level != level {
				continue
			}
			entries = append(entries, "### "+h.Name+"\n\n"+strings.TrimRight(h.Content, "\n"))
		}
		if len(entries) == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString("## " + string(level) + "\n\n")
		b.WriteString(levelPreambles[level] + "\n\n")
		b.WriteString(strings.Join(entries, hookSeparator))
		sections = append(sections, b.String())
	}

	return rfc2119Reference + "\n\n" + strings.Join(sections, groupSeparator) + "\n"
}
