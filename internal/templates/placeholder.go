package templates

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultPreviewLength is the rune budget of a notification preview.
const DefaultPreviewLength = 120

// Vocabulary is the fixed set of placeholders the notification context
// provides. Other tokens render but draw a warning on save.
var Vocabulary = []string{
	"ticketNumber",
	"ticketSubject",
	"requesterName",
	"authorName",
	"oldStatus",
	"newStatus",
	"notePreview",
}

var (
	tokenRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)
	identRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func IsKnownPlaceholder(name string) bool {
	for _, v := range Vocabulary {
		if v == name {
			return true
		}
	}
	return false
}

// Render substitutes every {{identifier}} token with its value from ctx.
// Missing keys render as the empty string.
func Render(tpl string, ctx map[string]string) string {
	return tokenRe.ReplaceAllStringFunc(tpl, func(tok string) string {
		name := tokenRe.FindStringSubmatch(tok)[1]
		return ctx[name]
	})
}

// ExtractPlaceholders returns the distinct token names in tpl, in order of
// first appearance.
func ExtractPlaceholders(tpl string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range tokenRe.FindAllStringSubmatch(tpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

type Fields struct {
	TitleTemplate string `json:"titleTemplate"`
	BodyTemplate  string `json:"bodyTemplate"`
}

type Validation struct {
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
	UsedPlaceholders []string `json:"usedPlaceholders"`
}

func (v Validation) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateTemplateFields checks an administrator write. A blank title or a
// malformed token is an error; a token outside Vocabulary is a warning.
func ValidateTemplateFields(f Fields) Validation {
	v := Validation{
		Errors:           []string{},
		Warnings:         []string{},
		UsedPlaceholders: []string{},
	}
	if strings.TrimSpace(f.TitleTemplate) == "" {
		v.Errors = append(v.Errors, "titleTemplate is required")
	}
	for _, p := range malformedPlaceholders(f.TitleTemplate) {
		v.Errors = append(v.Errors, "titleTemplate: "+p)
	}
	for _, p := range malformedPlaceholders(f.BodyTemplate) {
		v.Errors = append(v.Errors, "bodyTemplate: "+p)
	}

	seen := make(map[string]bool)
	var unknown []string
	for _, name := range append(ExtractPlaceholders(f.TitleTemplate), ExtractPlaceholders(f.BodyTemplate)...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		v.UsedPlaceholders = append(v.UsedPlaceholders, name)
		if !IsKnownPlaceholder(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		v.Warnings = append(v.Warnings, "unknown placeholders: "+strings.Join(unknown, ", "))
	}
	return v
}

// malformedPlaceholders reports brace pairs that do not form a valid token:
// an unclosed "{{", a stray "}}", or a token whose content is not an
// identifier.
func malformedPlaceholders(s string) []string {
	var problems []string
	rest := s
	for {
		open := strings.Index(rest, "{{")
		closing := strings.Index(rest, "}}")
		if open < 0 {
			if closing >= 0 {
				problems = append(problems, `unmatched "}}"`)
			}
			return problems
		}
		if closing >= 0 && closing < open {
			problems = append(problems, `unmatched "}}"`)
			rest = rest[closing+2:]
			continue
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			return append(problems, `unclosed "{{"`)
		}
		inner := rest[open+2 : open+2+end]
		if !identRe.MatchString(strings.TrimSpace(inner)) {
			problems = append(problems, fmt.Sprintf("invalid placeholder %q", "{{"+inner+"}}"))
		}
		rest = rest[open+2+end+2:]
	}
}

// SanitizePreviewText collapses whitespace and truncates to maxLen runes,
// ending in an ellipsis when cut. maxLen <= 0 means DefaultPreviewLength.
func SanitizePreviewText(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxLen {
		return collapsed
	}
	cut := strings.TrimRightFunc(string(runes[:maxLen-1]), unicode.IsSpace)
	return cut + "…"
}
