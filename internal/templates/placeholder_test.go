package templates

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		ctx  map[string]string
		want string
	}{
		{"simple", "Ticket {{ticketNumber}}", map[string]string{"ticketNumber": "42"}, "Ticket 42"},
		{"inner whitespace", "Hi {{  authorName }}!", map[string]string{"authorName": "Sam"}, "Hi Sam!"},
		{"missing key", "From {{oldStatus}} to {{newStatus}}", map[string]string{"newStatus": "Done"}, "From  to Done"},
		{"unknown token present", "{{custom_1}}", map[string]string{"custom_1": "x"}, "x"},
		{"repeated", "{{a}}{{a}}", map[string]string{"a": "b"}, "bb"},
		{"not a token", "{{ a b }}", map[string]string{"a": "x"}, "{{ a b }}"},
		{"nil context", "x{{a}}y", nil, "xy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tpl, tt.ctx))
		})
	}
}

func TestRenderResolvesEveryVocabularyToken(t *testing.T) {
	var b strings.Builder
	for _, name := range Vocabulary {
		b.WriteString("{{" + name + "}} ")
	}
	full := Render(b.String(), SampleContext())
	assert.NotContains(t, full, "{{")

	empty := Render(b.String(), map[string]string{})
	assert.Equal(t, strings.Repeat(" ", len(Vocabulary)), empty)
	assert.NotContains(t, empty, "undefined")
	assert.NotContains(t, empty, "null")
}

func TestStatusUpdatedExample(t *testing.T) {
	body := Render("Ticket {{ticketNumber}} changed from {{oldStatus}} to {{newStatus}}.", map[string]string{
		"ticketNumber": "42",
		"oldStatus":    "New",
		"newStatus":    "In Progress",
	})
	assert.Equal(t, "Ticket 42 changed from New to In Progress.", body)
	assert.Equal(t, body, SanitizePreviewText(body, 120))
}

func TestExtractPlaceholders(t *testing.T) {
	got := ExtractPlaceholders("{{b}} {{ a }} {{b}} {{c}}")
	assert.Equal(t, []string{"b", "a", "c"}, got)
	assert.Empty(t, ExtractPlaceholders("no tokens"))
}

func TestValidateTemplateFields(t *testing.T) {
	v := ValidateTemplateFields(Fields{TitleTemplate: "  ", BodyTemplate: ""})
	assert.False(t, v.Valid())
	assert.Contains(t, v.Errors, "titleTemplate is required")

	v = ValidateTemplateFields(Fields{TitleTemplate: "Ticket {{ticketNumber}}", BodyTemplate: "{{ticketSubjet}} by {{authorName}}"})
	assert.True(t, v.Valid())
	assert.Equal(t, []string{"ticketNumber", "ticketSubjet", "authorName"}, v.UsedPlaceholders)
	assert.Equal(t, []string{"unknown placeholders: ticketSubjet"}, v.Warnings)

	v = ValidateTemplateFields(Fields{TitleTemplate: "ok", BodyTemplate: ""})
	assert.True(t, v.Valid())
	assert.Empty(t, v.Warnings)
}

func TestValidateTemplateFieldsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unclosed", "Hello {{authorName"},
		{"stray close", "Hello authorName}}"},
		{"bad identifier", "Hello {{author-name}}"},
		{"empty token", "Hello {{ }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateTemplateFields(Fields{TitleTemplate: "Title", BodyTemplate: tt.body})
			assert.False(t, v.Valid())
			assert.True(t, strings.HasPrefix(v.Errors[0], "bodyTemplate: "))
		})
	}
}

func TestSanitizePreviewText(t *testing.T) {
	assert.Equal(t, "", SanitizePreviewText("", 120))
	assert.Equal(t, "", SanitizePreviewText(" \n\t ", 120))
	assert.Equal(t, "a b c", SanitizePreviewText("  a\n\n b\t c  ", 120))
	assert.Equal(t, "abcd…", SanitizePreviewText("abcdefgh", 5))
	assert.Equal(t, "ab…", SanitizePreviewText("ab   cdefgh", 4))
	assert.Equal(t, "héll…", SanitizePreviewText("héllo wörld", 5))

	long := strings.Repeat("word ", 100)
	out := SanitizePreviewText(long, 0)
	assert.Equal(t, DefaultPreviewLength, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
}

func TestSanitizePreviewTextBound(t *testing.T) {
	inputs := []string{
		"short",
		strings.Repeat("x", 500),
		strings.Repeat("ü ", 300),
		"line one\nline two\r\nline three",
		strings.Repeat(" ", 50) + strings.Repeat("y", 200),
	}
	for _, in := range inputs {
		for _, max := range []int{1, 2, 10, 120} {
			out := SanitizePreviewText(in, max)
			assert.LessOrEqual(t, utf8.RuneCountInString(out), max, "input %q max %d", in, max)
		}
	}
}
