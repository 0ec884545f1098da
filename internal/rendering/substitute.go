package rendering

import (
	"regexp"
	"strings"

	"github.com/datacampus/certgen/internal/types"
)

// markerPattern matches {{token}} placeholders. The inner part may carry XML
// tags when a word processor split the marker text across formatting runs;
// tags are stripped before the token name is resolved.
var markerPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Substitute replaces every {{token}} marker in content with the matching row
// column value. A marker whose column is absent from the row resolves to the
// empty string; row columns not referenced by any marker are ignored. Values
// are escaped with the provided function (XML or HTML escaping depending on
// the target format).
func Substitute(content string, row types.RosterRow, escape func(string) string) string {
	return markerPattern.ReplaceAllStringFunc(content, func(marker string) string {
		inner := marker[2 : len(marker)-2]
		// Formatting runs inside the marker would otherwise hide the token.
		token := strings.TrimSpace(tagPattern.ReplaceAllString(inner, ""))
		if token == "" {
			return ""
		}
		return escape(row.Field(token))
	})
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes a value for inclusion in document XML text nodes.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
