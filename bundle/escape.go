package bundle

import (
	"html"
	"strings"
)

var templateLiteralEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"${", "\\${",
	"\r", `\r`,
)

// EscapeTemplateLiteral escapes s for embedding between the backticks of a
// JavaScript template literal. The literal evaluates to s exactly; CR is
// written as an escape because template literals normalize raw line endings.
func EscapeTemplateLiteral(s string) string {
	if strings.ContainsAny(s, "\\`$\r") {
		s = templateLiteralEscaper.Replace(s)
	}
	return s
}

// EscapeHTML escapes s for embedding in HTML text or attribute values.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
