package browser

import "strings"

// Literal quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so values holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var sb strings.Builder
	sb.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(`, "'", `)
		}
		sb.WriteString("'" + p + "'")
	}
	sb.WriteString(")")
	return sb.String()
}

// ByAttr builds an xpath selecting tag elements by attribute. attr "." matches
// the normalized text content instead of an attribute.
func ByAttr(tag, attr, value string, exact bool) string {
	subject := "@" + attr
	if attr == "." {
		subject = "normalize-space(.)"
	}
	if exact {
		return "//" + tag + "[" + subject + "=" + Literal(value) + "]"
	}
	return "//" + tag + "[contains(" + subject + ", " + Literal(value) + ")]"
}
