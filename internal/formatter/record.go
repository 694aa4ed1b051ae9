package formatter

import (
	"strings"
)

// scrubber escapes markup delimiters and drops line breaks in one pass, so
// adjacent characters cannot interact ("<\n>" becomes "&lt;&gt;").
var scrubber = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"\n", "",
	"\r", "",
)

// Scrub makes a raw attribute value safe for a line-oriented, markup-free
// record. It never fails; text without <, >, \n or \r is returned unchanged.
func Scrub(s string) string {
	if !strings.ContainsAny(s, "<>\r\n") {
		return s
	}
	return scrubber.Replace(s)
}

// FormatNode renders one record from a row node. The result always has
// exactly len(columns) fields in column order; a missing attribute yields an
// empty field. The trailing newline is not included.
func FormatNode(n Node, columns []string, delim rune) string {
	var sb strings.Builder
	for i, col := range columns {
		if i > 0 {
			sb.WriteRune(delim)
		}
		if v, ok := n.Attr(col); ok {
			sb.WriteString(Scrub(v))
		}
	}
	return sb.String()
}
