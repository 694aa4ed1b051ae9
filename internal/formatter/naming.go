package formatter

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// compressedExts are stripped before the data extension when deriving a
// table name, so "Posts.xml.gz" names the table "posts".
var compressedExts = []string{".gz", ".bz2", ".xz", ".zst"}

// FileName returns the last segment of path, or "" for an empty path.
func FileName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// TableName derives the logical table name from a source path: the file name
// without its extension, lower-cased.
func TableName(path string) string {
	name := FileName(path)
	lower := strings.ToLower(name)
	for _, ext := range compressedExts {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ToLower(name)
}

// SnakeCase converts a CamelCase attribute name to lower snake_case.
//
// A boundary is placed before an upper-case letter that follows a lower-case
// letter or digit ("UserId" -> "user_id"), and before the last capital of an
// acronym run when a lower-case letter follows it ("URLValue" -> "url_value").
// Digits stay with the preceding word ("Field2Name" -> "field2_name").
func SnakeCase(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// SnakeColumns converts every column with SnakeCase, keeping order.
func SnakeColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = SnakeCase(c)
	}
	return out
}

// TableDescriptor renders "table(col,col,...)" for downstream table creation
// tooling. Columns are snake-cased and sorted by their snake-cased form.
func TableDescriptor(path string, columns []string) string {
	cols := SnakeColumns(columns)
	sort.Strings(cols)
	return TableName(path) + "(" + strings.Join(cols, ",") + ")"
}
