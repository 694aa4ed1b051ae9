package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadList reads a text file line by line and returns a slice of strings
// containing non-empty, non-comment lines. The order of lines is preserved.
//
// The CLI uses it for "@files.txt" arguments naming the dump files to convert.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsDumpFile reports whether name looks like a dump file: *.xml, optionally
// followed by a supported compression suffix.
func IsDumpFile(name string) bool {
	lower := strings.ToLower(name)
	for _, c := range codecBySuffix {
		lower = strings.TrimSuffix(lower, c.suffix)
	}
	return strings.HasSuffix(lower, ".xml")
}

// ListDumps returns the dump files directly inside dir, sorted by name.
func ListDumps(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsDumpFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
