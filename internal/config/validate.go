package config

import (
	"fmt"
	"strings"
	"unicode"

	"so2db/internal/ddl"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the run file (e.g. "output.delimiter", "tables.badges").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains any SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownStorage lists backends shipped in internal/storage/all.
var knownStorage = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
	"sqlite":   {},
}

// Validate lints r without mutating it.
func Validate(r Run) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, a ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(r.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and logs")
	}
	if strings.TrimSpace(r.Source.Dir) == "" && len(r.Source.Files) == 0 {
		add(SeverityError, "source", "either source.dir or source.files is required")
	}
	for i, f := range r.Source.Files {
		if strings.TrimSpace(f) == "" {
			add(SeverityError, fmt.Sprintf("source.files[%d]", i), "file name must not be empty")
		}
	}
	if strings.TrimSpace(r.Output.Dir) == "" {
		add(SeverityError, "output.dir", "output.dir must not be empty")
	}

	delim, err := r.Delimiter()
	switch {
	case err != nil:
		add(SeverityError, "output.delimiter", "%v", err)
	case delim == '\n' || delim == '\r':
		add(SeverityError, "output.delimiter", "delimiter must not be a line break")
	case unicode.IsPrint(delim):
		add(SeverityWarning, "output.delimiter",
			"printable delimiter %q may occur in attribute values, which are not escaped", delim)
	}
	bulk := r.Storage.Kind != "" || r.Output.LoadScript != ""
	if err == nil && delim > 0x7f && bulk {
		add(SeverityError, "output.delimiter", "bulk loading requires a single-byte delimiter, got %q", delim)
	}

	if r.Output.LoadScript != "" {
		if _, ok := ddl.DialectByName(r.Output.LoadScript); !ok {
			add(SeverityError, "output.load_script",
				"unknown dialect %q (known: %s)", r.Output.LoadScript, strings.Join(ddl.DialectNames(), ", "))
		}
	}

	for name, cols := range r.Tables {
		path := "tables." + name
		if len(cols) == 0 {
			add(SeverityError, path, "attribute list must not be empty")
			continue
		}
		seen := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			if strings.TrimSpace(c) == "" {
				add(SeverityError, path, "attribute names must not be empty")
				continue
			}
			if _, dup := seen[c]; dup {
				add(SeverityError, path, "duplicate attribute %q", c)
			}
			seen[c] = struct{}{}
		}
	}

	issues = append(issues, validateStorage(r.Storage)...)

	if r.Runtime.Jobs < 0 {
		add(SeverityError, "runtime.jobs", "jobs must be >= 0")
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if s.Kind == "" {
		return nil
	}
	if _, ok := knownStorage[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching implementation exists", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn is required when storage.kind is set",
		})
	}
	if s.DB.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.batch_size",
			Message:  "batch_size must be >= 0",
		})
	}
	return issues
}
