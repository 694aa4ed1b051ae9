// Package lookup answers "which attributes does table X carry" for the
// Stack Exchange data dump. The built-in catalog lists each dump file's row
// attributes in canonical dump order; a run configuration may add tables or
// replace a table's column list.
package lookup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTable is returned for a table name the catalog does not know.
var ErrUnknownTable = errors.New("lookup: unknown table")

// dumpTables is keyed by lower-cased file base name (Badges.xml -> badges).
var dumpTables = map[string][]string{
	"badges": {"Id", "UserId", "Name", "Date"},
	"comments": {
		"Id", "PostId", "Score", "Text", "CreationDate", "UserDisplayName", "UserId",
	},
	"posthistory": {
		"Id", "PostHistoryTypeId", "PostId", "RevisionGUID", "CreationDate",
		"UserId", "UserDisplayName", "Comment", "Text", "CloseReasonId",
	},
	"postlinks": {"Id", "CreationDate", "PostId", "RelatedPostId", "LinkTypeId"},
	"posts": {
		"Id", "PostTypeId", "AcceptedAnswerId", "ParentId", "CreationDate",
		"Score", "ViewCount", "Body", "OwnerUserId", "OwnerDisplayName",
		"LastEditorUserId", "LastEditorDisplayName", "LastEditDate",
		"LastActivityDate", "Title", "Tags", "AnswerCount", "CommentCount",
		"FavoriteCount", "ClosedDate", "CommunityOwnedDate",
	},
	"tags": {"Id", "TagName", "Count", "ExcerptPostId", "WikiPostId"},
	"users": {
		"Id", "Reputation", "CreationDate", "DisplayName", "LastAccessDate",
		"WebsiteUrl", "Location", "AboutMe", "Views", "UpVotes", "DownVotes",
		"EmailHash", "AccountId", "Age",
	},
	"votes": {"Id", "PostId", "VoteTypeId", "UserId", "CreationDate", "BountyAmount"},
}

// Catalog maps table names to ordered attribute lists. The zero value is an
// empty catalog; use Default for the dump tables.
type Catalog struct {
	tables map[string][]string
}

// Default returns a catalog of the Stack Exchange dump tables.
func Default() *Catalog {
	return New(dumpTables)
}

// New builds a catalog from tables. Keys are matched case-insensitively.
func New(tables map[string][]string) *Catalog {
	c := &Catalog{tables: make(map[string][]string, len(tables))}
	for name, cols := range tables {
		c.tables[strings.ToLower(name)] = append([]string(nil), cols...)
	}
	return c
}

// With returns a copy of c where overrides add tables or replace existing
// column lists.
func (c *Catalog) With(overrides map[string][]string) *Catalog {
	merged := make(map[string][]string, len(c.tables)+len(overrides))
	for k, v := range c.tables {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToLower(k)] = v
	}
	return New(merged)
}

// RequiredAttrs returns the ordered attribute names for table. The returned
// slice is a copy and may be modified by the caller.
func (c *Catalog) RequiredAttrs(table string) ([]string, error) {
	cols, ok := c.tables[strings.ToLower(table)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTable, table)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("lookup: table %q has no columns", table)
	}
	return append([]string(nil), cols...), nil
}

// Tables lists the known table names in sorted order.
func (c *Catalog) Tables() []string {
	out := make([]string, 0, len(c.tables))
	for k := range c.tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
