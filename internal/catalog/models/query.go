package models

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/text"
)

// Searchable is anything the free-text query runs against.
type Searchable interface {
	SearchFields() []string
}

// Filter keeps items where a single search field contains the query, ignoring
// case and diacritics. A query never matches across two fields. An empty query
// keeps everything. The input is not modified.
func Filter[T Searchable](items []T, query string) []T {
	needle := text.Fold(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if needle == "" || anyContains(item.SearchFields(), needle) {
			out = append(out, item)
		}
	}
	return out
}

func anyContains(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(f, needle) {
			return true
		}
	}
	return false
}

// Paginate returns the 1-based page of items and whether more pages follow.
func Paginate[T any](items []T, page, size int) ([]T, bool) {
	if page < 1 || size < 1 {
		return nil, false
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, false
	}
	end := min(start+size, len(items))
	return items[start:end], end < len(items)
}

// Cursor is a viewer's position in a filtered listing. Changing the query or
// the page size moves the cursor back to the first page.
type Cursor struct {
	Query    string `json:"q"`
	PageSize int    `json:"s"`
	Page     int    `json:"p"`
}

func NewCursor(query string, pageSize int) Cursor {
	return Cursor{Query: strings.TrimSpace(query), PageSize: pageSize, Page: 1}
}

func (c Cursor) WithQuery(query string) Cursor {
	query = strings.TrimSpace(query)
	if query == c.Query {
		return c
	}
	return NewCursor(query, c.PageSize)
}

func (c Cursor) WithPageSize(size int) Cursor {
	if size == c.PageSize {
		return c
	}
	return NewCursor(c.Query, size)
}

func (c Cursor) Next() Cursor {
	c.Page++
	return c
}

// Encode returns an opaque token for the cursor.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(token string) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, dErrors.New(dErrors.CodeBadRequest, "invalid cursor")
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.Page < 1 || c.PageSize < 1 {
		return Cursor{}, dErrors.New(dErrors.CodeBadRequest, "invalid cursor")
	}
	return c, nil
}
