package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidCursor wraps every cursor decoding failure.
var ErrInvalidCursor = errors.New("invalid cursor")

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Page is a list response with an opaque cursor for the next page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalized limit plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.URLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor; an empty value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}

// Apply orders newest first on (created_at, id) and seeks past the cursor.
// The table prefix disambiguates columns in joined queries and may be empty.
func Apply(query *gorm.DB, table string, params Params) (*gorm.DB, error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	if cursor != nil {
		query = query.Where(
			fmt.Sprintf("(%screated_at < ?) OR (%screated_at = ? AND %sid < ?)", prefix, prefix, prefix),
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	return query.
		Order(prefix + "created_at DESC").
		Order(prefix + "id DESC").
		Limit(LimitWithBuffer(params.Limit)), nil
}

// Build trims the buffered row and derives the next cursor from the last kept row.
func Build[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = EncodeCursor(key(page.Items[len(page.Items)-1]))
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

// ParseOffset decodes an offset cursor, used by listings that are not ordered
// by creation time. An empty value yields zero.
func ParseOffset(value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	decoded, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var offset int
	if _, err := fmt.Sscanf(string(decoded), "o:%d", &offset); err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

func EncodeOffset(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte(fmt.Sprintf("o:%d", offset)))
}

// ApplyOffset pages an already ordered query and returns the decoded offset.
func ApplyOffset(query *gorm.DB, params Params) (*gorm.DB, int, error) {
	offset, err := ParseOffset(params.Cursor)
	if err != nil {
		return nil, 0, err
	}
	return query.Offset(offset).Limit(LimitWithBuffer(params.Limit)), offset, nil
}

// BuildOffset is Build for offset cursors.
func BuildOffset[T any](rows []T, limit, offset int) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = EncodeOffset(offset + limit)
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}
