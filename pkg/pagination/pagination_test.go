package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(1000))
	require.Equal(t, 10, NormalizeLimit(10))
	require.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 123, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(cursor))
	require.NoError(t, err)
	require.True(t, parsed.CreatedAt.Equal(cursor.CreatedAt))
	require.Equal(t, cursor.ID, parsed.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("!!!")
	require.Error(t, err)
}

func TestBuildTrimsBufferedRow(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := Build(rows, 2, key)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	next, err := ParseCursor(page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, rows[1].id, next.ID)

	last := Build(rows[:1], 2, key)
	require.Empty(t, last.NextCursor)

	none := Build[row](nil, 2, key)
	require.NotNil(t, none.Items)
}

func TestOffsetCursorRoundTrip(t *testing.T) {
	offset, err := ParseOffset(EncodeOffset(50))
	require.NoError(t, err)
	require.Equal(t, 50, offset)

	_, err = ParseOffset(EncodeCursor(Cursor{ID: uuid.New()}))
	require.ErrorIs(t, err, ErrInvalidCursor)

	page := BuildOffset([]int{1, 2, 3}, 2, 4)
	require.Len(t, page.Items, 2)
	next, err := ParseOffset(page.NextCursor)
	require.NoError(t, err)
	require.Equal(t, 6, next)
}
