package queue

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgcut/bgcut/internal/model"
)

func record(name string) model.ImageRecord {
	return model.ImageRecord{
		ID:             uuid.New(),
		SourceFilename: name,
		Status:         model.StatusProcessed,
	}
}

func TestQueue_Empty(t *testing.T) {
	q := New()

	assert.Equal(t, 0, q.Len())
	assert.False(t, q.MultiItem())

	_, idx, ok := q.Current()
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	assert.ErrorIs(t, q.Select(0), ErrIndexOutOfRange)
	assert.Equal(t, -1, q.Prev())
	assert.Equal(t, -1, q.Next())
}

func TestQueue_AppendMovesCursor(t *testing.T) {
	q := New()

	for i := 0; i < 3; i++ {
		got := q.Append(record(fmt.Sprintf("img-%d.png", i)))
		assert.Equal(t, i, got)
	}

	rec, idx, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "img-2.png", rec.SourceFilename)

	items := q.Items()
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("img-%d.png", i), it.SourceFilename)
	}
}

func TestQueue_Select(t *testing.T) {
	q := New()
	q.Append(record("a.png"))
	q.Append(record("b.png"))

	require.NoError(t, q.Select(0))
	rec, idx, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "a.png", rec.SourceFilename)

	assert.ErrorIs(t, q.Select(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, q.Select(-1), ErrIndexOutOfRange)

	// Rejected select leaves the cursor alone.
	_, idx, _ = q.Current()
	assert.Equal(t, 0, idx)
}

func TestQueue_NavigationClamps(t *testing.T) {
	q := New()
	q.Append(record("a.png"))
	q.Append(record("b.png"))
	q.Append(record("c.png"))

	// Cursor starts at the last record.
	assert.Equal(t, 1, q.Prev())
	assert.Equal(t, 0, q.Prev())
	assert.Equal(t, 0, q.Prev()) // clamped at the first record

	assert.Equal(t, 1, q.Next())
	assert.Equal(t, 2, q.Next())
	assert.Equal(t, 2, q.Next()) // clamped at the last record
}

func TestQueue_MultiItemIndicator(t *testing.T) {
	q := New()

	q.Append(record("a.png"))
	assert.False(t, q.MultiItem())

	q.Append(record("b.png"))
	assert.True(t, q.MultiItem())
}
