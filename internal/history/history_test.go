package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndRecent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Unix(1700000000, 0)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	ctx := context.Background()
	id1, err := s.Record(ctx, OpAssign, "", "1 model(s)")
	require.NoError(t, err)
	_, err = s.Record(ctx, OpAdapterAdd, "llama-7b", "run1/ckpt-100")
	require.NoError(t, err)
	id3, err := s.Record(ctx, OpAdapterRemove, "llama-7b", "run1/ckpt-100")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, id3, got[0].ID)
	assert.Equal(t, OpAdapterRemove, got[0].Op)
	assert.Equal(t, "llama-7b", got[0].Model)
	assert.Equal(t, base.Add(3*time.Second).Unix(), got[0].AtUnix)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, id1, all[2].ID)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	p := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(p)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), OpAssign, "", "x")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(p)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInMemory(t *testing.T) {
	assert.True(t, inMemory(":memory:"))
	assert.True(t, inMemory("file::memory:?cache=shared"))
	assert.True(t, inMemory("file:hist?mode=memory"))
	assert.False(t, inMemory(filepath.Join(t.TempDir(), "history.db")))
}

func TestStore_InMemoryKeepsData(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Record(ctx, OpAssign, "", "no models")
	require.NoError(t, err)
	assert.Equal(t, 1, s.db.Stats().MaxOpenConnections)

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
