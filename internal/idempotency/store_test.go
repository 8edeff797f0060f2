package idempotency

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, path string) (*Store, *fakeClock) {
	t.Helper()
	s, err := NewStore(path)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s.now = clock.Now
	return s, clock
}

func TestCheckAndMark(t *testing.T) {
	s, clock := newTestStore(t, "")

	assert.False(t, s.CheckAndMark("slack:C1:1700.01", time.Minute))
	assert.True(t, s.CheckAndMark("slack:C1:1700.01", time.Minute), "redelivery within ttl")
	assert.False(t, s.CheckAndMark("slack:C1:1700.02", time.Minute))

	clock.t = clock.t.Add(2 * time.Minute)
	assert.False(t, s.CheckAndMark("slack:C1:1700.01", time.Minute), "expired key is fresh again")
}

func TestPrune(t *testing.T) {
	s, clock := newTestStore(t, "")

	s.CheckAndMark("a", time.Minute)
	s.CheckAndMark("b", time.Hour)
	clock.t = clock.t.Add(5 * time.Minute)

	assert.Equal(t, 1, s.Prune())
	assert.Equal(t, 1, s.Len())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "deliveries.json")
	s, _ := newTestStore(t, path)

	s.CheckAndMark("telegram:42", 24*time.Hour)
	require.NoError(t, s.Save())

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	assert.True(t, reloaded.CheckAndMark("telegram:42", time.Hour))
}

func TestMemoryStoreSaveIsNoop(t *testing.T) {
	s, _ := newTestStore(t, "")
	s.CheckAndMark("x", time.Minute)
	assert.NoError(t, s.Save())
}

func TestNewStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deliveries.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path)
	assert.Error(t, err)
}

func TestNewStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deliveries.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
