package mail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStampStore struct {
	stamp time.Time
	ok    bool
}

func (s *memStampStore) Load() (time.Time, bool, error) {
	return s.stamp, s.ok, nil
}

func (s *memStampStore) Save(stamp time.Time) error {
	s.stamp, s.ok = stamp, true
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestGate_Window(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr bool
	}{
		{"immediately", 0, false},
		{"within window", 29 * time.Minute, false},
		{"at the limit", 30 * time.Minute, false},
		{"expired", 30*time.Minute + time.Second, true},
		{"long ago", 24 * time.Hour, true},
		{"stamp in the future", -10 * 24 * time.Hour, true},
		{"clock slightly behind", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: start}
			gate := NewGate(&memStampStore{}, clock.Now)
			require.NoError(t, gate.Arm())

			clock.now = start.Add(tt.elapsed)
			err := gate.Check()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDryRunRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGate_NeverArmed(t *testing.T) {
	gate := NewGate(&memStampStore{}, nil)
	assert.ErrorIs(t, gate.Check(), ErrDryRunRequired)
}

func TestFileStampStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last-dry-run")
	store := NewFileStampStore(path)

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	stamp := time.Unix(1714564800, 0)
	require.NoError(t, store.Save(stamp))

	got, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stamp.Equal(got))
}

func TestFileStampStore_FractionalSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-dry-run")
	require.NoError(t, os.WriteFile(path, []byte("1714564800.75"), 0o600))

	got, ok, err := NewFileStampStore(path).Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1714564800), got.Unix())
}

func TestFileStampStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last-dry-run")
	require.NoError(t, os.WriteFile(path, []byte("yesterday"), 0o600))

	_, _, err := NewFileStampStore(path).Load()
	assert.Error(t, err)
}
