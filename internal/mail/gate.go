package mail

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/datendrehschei/fsen-admin/internal/statefile"
)

// DryRunWindow is how long a dry run unlocks real sending.
const DryRunWindow = 30 * time.Minute

// ErrDryRunRequired is returned when a real send is attempted without a recent
// dry run.
var ErrDryRunRequired = errors.New("a dry run is required before sending: run with --dry-run DIR first")

// StampStore persists the time of the last dry run. Load reports ok=false when
// no dry run was recorded.
type StampStore interface {
	Load() (stamp time.Time, ok bool, err error)
	Save(stamp time.Time) error
}

// StampFileName is the name of the stamp file inside a state directory.
const StampFileName = "last-dry-run"

// DefaultStampPath returns the stamp file below the user state directory.
func DefaultStampPath() string {
	return filepath.Join(statefile.StateDir(), StampFileName)
}

// FileStampStore keeps the stamp as unix seconds in a text file.
type FileStampStore struct {
	path string
}

// NewFileStampStore returns a store backed by path.
func NewFileStampStore(path string) *FileStampStore {
	return &FileStampStore{path: path}
}

// Load reads the stamp.
func (s *FileStampStore) Load() (time.Time, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read dry-run stamp: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt dry-run stamp %s: %w", s.path, err)
	}
	return time.Unix(int64(secs), 0), true, nil
}

// Save writes the stamp.
func (s *FileStampStore) Save(stamp time.Time) error {
	return statefile.WriteAtomic(s.path, []byte(strconv.FormatInt(stamp.Unix(), 10)+"\n"), 0o600)
}

// Gate enforces that real sends follow a dry run within DryRunWindow.
type Gate struct {
	store  StampStore
	now    func() time.Time
	window time.Duration
}

// NewGate creates a Gate. A nil now uses time.Now.
func NewGate(store StampStore, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, now: now, window: DryRunWindow}
}

// Arm records that a dry run is happening now.
func (g *Gate) Arm() error {
	if err := g.store.Save(g.now()); err != nil {
		return fmt.Errorf("failed to record dry run: %w", err)
	}
	return nil
}

// Check returns nil if a dry run happened within the trailing window,
// ErrDryRunRequired otherwise. A stamp later than now does not count.
func (g *Gate) Check() error {
	stamp, ok, err := g.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDryRunRequired
	}
	age := g.now().Sub(stamp)
	if age < 0 {
		return fmt.Errorf("%w (last dry run stamped %s in the future)", ErrDryRunRequired, (-age).Truncate(time.Second))
	}
	if age > g.window {
		return fmt.Errorf("%w (last dry run %s ago, limit %s)", ErrDryRunRequired, age.Truncate(time.Second), g.window)
	}
	return nil
}
