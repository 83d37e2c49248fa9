package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/datendrehschei/fsen-admin/internal/statefile"
)

// TokenStore persists the API access token between runs.
// Load returns an empty token and no error when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
}

// DefaultTokenPath is the token cache location below the user cache directory.
func DefaultTokenPath() string {
	return filepath.Join(statefile.CacheDir(), "api.token")
}

// FileStore keeps the token in a single owner-readable file, optionally encrypted.
type FileStore struct {
	path string
	enc  *TokenEncryption
}

// NewFileStore creates a FileStore at path. A nil enc stores plaintext.
func NewFileStore(path string, enc *TokenEncryption) *FileStore {
	return &FileStore{path: path, enc: enc}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

// Encrypted reports whether tokens are encrypted at rest.
func (s *FileStore) Encrypted() bool {
	return s.enc.Enabled()
}

// Load reads and, if configured, decrypts the cached token.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token cache %s: %w", s.path, err)
	}

	token, err := s.enc.Decrypt(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token cache %s: %w", s.path, err)
	}
	return token, nil
}

// Save encrypts (if configured) and writes the token with mode 0600.
func (s *FileStore) Save(token string) error {
	sealed, err := s.enc.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}
	return statefile.WriteAtomic(s.path, []byte(sealed), 0o600)
}
