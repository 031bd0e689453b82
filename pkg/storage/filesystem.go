package storage

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
)

const (
	saltFile  = ".salt"
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

type fileEnvelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

// FileStore keeps each key in its own file under a base directory. Contents
// are sealed with a key derived from the configured secret, so a copied state
// directory does not leak the bearer token.
type FileStore struct {
	baseDir string
	key     [keySize]byte
	mu      sync.Mutex
	now     func() time.Time
}

// NewFileStore ensures the base directory exists and derives the sealing key.
func NewFileStore(baseDir, secret string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "./.attendance"
	}
	if secret == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "state secret is required")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	salt, err := loadOrCreateSalt(filepath.Join(baseDir, saltFile))
	if err != nil {
		return nil, err
	}
	s := &FileStore{baseDir: baseDir, now: time.Now}
	copy(s.key[:], argon2.IDKey([]byte(secret), salt, 1, 64*1024, 2, keySize))
	return s, nil
}

// Get decodes the stored value into dest.
func (s *FileStore) Get(ctx context.Context, key string, dest interface{}) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	sealed, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("read state %s: %w", key, err)
	}

	plain, err := s.open(sealed)
	if err != nil {
		return fmt.Errorf("open state %s: %w", key, err)
	}
	var env fileEnvelope
	if err := json.Unmarshal(plain, &env); err != nil {
		return fmt.Errorf("decode state %s: %w", key, err)
	}
	if env.ExpiresAt != nil && !s.now().Before(*env.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(env.Value, dest); err != nil {
		return fmt.Errorf("unmarshal state %s: %w", key, err)
	}
	return nil
}

// Set seals and writes value, replacing any previous content atomically.
func (s *FileStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", key, err)
	}
	env := fileEnvelope{Value: raw}
	if ttl > 0 {
		expires := s.now().Add(ttl)
		env.ExpiresAt = &expires
	}
	plain, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", key, err)
	}
	sealed, err := s.seal(plain)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit state %s: %w", key, err)
	}
	return nil
}

// Delete removes a key if present.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) resolve(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid state key")
	}
	return filepath.Join(s.baseDir, key+".state"), nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *FileStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.New("state file truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("state file cannot be decrypted with the configured secret")
	}
	return plain, nil
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil && len(salt) == saltSize {
		return salt, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read state salt: %w", err)
	}
	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate state salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write state salt: %w", err)
	}
	return salt, nil
}
