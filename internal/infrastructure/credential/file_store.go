package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
)

// TokenRecord is the OAuth token state of the remote ledger
type TokenRecord struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	Scope        string
	CreatedAt    time.Time
}

// KeySource yields the base64 AES key and IV for the current operation
type KeySource interface {
	EncryptionKeys(ctx context.Context) (key, iv string, err error)
}

// KeySourceFunc adapts a function to KeySource
type KeySourceFunc func(ctx context.Context) (string, string, error)

// EncryptionKeys implements KeySource
func (f KeySourceFunc) EncryptionKeys(ctx context.Context) (string, string, error) {
	return f(ctx)
}

// SettingsKeySource reads the key pair from the current store settings
func SettingsKeySource(p integration.SettingsProvider) KeySource {
	return KeySourceFunc(func(ctx context.Context) (string, string, error) {
		s, err := p.Current(ctx)
		if err != nil {
			return "", "", err
		}
		return s.EncryptionKey, s.EncryptionIV, nil
	})
}

// fileRecord is the on-disk layout
type fileRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	CreatedAt    time.Time `json:"created_at"`
}

// FileStore keeps a single TokenRecord in a JSON file
type FileStore struct {
	path string
	keys KeySource
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path
func NewFileStore(path string, keys KeySource) *FileStore {
	return &FileStore{path: path, keys: keys}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) cipher(ctx context.Context) (*Cipher, error) {
	key, iv, err := s.keys.EncryptionKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("credential: resolve keys: %w", err)
	}
	return NewCipher(key, iv)
}

// Load reads the stored record. A missing file returns nil, nil.
func (s *FileStore) Load(ctx context.Context) (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read %s: %w", s.path, err)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("credential: decode %s: %w", s.path, err)
	}

	c, err := s.cipher(ctx)
	if err != nil {
		return nil, err
	}
	access, err := c.Decrypt(fr.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("credential: access token: %w", err)
	}
	refresh, err := c.Decrypt(fr.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("credential: refresh token: %w", err)
	}

	return &TokenRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    fr.ExpiresIn,
		TokenType:    fr.TokenType,
		Scope:        fr.Scope,
		CreatedAt:    fr.CreatedAt,
	}, nil
}

// Save encrypts the token fields and atomically replaces the file
func (s *FileStore) Save(ctx context.Context, rec *TokenRecord) error {
	if rec == nil {
		return errors.New("credential: nil token record")
	}
	c, err := s.cipher(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileRecord{
		AccessToken:  c.Encrypt(rec.AccessToken),
		RefreshToken: c.Encrypt(rec.RefreshToken),
		ExpiresIn:    rec.ExpiresIn,
		TokenType:    rec.TokenType,
		Scope:        rec.Scope,
		CreatedAt:    rec.CreatedAt.UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("credential: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credential: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("credential: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credential: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credential: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("credential: rename: %w", err)
	}
	return nil
}
