package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/ledgersync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	testIV  = "MDEyMzQ1Njc4OWFiY2RlZg=="
	otherIV = "ZmVkY2JhOTg3NjU0MzIxMA=="
)

func staticKeys(key, iv string) KeySource {
	return KeySourceFunc(func(context.Context) (string, string, error) { return key, iv, nil })
}

type stubSettings struct {
	s   *integration.Settings
	err error
}

func (p stubSettings) Current(context.Context) (*integration.Settings, error) { return p.s, p.err }

// =============================================================================
// Cipher
// =============================================================================

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey, testIV)
	require.NoError(t, err)

	for _, plain := range []string{"", "a", "0123456789abcdef", "access-token-with-more-than-one-block"} {
		enc := c.Encrypt(plain)
		assert.NotEqual(t, plain, enc)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestCipher_Deterministic(t *testing.T) {
	c, err := NewCipher(testKey, testIV)
	require.NoError(t, err)

	assert.Equal(t, c.Encrypt("token"), c.Encrypt("token"))
}

func TestNewCipher_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key, iv string
	}{
		{"key not base64", "%%%", testIV},
		{"iv not base64", testKey, "%%%"},
		{"key wrong size", "c2hvcnQ=", testIV},
		{"iv wrong size", testKey, "c2hvcnQ="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCipher(tt.key, tt.iv)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestCipher_DecryptInvalid(t *testing.T) {
	c, err := NewCipher(testKey, testIV)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("YWJj")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

// =============================================================================
// FileStore
// =============================================================================

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"), staticKeys(testKey, testIV))

	rec, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	s := NewFileStore(path, staticKeys(testKey, testIV))
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := &TokenRecord{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		TokenType:    "bearer",
		Scope:        "",
		CreatedAt:    created,
	}
	require.NoError(t, s.Save(context.Background(), in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access-1")
	assert.NotContains(t, string(raw), "refresh-1")
	assert.Contains(t, string(raw), `"expires_in": 3600`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "access-1", out.AccessToken)
	assert.Equal(t, "refresh-1", out.RefreshToken)
	assert.Equal(t, 3600, out.ExpiresIn)
	assert.True(t, created.Equal(out.CreatedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileStore_Overwrite(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"), staticKeys(testKey, testIV))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &TokenRecord{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 3600}))
	require.NoError(t, s.Save(ctx, &TokenRecord{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 3600}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2", out.AccessToken)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, staticKeys(testKey, testIV)).Load(context.Background())
	assert.Error(t, err)
}

func TestFileStore_UndecryptableToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"YWJj","refresh_token":"YWJj"}`), 0o600))

	_, err := NewFileStore(path, staticKeys(testKey, testIV)).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestFileStore_KeySourceResolvedPerCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	settings := &integration.Settings{EncryptionKey: testKey, EncryptionIV: testIV}
	s := NewFileStore(path, SettingsKeySource(stubSettings{s: settings}))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &TokenRecord{AccessToken: "long-enough-access-token", RefreshToken: "long-enough-refresh-token"}))

	// Rotate the key: the next save uses it and loads follow.
	settings.EncryptionIV = otherIV
	require.NoError(t, s.Save(ctx, &TokenRecord{AccessToken: "a3", RefreshToken: "r3"}))
	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a3", out.AccessToken)
}

func TestFileStore_KeySourceError(t *testing.T) {
	boom := errors.New("settings unavailable")
	s := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"), SettingsKeySource(stubSettings{err: boom}))

	err := s.Save(context.Background(), &TokenRecord{AccessToken: "a"})
	assert.ErrorIs(t, err, boom)
	assert.Error(t, s.Save(context.Background(), nil))
}
