// Package credential persists the remote ledger OAuth token record with the
// token fields encrypted under the store's AES key.
package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the key or IV do not decode to valid AES sizes
	ErrInvalidKey = errors.New("credential: invalid encryption key or iv")
	// ErrInvalidCiphertext is returned when a stored value cannot be decrypted
	ErrInvalidCiphertext = errors.New("credential: invalid ciphertext")
)

// Cipher encrypts short strings with AES-CBC and PKCS7 padding. Output is
// base64 of the raw ciphertext.
type Cipher struct {
	block cipher.Block
	iv    []byte
}

// NewCipher builds a Cipher from a base64 key (16, 24 or 32 bytes) and a
// base64 IV (16 bytes).
func NewCipher(keyB64, ivB64 string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrInvalidKey, err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrInvalidKey, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidKey, block.BlockSize(), len(iv))
	}
	return &Cipher{block: block, iv: iv}, nil
}

// Encrypt returns the base64 ciphertext of plain
func (c *Cipher) Encrypt(plain string) string {
	padded := pkcs7Pad([]byte(plain), c.block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	bs := c.block.BlockSize()
	if len(raw) == 0 || len(raw)%bs != 0 {
		return "", fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(raw))
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)

	plain, err := pkcs7Unpad(out, bs)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrInvalidCiphertext)
		}
	}
	return b[:len(b)-n], nil
}
