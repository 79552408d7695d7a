package walletstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	cipherPrefix = "enc:v1:"

	kdfIterations = 100_000
	keyLength     = 32
	SaltLength    = 16
)

// FieldCipher encrypts single string fields with AES-256-GCM. The key is derived
// once from a passphrase and the store salt.
type FieldCipher struct {
	aead cipher.AEAD
}

func NewFieldCipher(passphrase string, salt []byte) (*FieldCipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("missing passphrase for field encryption")
	}
	if len(salt) < SaltLength {
		return nil, fmt.Errorf("salt is too short: %d bytes", len(salt))
	}

	key := pbkdf2.Key([]byte(passphrase), salt, kdfIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &FieldCipher{aead: aead}, nil
}

// NewSalt draws a random salt for a fresh store
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return cipherPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, cipherPrefix) {
		return "", fmt.Errorf("value is not in encrypted form")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, cipherPrefix))
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("ciphertext is truncated")
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("gcm decrypt: %w (wrong passphrase?)", err)
	}

	return string(plaintext), nil
}

// IsEncrypted reports whether a stored value carries the ciphertext marker
func IsEncrypted(stored string) bool {
	return strings.HasPrefix(stored, cipherPrefix)
}
