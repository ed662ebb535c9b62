// Package encryption provides the authenticated symmetric cipher used to
// keep wallet balances encrypted at rest.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	ivLength  = 12 // GCM standard
	tagLength = 16 // 128-bit tag
)

// ErrCorruptCiphertext is returned when a stored blob cannot be
// authenticated, whether tampered with or encrypted under another key.
var ErrCorruptCiphertext = errors.New("corrupt ciphertext")

// Cipher encrypts and decrypts balance strings with AES-256-GCM.
// The stored format is hex(ciphertext) + hex(iv) + hex(tag).
type Cipher struct {
	gcm cipher.AEAD
}

// NewCipher builds a cipher from the configured secret. A 64-char hex
// secret is used as the key directly; anything else is stretched with
// PBKDF2 so short dev secrets still yield a 32-byte key.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}

	key, err := hex.DecodeString(secret)
	if err != nil || len(key) != 32 {
		key = pbkdf2.Key([]byte(secret), []byte("sabiflow_balance_salt"), 10000, 32, sha256.New)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{gcm: gcm}, nil
}

// Encrypt seals the plaintext under a fresh random IV.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := c.gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return hex.EncodeToString(ciphertext) + hex.EncodeToString(iv) + hex.EncodeToString(tag), nil
}

// Decrypt opens a stored blob. Any structural or authentication failure
// yields ErrCorruptCiphertext; ciphertext is never passed through.
func (c *Cipher) Decrypt(blob string) (string, error) {
	trailer := (ivLength + tagLength) * 2
	if len(blob) <= trailer {
		return "", ErrCorruptCiphertext
	}

	tag, err := hex.DecodeString(blob[len(blob)-tagLength*2:])
	if err != nil {
		return "", ErrCorruptCiphertext
	}
	iv, err := hex.DecodeString(blob[len(blob)-trailer : len(blob)-tagLength*2])
	if err != nil {
		return "", ErrCorruptCiphertext
	}
	ciphertext, err := hex.DecodeString(blob[:len(blob)-trailer])
	if err != nil {
		return "", ErrCorruptCiphertext
	}

	plaintext, err := c.gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrCorruptCiphertext
	}

	return string(plaintext), nil
}
