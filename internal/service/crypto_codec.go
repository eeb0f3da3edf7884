package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"payment-broker/pkg/apperror"
)

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
)

var errCiphertextTooShort = errors.New("ciphertext shorter than nonce and tag")

// AESCodec implements ports.Codec using AES-256-GCM.
// Ciphertexts are base64(nonce || ciphertext || tag).
type AESCodec struct {
	aead cipher.AEAD
}

// NewAESCodec creates a codec from a 64-character hex key (32 bytes decoded).
func NewAESCodec(hexKey string) (*AESCodec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &AESCodec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *AESCodec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperror.ErrEncryptionFailure(fmt.Errorf("generating nonce: %w", err))
	}

	// Seal appends ciphertext||tag to nonce.
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure is an integrity
// error: the input is not ciphertext under this key.
func (c *AESCodec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", apperror.ErrIntegrity(fmt.Errorf("decoding ciphertext: %w", err))
	}
	if len(raw) < gcmNonceSize+gcmTagSize {
		return "", apperror.ErrIntegrity(errCiphertextTooShort)
	}

	nonce, sealed := raw[:gcmNonceSize], raw[gcmNonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperror.ErrIntegrity(fmt.Errorf("decrypting: %w", err))
	}
	return string(plaintext), nil
}
