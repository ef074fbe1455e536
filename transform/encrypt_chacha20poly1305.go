package transform

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// chacha20Poly1305Encryptor implements the "authenticated symmetric with a
// 32-byte key" encryption option of spec §4.B, using
// golang.org/x/crypto/chacha20poly1305 (shared dependency of
// AKJUS-bsc-erigon, ashita-ai-akashi, certenIO-certen-validator).
// Encryption is applied OUTSIDE compression so the pipeline never
// compresses ciphertext.
type chacha20Poly1305Encryptor struct {
	aead cipher.AEAD
}

func newChaCha20Poly1305Encryptor(key []byte) (Encryptor, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("transform: authenticated encryption requires a %d-byte key, got %d",
			chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &chacha20Poly1305Encryptor{aead: aead}, nil
}

func (e *chacha20Poly1305Encryptor) Name() string { return "authenticated" }

// Encrypt prepends a fresh random nonce to the ciphertext; Decrypt peels
// it back off. This keeps the encoding self-contained so no side channel
// is needed to carry the nonce.
func (e *chacha20Poly1305Encryptor) Encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return e.aead.Seal(nonce, nonce, data, nil), nil
}

func (e *chacha20Poly1305Encryptor) Decrypt(data []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("transform: ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return e.aead.Open(nil, nonce, ciphertext, nil)
}
