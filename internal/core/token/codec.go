// Package token implements the authenticated-encryption codec for timestamp
// cookies. A token is the AES-256-GCM ciphertext of the decimal unix-seconds
// representation of an instant, keyed per project and encoded base64url so it
// is safe as a cookie value.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ErrDecrypt is returned for any undecryptable token: malformed encoding,
// wrong key, or a ciphertext that fails the authentication tag check. The
// cause is deliberately not distinguished to the caller.
var ErrDecrypt = errors.New("cannot decrypt token")

// KeySize is the symmetric key length in bytes (AES-256).
const KeySize = 32

// Encrypt seals the given instant under key. The nonce is fresh per call, so
// two tokens for the same instant never compare equal.
func Encrypt(instant time.Time, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	plaintext := []byte(strconv.FormatInt(instant.Unix(), 10))
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. It fails closed: any mutation of
// the ciphertext, a wrong key, or garbage input yields ErrDecrypt, never a
// garbled instant.
func Decrypt(tok string, key []byte) (time.Time, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return time.Time{}, err
	}

	data, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad encoding", ErrDecrypt)
	}
	if len(data) < gcm.NonceSize() {
		return time.Time{}, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}

	secs, err := strconv.ParseInt(string(plaintext), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad plaintext", ErrDecrypt)
	}
	return time.Unix(secs, 0), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d (want %d)", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
