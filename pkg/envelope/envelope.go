// Package envelope implements the symmetric codec used for every /api body.
// Requests and responses travel as {"encrypted": "<ciphertext>"} where the
// plaintext is a JSON document.
//
// The key is a single static process-wide secret shared with clients, so
// the envelope is an obfuscation layer on top of HTTPS, not a per-user
// confidentiality boundary.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Error codes carried by auth-failure payloads.
const (
	// CodeAuthRequired means the call cannot be replayed after login.
	CodeAuthRequired = "AUTH_REQUIRED"

	// CodeAuthRequiredRetry means forwardData holds a safe replay payload.
	CodeAuthRequiredRetry = "AUTH_REQUIRED_RETRY"
)

// keyInfo is the HKDF info label for envelope keys.
const keyInfo = "bocmenh/envelope/v1"

// ErrMalformed is returned when a ciphertext cannot be decoded or opened.
var ErrMalformed = errors.New("envelope: malformed ciphertext")

// Body is the wire shape of every encrypted request and response body.
type Body struct {
	Encrypted string `json:"encrypted"`
}

// Payload is the decrypted shape of every API response.
type Payload struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	Data        any               `json:"data,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	ErrorCode   string            `json:"errorCode,omitempty"`
	ForwardData any               `json:"forwardData,omitempty"`

	// Backend error passthrough for client-side special-casing.
	BeErrorCode     string `json:"beErrorCode,omitempty"`
	BeErrorMetaData any    `json:"beErrorMetaData,omitempty"`
	BeErrorMessage  string `json:"beErrorMessage,omitempty"`
}

// Codec encrypts and decrypts JSON payloads with AES-256-GCM. A Codec is
// safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// New derives the AES-256 key from secret with HKDF-SHA256 and returns a
// ready Codec.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("envelope: empty secret")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Codec{aead: gcm}, nil
}

// Encrypt serializes payload to JSON and returns base64([nonce][ciphertext+tag]).
func (c *Codec) Encrypt(payload any) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt and unmarshals the plaintext JSON into out.
func (c *Codec) Decrypt(ciphertext string, out any) error {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return fmt.Errorf("%w: too short", ErrMalformed)
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("unmarshaling payload: %w", err)
	}
	return nil
}

// Seal encrypts payload and wraps it in a Body.
func (c *Codec) Seal(payload any) (Body, error) {
	s, err := c.Encrypt(payload)
	if err != nil {
		return Body{}, err
	}
	return Body{Encrypted: s}, nil
}
