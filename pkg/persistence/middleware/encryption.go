package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts sessions at
// rest using AES-GCM envelope encryption. The envelope keeps only the
// identity and lifecycle timestamps visible so the store can still expire
// and list sessions; every formation payload field travels in the sealed
// blob.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) seal(session *domain.FormationSession) (*domain.FormationSession, error) {
	plain, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	ciphertext, err := encrypt(plain, m.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt session: %w", err)
	}

	// Identity, status, and timestamps stay visible for expiry scans and
	// monitoring; the payload is hidden.
	envelope := &domain.FormationSession{
		SessionID: session.SessionID,
		Status:    session.Status,
		Sealed:    base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	return envelope, nil
}

func (m *encryptionMiddleware) open(envelope *domain.FormationSession) (*domain.FormationSession, error) {
	if envelope.Sealed == "" {
		// Fail secure: with encryption configured, a plaintext record is
		// either corruption or a misconfigured migration.
		return nil, errors.New("session is missing its encrypted envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var session domain.FormationSession
	if err := json.Unmarshal(plain, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	// The inner store stamps saves on the envelope, not the sealed
	// payload; the envelope's timestamp is authoritative.
	session.UpdatedAt = envelope.UpdatedAt
	return &session, nil
}

// Create lets the inner store allocate the session, then immediately
// replaces the plaintext record with its sealed envelope.
func (m *encryptionMiddleware) Create(ctx context.Context) (*domain.FormationSession, error) {
	session, err := m.next.Create(ctx)
	if err != nil {
		return nil, err
	}

	envelope, err := m.seal(session)
	if err != nil {
		return nil, err
	}
	if err := m.next.Save(ctx, envelope); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *encryptionMiddleware) Get(ctx context.Context, sessionID string) (*domain.FormationSession, error) {
	envelope, err := m.next.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) Save(ctx context.Context, session *domain.FormationSession) error {
	envelope, err := m.seal(session)
	if err != nil {
		return err
	}
	if err := m.next.Save(ctx, envelope); err != nil {
		return err
	}
	// The inner store refreshed the envelope's UpdatedAt; mirror it so
	// the caller observes the same save semantics as an unwrapped store.
	session.UpdatedAt = envelope.UpdatedAt
	return nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) (bool, error) {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.FormationSession, error) {
	envelopes, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]*domain.FormationSession, 0, len(envelopes))
	for _, env := range envelopes {
		session, err := m.open(env)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (m *encryptionMiddleware) Cleanup(ctx context.Context) (int, error) {
	return m.next.Cleanup(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
