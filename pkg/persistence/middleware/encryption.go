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

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

// EnvelopeKey is the single attribute an encrypted save holds.
const EnvelopeKey = "__encrypted__"

// ErrKeySize is returned for keys that are not 32 bytes.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new saves. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when the active key cannot decrypt a save,
	// so old keys keep working during rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AttributeStore
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts every save with AES-GCM. The underlying
// store only ever sees a one-attribute envelope.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key: %w", ErrKeySize)
		}
	}
	return func(next ports.AttributeStore) ports.AttributeStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, saveID string, attrs map[string]domain.Value) error {
	plainText, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt attributes: %w", err)
	}

	return m.next.Save(ctx, saveID, map[string]domain.Value{
		EnvelopeKey: domain.String(base64.StdEncoding.EncodeToString(ciphertext)),
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, saveID string) (map[string]domain.Value, error) {
	envelope, err := m.next.Load(ctx, saveID)
	if err != nil {
		return nil, err
	}

	// a save without an envelope was written unencrypted; fail closed
	encoded, ok := envelope[EnvelopeKey].Str()
	if !ok {
		return nil, errors.New("save is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt save: %w", err)
	}

	var attrs map[string]domain.Value
	if err := json.Unmarshal(plainText, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted save: %w", err)
	}
	if attrs == nil {
		attrs = map[string]domain.Value{}
	}
	return attrs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, saveID string) error {
	return m.next.Delete(ctx, saveID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
