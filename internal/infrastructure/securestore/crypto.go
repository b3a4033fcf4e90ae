package securestore

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Соль фиксирована: ключ выводится один раз из пароля приложения.
var kdfSalt = []byte("house-inspect/securestore/v1")

const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrDecrypt возвращается для повреждённых или чужих шифртекстов.
var ErrDecrypt = errors.New("decrypt failed")

// EncryptionService шифрует строки ключом, выведенным из пароля.
type EncryptionService struct {
	key []byte
}

// NewEncryptionService выводит ключ из пароля через scrypt
func NewEncryptionService(passphrase string) (*EncryptionService, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase is empty")
	}
	key, err := scrypt.Key([]byte(passphrase), kdfSalt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &EncryptionService{key: key}, nil
}

// Encrypt возвращает base64(nonce || ciphertext)
func (s *EncryptionService) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt обратная операция к Encrypt
func (s *EncryptionService) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

// Hash возвращает SHA-256 в hex
func (s *EncryptionService) Hash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// VerifyHash проверяет целостность данных
func (s *EncryptionService) VerifyHash(data, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(s.Hash(data)), []byte(hash)) == 1
}
