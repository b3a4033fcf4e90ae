package securestore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"house-inspect/internal/domain/port"
	"house-inspect/internal/logger"
)

// ErrStorageFailed оборачивает любые сбои шифрования и записи/чтения.
var ErrStorageFailed = errors.New("storage failed")

// DefaultPrefix префикс ключей приложения
const DefaultPrefix = "speed_inspect_"

// SecureStorage шифрованное хранилище поверх KeyValueStore.
// Значения сериализуются в JSON и шифруются перед записью, бинарные данные
// перед шифрованием кодируются в base64.
type SecureStorage struct {
	kv     port.KeyValueStore
	enc    *EncryptionService
	prefix string
	log    *logger.Logger
}

// New создаёт хранилище; пустой prefix заменяется DefaultPrefix
func New(kv port.KeyValueStore, enc *EncryptionService, prefix string, log *logger.Logger) *SecureStorage {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SecureStorage{
		kv:     kv,
		enc:    enc,
		prefix: prefix,
		log:    log.WithComponent("securestore"),
	}
}

// SetItem сохраняет значение под ключом
func (s *SecureStorage) SetItem(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return s.fail(ctx, "set item", key, err)
	}
	return s.put(ctx, key, string(data))
}

// GetItem читает значение в out; false если ключа нет
func (s *SecureStorage) GetItem(ctx context.Context, key string, out any) (bool, error) {
	plain, found, err := s.get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(plain), out); err != nil {
		return false, s.fail(ctx, "get item", key, err)
	}
	return true, nil
}

// RemoveItem удаляет ключ
func (s *SecureStorage) RemoveItem(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, s.prefix+key); err != nil {
		return s.fail(ctx, "remove item", key, err)
	}
	return nil
}

// Keys возвращает ключи (без префикса приложения), начинающиеся с prefix
func (s *SecureStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.kv.Keys(ctx, s.prefix+prefix)
	if err != nil {
		return nil, s.fail(ctx, "list keys", prefix, err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return out, nil
}

// Clear удаляет все ключи приложения, чужие ключи не трогает
func (s *SecureStorage) Clear(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, s.prefix)
	if err != nil {
		return s.fail(ctx, "clear", s.prefix, err)
	}
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			return s.fail(ctx, "clear", k, err)
		}
	}
	return nil
}

// StoreBlob сохраняет бинарные данные (видео)
func (s *SecureStorage) StoreBlob(ctx context.Context, key string, data []byte) error {
	return s.put(ctx, key, base64.StdEncoding.EncodeToString(data))
}

// GetBlob читает бинарные данные
func (s *SecureStorage) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	plain, found, err := s.get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	data, err := base64.StdEncoding.DecodeString(plain)
	if err != nil {
		return nil, false, s.fail(ctx, "get blob", key, err)
	}
	return data, true, nil
}

func (s *SecureStorage) put(ctx context.Context, key, plain string) error {
	encrypted, err := s.enc.Encrypt(plain)
	if err != nil {
		return s.fail(ctx, "encrypt", key, err)
	}
	if err := s.kv.Set(ctx, s.prefix+key, encrypted); err != nil {
		return s.fail(ctx, "write", key, err)
	}
	return nil
}

func (s *SecureStorage) get(ctx context.Context, key string) (string, bool, error) {
	encrypted, found, err := s.kv.Get(ctx, s.prefix+key)
	if err != nil {
		return "", false, s.fail(ctx, "read", key, err)
	}
	if !found || encrypted == "" {
		return "", false, nil
	}
	plain, err := s.enc.Decrypt(encrypted)
	if err != nil {
		return "", false, s.fail(ctx, "decrypt", key, err)
	}
	return plain, true, nil
}

func (s *SecureStorage) fail(ctx context.Context, op, key string, err error) error {
	s.log.LogError(ctx, err, "storage operation failed", "op", op, "key", key)
	return fmt.Errorf("%w: %s %s: %v", ErrStorageFailed, op, key, err)
}

// Проверка реализации интерфейса
var _ port.BlobStore = (*SecureStorage)(nil)
