package port

import "context"

// KeyValueStore низкоуровневое хранилище строк по ключу, последняя запись побеждает
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys возвращает ключи с заданным префиксом в лексикографическом порядке
	Keys(ctx context.Context, prefix string) ([]string, error)
}
