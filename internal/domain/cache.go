package domain

import "context"

// Ключи кеша/локов — единое место, чтобы не расползались по коду.
func CacheKeySessionMeta(id SessionID) string { return "sessmeta:" + id.String() }
func LockKeyFinalize(id SessionID) string     { return "finalize:" + id.String() }

// Простой k/v интерфейс. Реализация — Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	// Атомарный захват: true, если ключа не было
	SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}
