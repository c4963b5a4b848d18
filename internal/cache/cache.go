// Package cache holds the derivation memo: a bounded LRU with optional TTL.
package cache

// Cache is the minimal contract the store needs from a memo backend.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}
