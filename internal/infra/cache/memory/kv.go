// Package memory — KV с TTL в памяти; заменяет Redis для блэклиста при локальном запуске.
package memory

import (
	"context"
	"sync"
	"time"
)

type item struct {
	val []byte
	exp time.Time
}

type KV struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

func New() *KV {
	return &KV{items: map[string]item{}, now: time.Now}
}

func (k *KV) Ping(context.Context) error { return nil }

// SetNX — как в Redis: записывает, только если ключа нет (или он истёк)
func (k *KV) SetNX(_ context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if it, ok := k.items[key]; ok && !k.expired(it) {
		return false, nil
	}
	it := item{val: append([]byte(nil), val...)}
	if ttlSeconds > 0 {
		it.exp = k.now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	k.items[key] = it
	return true, nil
}

func (k *KV) Exists(_ context.Context, key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.items[key]
	if ok && k.expired(it) {
		delete(k.items, key)
		return false, nil
	}
	return ok, nil
}

func (k *KV) expired(it item) bool {
	return !it.exp.IsZero() && !k.now().Before(it.exp)
}
