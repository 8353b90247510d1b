// Package querycache — общий для процесса кеш ответов Resource API.
// Значения — JSON-документы ([]byte), один ключ — одно значение.
// Наружу всегда отдаются копии, внутренние байты не утекают.
package querycache

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrReadCancelled — чтение было отменено (CancelReads/Remove/Clear), а в кеше для ключа пусто.
var ErrReadCancelled = errors.New("querycache: read cancelled")

// Fetcher загружает авторитетное значение ключа
type Fetcher func(ctx context.Context) ([]byte, error)

type entry struct {
	value     []byte
	has       bool
	stale     bool
	updatedAt time.Time

	// fence растёт при каждой отмене чтений; чтение, начатое при другом fence, в кеш не пишет
	fence uint64
	reads map[uint64]context.CancelFunc
}

type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	epoch   uint64
	readSeq uint64

	staleAfter time.Duration
	now        func() time.Time
	log        *log.Logger
}

type Option func(*Store)

// WithStaleAfter — значение старше d считается устаревшим (0 — только явная инвалидация)
func WithStaleAfter(d time.Duration) Option { return func(s *Store) { s.staleAfter = d } }

func WithLogger(l *log.Logger) Option { return func(s *Store) { s.log = l } }

func withClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New создаёт пустой кеш
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (s *Store) entryLocked(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{reads: make(map[uint64]context.CancelFunc)}
		s.entries[key] = e
	}
	return e
}

func (s *Store) freshLocked(e *entry) bool {
	if !e.has || e.stale {
		return false
	}
	if s.staleAfter > 0 && s.now().Sub(e.updatedAt) > s.staleAfter {
		return false
	}
	return true
}

// Get возвращает копию значения (в том числе устаревшего)
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !e.has {
		return nil, false
	}
	return clone(e.value), true
}

// Set записывает значение и снимает пометку stale
func (s *Store) Set(key string, val []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, val)
	s.log.Printf("SET %q (%d bytes)", key, len(val))
}

func (s *Store) setLocked(key string, val []byte) {
	e := s.entryLocked(key)
	e.value = clone(val)
	e.has = true
	e.stale = false
	e.updatedAt = s.now()
}

// Update атомарно применяет fn к текущему значению.
// Если значения нет, fn не вызывается и ok=false. prev — копия значения до изменения.
func (s *Store) Update(key string, fn func(cur []byte) ([]byte, error)) (prev, next []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[key]
	if !exists || !e.has {
		return nil, nil, false, nil
	}
	prev = clone(e.value)
	next, err = fn(clone(e.value))
	if err != nil {
		return prev, nil, true, err
	}
	s.setLocked(key, next)
	s.log.Printf("UPDATE %q (%d -> %d bytes)", key, len(prev), len(next))
	return prev, clone(next), true, nil
}

// Remove удаляет ключ и отменяет его чтения. Удаление отсутствующего ключа безопасно.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		cancelReadsLocked(e)
		delete(s.entries, key)
		s.log.Printf("REMOVE %q", key)
	}
}

// Clear — teardown при logout: всё удаляется, все чтения отменяются
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		cancelReadsLocked(e)
	}
	s.entries = make(map[string]*entry)
	s.epoch++
	s.log.Printf("CLEAR (epoch=%d)", s.epoch)
}

// Epoch меняется при каждом Clear
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func cancelReadsLocked(e *entry) {
	e.fence++
	for id, cancel := range e.reads {
		cancel()
		delete(e.reads, id)
	}
}

// CancelReads отменяет чтения ключа, которые уже в полёте.
// Отмена рекомендательная: запрос может дойти до сервера, но его результат в кеш не попадёт.
func (s *Store) CancelReads(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return 0
	}
	n := len(e.reads)
	cancelReadsLocked(e)
	if n > 0 {
		s.log.Printf("CANCEL %q: %d read(s)", key, n)
	}
	return n
}

// Invalidate помечает устаревшими ключи, совпадающие с любым префиксом по границе сегмента:
// "post" совпадает с "post" и "post:p1", но не с "posts:1".
func (s *Store) Invalidate(prefixes ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, e := range s.entries {
		if !e.has || !matchAny(key, prefixes) {
			continue
		}
		e.stale = true
		n++
	}
	s.log.Printf("INVALIDATE %v: %d key(s)", prefixes, n)
	return n
}

func matchAny(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if key == p || strings.HasPrefix(key, p+":") {
			return true
		}
	}
	return false
}

// Stale — нужен ли ключу повторный fetch
func (s *Store) Stale(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return !ok || !s.freshLocked(e)
}

// Keys — ключи со значением, отсортированы
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.has {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Fetch отдаёт свежее значение из кеша, иначе вызывает fetch и сохраняет результат.
// Если за время чтения его отменили, результат не пишется: вызывающий получает
// текущее значение кеша, а при его отсутствии — ErrReadCancelled.
func (s *Store) Fetch(ctx context.Context, key string, fetch Fetcher) ([]byte, error) {
	s.mu.Lock()
	e := s.entryLocked(key)
	if s.freshLocked(e) {
		v := clone(e.value)
		s.mu.Unlock()
		s.log.Printf("FETCH %q: hit", key)
		return v, nil
	}
	rctx, cancel := context.WithCancel(ctx)
	s.readSeq++
	id := s.readSeq
	fence := e.fence
	e.reads[id] = cancel
	s.mu.Unlock()
	defer cancel()

	val, err := fetch(rctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(e.reads, id)

	cur, alive := s.entries[key]
	if !alive || cur != e || e.fence != fence {
		s.log.Printf("FETCH %q: cancelled, result dropped", key)
		if alive && cur.has {
			return clone(cur.value), nil
		}
		if err != nil {
			return nil, errors.Join(ErrReadCancelled, err)
		}
		return nil, ErrReadCancelled
	}
	if err != nil {
		s.log.Printf("FETCH %q: error: %v", key, err)
		if !e.has && len(e.reads) == 0 {
			delete(s.entries, key)
		}
		return nil, err
	}
	s.setLocked(key, val)
	s.log.Printf("FETCH %q: miss, stored %d bytes", key, len(val))
	return clone(val), nil
}
