// Package optimistic применяет спекулятивное изменение кеша до ответа сервера
// и откатывает его к снимку, если сервер мутацию отклонил.
//
// Протокол трёхфазный: Begin (снимок + спекулятивное значение) → Commit | Rollback → Settle.
// Одновременные мутации одного ключа не сериализуются: побеждает последняя запись.
package optimistic

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/querycache"
)

type Phase string

const (
	PhaseSpeculative Phase = "speculative"
	PhaseCommitted   Phase = "committed"
	PhaseRolledBack  Phase = "rolled_back"
	PhaseSettled     Phase = "settled"
)

// Outcome — результат фазы
type Outcome struct {
	Key     string
	Phase   Phase
	Applied bool   // фаза изменила кеш
	Value   []byte // значение ключа после фазы (nil, если записи нет)
}

// Transform — чистая функция прежнего значения
type Transform func(prev []byte) ([]byte, error)

type Coordinator struct {
	cache *querycache.Store
	log   *log.Logger

	mu       sync.Mutex
	inflight map[string][]*Pending
}

func New(cache *querycache.Store, logger *log.Logger) *Coordinator {
	return &Coordinator{cache: cache, log: logger, inflight: make(map[string][]*Pending)}
}

// Pending — мутация в полёте. Снимок принадлежит только ей и выбрасывается на Settle.
type Pending struct {
	c        *Coordinator
	key      string
	epoch    uint64
	snapshot []byte
	has      bool // на момент Begin запись существовала и transform применён
	phase    Phase
	mu       sync.Mutex
}

// Begin: отменяет чтения ключа, снимает снимок и применяет transform.
// Если записи нет, transform пропускается и мутация идёт только запросом.
func (c *Coordinator) Begin(key string, transform Transform) (*Pending, Outcome, error) {
	c.cache.CancelReads(key)
	p := &Pending{c: c, key: key, epoch: c.cache.Epoch(), phase: PhaseSpeculative}

	prev, next, ok, err := c.cache.Update(key, transform)
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("speculative %q: %w", key, err)
	}
	if ok {
		p.snapshot, p.has = prev, true
	}

	c.mu.Lock()
	c.inflight[key] = append(c.inflight[key], p)
	c.mu.Unlock()

	if ok {
		c.log.Printf("begin %q: speculative applied", key)
	} else {
		c.log.Printf("begin %q: no cache entry, request only", key)
	}
	return p, Outcome{Key: key, Phase: PhaseSpeculative, Applied: ok, Value: next}, nil
}

func (p *Pending) Key() string { return p.key }

func (p *Pending) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Snapshot — копия значения до мутации
func (p *Pending) Snapshot() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bytes.Clone(p.snapshot), p.has
}

// live — кеш не очищали с момента Begin (logout)
func (p *Pending) live() bool { return p.c.cache.Epoch() == p.epoch }

// Commit записывает подтверждённое сервером значение; confirmed=nil — оставить спекулятивное.
func (p *Pending) Commit(confirmed []byte) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Outcome{Key: p.key, Phase: p.phase}
	if p.phase != PhaseSpeculative {
		return out
	}
	p.phase = PhaseCommitted
	out.Phase = PhaseCommitted
	if confirmed != nil && p.live() {
		p.c.cache.Set(p.key, confirmed)
		out.Applied = true
	}
	out.Value, _ = p.c.cache.Get(p.key)
	p.c.log.Printf("commit %q: server value applied=%t", p.key, out.Applied)
	return out
}

// Rollback возвращает в кеш ровно тот снимок, что снят в Begin.
// Повторный Rollback, Rollback после Commit/Settle и мутация без записи — no-op.
func (p *Pending) Rollback() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Outcome{Key: p.key, Phase: p.phase}
	if p.phase != PhaseSpeculative {
		return out
	}
	p.phase = PhaseRolledBack
	out.Phase = PhaseRolledBack
	if p.has && p.live() {
		p.c.cache.Set(p.key, p.snapshot)
		out.Applied = true
	}
	out.Value, _ = p.c.cache.Get(p.key)
	p.c.log.Printf("rollback %q: restored=%t", p.key, out.Applied)
	return out
}

// Settle помечает ключи устаревшими (по умолчанию — сам ключ) и выбрасывает снимок
func (p *Pending) Settle(invalidate ...string) Outcome {
	p.mu.Lock()
	if p.phase == PhaseSettled {
		p.mu.Unlock()
		return Outcome{Key: p.key, Phase: PhaseSettled}
	}
	p.phase = PhaseSettled
	p.snapshot, p.has = nil, false
	p.mu.Unlock()

	p.c.forget(p)
	if len(invalidate) == 0 {
		invalidate = []string{p.key}
	}
	n := p.c.cache.Invalidate(invalidate...)
	p.c.log.Printf("settle %q: invalidated %d key(s)", p.key, n)
	return Outcome{Key: p.key, Phase: PhaseSettled, Applied: n > 0}
}

func (c *Coordinator) forget(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.inflight[p.key]
	for i, q := range list {
		if q == p {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.inflight, p.key)
	} else {
		c.inflight[p.key] = list
	}
}

// InFlight — число незавершённых мутаций ключа
func (c *Coordinator) InFlight(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight[key])
}

// Rollback откатывает последнюю незавершённую мутацию ключа; без мутаций — no-op.
func (c *Coordinator) Rollback(key string) Outcome {
	c.mu.Lock()
	list := c.inflight[key]
	var p *Pending
	if len(list) > 0 {
		p = list[len(list)-1]
	}
	c.mu.Unlock()
	if p == nil {
		return Outcome{Key: key}
	}
	return p.Rollback()
}

// Mutation описывает одну оптимистичную операцию
type Mutation[In, Out any] interface {
	// Key — ключ кеша, на который влияет вход
	Key(in In) string
	// Apply — спекулятивное изменение, тотальная функция прежнего значения и входа
	Apply(prev []byte, in In) ([]byte, error)
	// Do — сам запрос к API
	Do(ctx context.Context, in In) (Out, error)
	// Confirm — значение для кеша из ответа сервера; nil — оставить спекулятивное
	Confirm(cur []byte, out Out) []byte
	// Invalidates — что пометить устаревшим после завершения
	Invalidates(in In) []string
}

// Mutate прогоняет мутацию целиком: Begin → Do → Commit|Rollback → Settle.
// Ошибка сервера возвращается обёрнутой в domain.ErrMutation уже после отката.
func Mutate[In, Out any](ctx context.Context, c *Coordinator, m Mutation[In, Out], in In) (Out, error) {
	var zero Out
	key := m.Key(in)
	p, _, err := c.Begin(key, func(prev []byte) ([]byte, error) { return m.Apply(prev, in) })
	if err != nil {
		return zero, err
	}
	defer p.Settle(m.Invalidates(in)...)

	out, err := m.Do(ctx, in)
	if err != nil {
		p.Rollback()
		return zero, fmt.Errorf("%w: %s: %w", domain.ErrMutation, key, err)
	}

	var confirmed []byte
	if cur, ok := c.cache.Get(key); ok {
		confirmed = m.Confirm(cur, out)
	}
	p.Commit(confirmed)
	return out, nil
}
