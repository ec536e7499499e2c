// Package cache — явная, внедряемая абстракция TTL-кэша.
// Кэш ускоряет чтение ростера и исключений, но корректность
// подсчёта от него не зависит: любой промах просто идёт в БД.
package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
)

// Cache оборачивает sfcache.TieredCache и добавляет инвалидацию
// по пространствам имён ("members", "exclusions").
//
// Инвалидация реализована через поколения: каждому пространству имён
// соответствует счётчик, входящий в ключ. Сброс пространства — это
// инкремент счётчика, старые записи умирают по TTL.
type Cache struct {
	tc  *sfcache.TieredCache[string, []byte]
	ttl time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

// New создаёт кэш в памяти без дисковой персистентности.
func New(ttl time.Duration) (*Cache, error) {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte](), sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("создание кэша: %w", err)
	}
	return &Cache{tc: tc, ttl: ttl, gens: make(map[string]uint64)}, nil
}

// NewWithPath создаёт кэш с дисковой персистентностью в указанной папке.
func NewWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("создание папки кэша: %w", err)
	}
	persist, err := localfs.New[string, []byte]("matsuni-bot", cachePath)
	if err != nil {
		return nil, fmt.Errorf("создание слоя персистентности: %w", err)
	}
	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("создание кэша: %w", err)
	}
	return &Cache{tc: tc, ttl: ttl, gens: make(map[string]uint64)}, nil
}

// TTL возвращает время жизни записей.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetSet возвращает значение по ключу внутри пространства имён;
// при промахе вызывает fetch и кэширует результат.
// Параллельные промахи по одному ключу схлопываются в один fetch.
func (c *Cache) GetSet(ctx context.Context, namespace, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		// nil-кэш — валидный «выключенный» вариант
		return fetch(ctx)
	}
	return c.tc.GetSet(ctx, c.versionedKey(namespace, key), fetch)
}

// Invalidate сбрасывает все записи пространства имён.
// Вызывается после записи в соответствующую таблицу.
func (c *Cache) Invalidate(namespace string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gens[namespace]++
	c.mu.Unlock()
}

func (c *Cache) versionedKey(namespace, key string) string {
	c.mu.Lock()
	gen := c.gens[namespace]
	c.mu.Unlock()
	return fmt.Sprintf("%s:%d:%s", namespace, gen, key)
}
