package storage

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nicot/triplestore/id160"
	"github.com/nicot/triplestore/internal/xmetrics"
	"github.com/nicot/triplestore/layer"
)

// Cache decorates a LayerStore with a bounded, in-memory Layer cache. Its
// contract has two parts: eviction never invalidates a layer a
// caller is already holding (eviction only drops the cache's own
// reference), and concurrent GetLayer calls for the same name never
// materialize it twice — the second caller waits on the first's result via
// singleflight rather than duplicating the work. This is unlike
// VictoriaMetrics/fastcache (used instead in the directory backend, see
// directory.go), which is a byte-oriented off-heap cache that cannot
// preserve Go object identity for *layer.Layer values.
type Cache struct {
	inner LayerStore
	cap   int

	mu    sync.Mutex
	items map[id160.ID]*list.Element
	order *list.List // front = most recently used

	group singleflight.Group
}

type cacheEntry struct {
	name id160.ID
	l    *layer.Layer
}

// NewCache wraps inner with an LRU cache holding up to capacity Layer
// values. capacity <= 0 means config.DefaultCacheEntries.
func NewCache(inner LayerStore, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		inner: inner,
		cap:   capacity,
		items: make(map[id160.ID]*list.Element),
		order: list.New(),
	}
}

func (c *Cache) touch(name id160.ID, l *layer.Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[name]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).l = l
		return
	}
	el := c.order.PushFront(&cacheEntry{name: name, l: l})
	c.items[name] = el
	for c.order.Len() > c.cap {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.items, back.Value.(*cacheEntry).name)
	}
}

func (c *Cache) get(name id160.ID) (*layer.Layer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[name]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).l, true
}

func (c *Cache) CreateBaseLayer(ctx context.Context) (*layer.LayerBuilder, error) {
	return c.inner.CreateBaseLayer(ctx)
}

func (c *Cache) CreateChildLayer(ctx context.Context, parentName id160.ID) (*layer.LayerBuilder, error) {
	return c.inner.CreateChildLayer(ctx, parentName)
}

func (c *Cache) CommitBuilder(ctx context.Context, b *layer.LayerBuilder) (*layer.Layer, error) {
	stop := xmetrics.Timer(xmetrics.CommitDuration)
	defer stop()
	l, err := c.inner.CommitBuilder(ctx, b)
	if err != nil {
		return nil, err
	}
	c.touch(l.Name(), l)
	return l, nil
}

// GetLayer materializes name, serving a cached value when present and
// otherwise coalescing concurrent callers behind a single materialization.
func (c *Cache) GetLayer(ctx context.Context, name id160.ID) (*layer.Layer, bool, error) {
	if l, ok := c.get(name); ok {
		xmetrics.CacheHits.Inc()
		return l, true, nil
	}
	xmetrics.CacheMisses.Inc()

	type result struct {
		l  *layer.Layer
		ok bool
	}
	v, err, shared := c.group.Do(name.String(), func() (any, error) {
		stop := xmetrics.Timer(xmetrics.MaterializeDuration)
		defer stop()
		l, ok, err := c.inner.GetLayer(ctx, name)
		if err != nil || !ok {
			return result{nil, false}, err
		}
		c.touch(name, l)
		return result{l, true}, nil
	})
	if shared {
		xmetrics.CacheCoalesced.Inc()
	}
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return r.l, r.ok, nil
}

func (c *Cache) ParentName(ctx context.Context, name id160.ID) (id160.ID, bool, error) {
	return c.inner.ParentName(ctx, name)
}

func (c *Cache) LayerIsAncestorOf(ctx context.Context, candidate, anchor id160.ID) (bool, error) {
	return c.inner.LayerIsAncestorOf(ctx, candidate, anchor)
}

func (c *Cache) ExportLayers(ctx context.Context, names []id160.ID) ([]byte, error) {
	return c.inner.ExportLayers(ctx, names)
}

func (c *Cache) ImportLayers(ctx context.Context, pack []byte, names []id160.ID) error {
	return c.inner.ImportLayers(ctx, pack, names)
}

func (c *Cache) insertLayer(ctx context.Context, l *layer.Layer) error {
	if ins, ok := c.inner.(layerInserter); ok {
		if err := ins.insertLayer(ctx, l); err != nil {
			return err
		}
	}
	c.touch(l.Name(), l)
	return nil
}
