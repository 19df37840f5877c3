package dashboard

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/domain"
)

// viewCache is a thread-safe LRU of derived view models. Keys embed the
// snapshot generation, so entries from an older snapshot are never hit again
// and age out as new views are built.
type viewCache struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cachedView struct {
	key  string
	view domain.ViewModel
}

func newViewCache(maxEntries int) *viewCache {
	return &viewCache{
		maxEntries: max(maxEntries, 1),
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *viewCache) get(key string) (domain.ViewModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.ViewModel{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedView).view, true
}

func (c *viewCache) put(key string, view domain.ViewModel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cachedView).view = view
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cachedView{key: key, view: view})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cachedView).key)
	}
}

func (c *viewCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
