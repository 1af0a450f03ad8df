package segment

import (
	"container/list"

	"github.com/google/uuid"
)

// lru is the "in_memory_segments"-capacity cache of sealed Segments (spec
// section 4.F's "cache_"), structured after the intrusive MRU/LRU list
// hivekit's namecache package uses for its decode cache: a doubly-linked
// list for O(1) touch/evict plus a map for O(1) lookup. No pack dependency
// covers a generic LRU cache, so this stays on container/list rather than
// hand-rolling the intrusive-pointer variant namecache uses -- there is no
// hot per-lookup allocation pressure here the way there is decoding
// millions of registry names.
type lru struct {
	capacity int
	ll       *list.List
	items    map[uuid.UUID]*list.Element
}

type lruEntry struct {
	id  uuid.UUID
	seg *Segment
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[uuid.UUID]*list.Element),
	}
}

// Get returns the cached segment for id, touching it to MRU position.
func (c *lru) Get(id uuid.UUID) (*Segment, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	el, ok := c.items[id]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).seg, true
}

// Add inserts seg as MRU, evicting the LRU entry if over capacity. It
// returns the UUID evicted, if any.
func (c *lru) Add(seg *Segment) (evicted uuid.UUID, didEvict bool) {
	if c.capacity <= 0 {
		return uuid.UUID{}, false
	}
	if el, ok := c.items[seg.UUID]; ok {
		el.Value.(*lruEntry).seg = seg
		c.ll.MoveToFront(el)
		return uuid.UUID{}, false
	}
	el := c.ll.PushFront(&lruEntry{id: seg.UUID, seg: seg})
	c.items[seg.UUID] = el
	if c.ll.Len() > c.capacity {
		back := c.ll.Back()
		c.ll.Remove(back)
		ev := back.Value.(*lruEntry).id
		delete(c.items, ev)
		return ev, true
	}
	return uuid.UUID{}, false
}

// Remove drops id from the cache, if present.
func (c *lru) Remove(id uuid.UUID) {
	if el, ok := c.items[id]; ok {
		c.ll.Remove(el)
		delete(c.items, id)
	}
}
