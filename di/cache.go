package di

import (
	"sync"
)

// entry is a singleton instance, constructed or in flight.
type entry struct {
	key   TypeKey
	done  chan struct{}
	value any
	err   error
	// owner is the resolution running the construction.
	owner *resolution
}

// instanceCache stores singleton instances keyed by canonical key. Each key
// is constructed at most once; concurrent callers for the same key wait on
// the in-flight entry. The mutex only guards bookkeeping and is never held
// while constructing.
type instanceCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

func newInstanceCache() *instanceCache {
	return &instanceCache{entries: make(map[string]*entry)}
}

// lookup returns a completed instance for key.
func (c *instanceCache) lookup(id string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[id]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.done:
		return e.value, e.err == nil
	default:
		return nil, false
	}
}

// getOrCreate returns the instance for key, running factory if no other
// resolution has. onCycle builds the error returned when waiting would
// deadlock because the owner is (transitively) waiting on r.
func (c *instanceCache) getOrCreate(r *resolution, key TypeKey, onCycle func() error, factory func() (any, error)) (value any, err error) {
	id := key.mustBeConcrete("instance cache")

	c.mu.Lock()
	if e, ok := c.entries[id]; ok {
		select {
		case <-e.done:
			c.mu.Unlock()
			return e.value, e.err
		default:
		}
		if c.waitWouldCycle(r, e) {
			c.mu.Unlock()
			return nil, onCycle()
		}
		r.waitingOn = e
		c.mu.Unlock()

		<-e.done

		c.mu.Lock()
		r.waitingOn = nil
		c.mu.Unlock()
		return e.value, e.err
	}

	e := &entry{key: key, done: make(chan struct{}), owner: r}
	c.entries[id] = e
	c.mu.Unlock()

	completed := false
	defer func() {
		if !completed {
			e.err = &InvariantError{Key: key, Message: "construction aborted by panic"}
		}
		c.mu.Lock()
		if e.err != nil {
			delete(c.entries, id)
		} else {
			c.order = append(c.order, id)
		}
		e.owner = nil
		c.mu.Unlock()
		close(e.done)
	}()

	e.value, e.err = factory()
	completed = true
	return e.value, e.err
}

// waitWouldCycle follows owner -> waitingOn links from e. Reaching r means
// r would wait on itself.
func (c *instanceCache) waitWouldCycle(r *resolution, e *entry) bool {
	for cur := e; cur != nil; {
		owner := cur.owner
		if owner == nil {
			return false
		}
		if owner == r {
			return true
		}
		cur = owner.waitingOn
	}
	return false
}

// snapshot returns completed entries in construction order.
func (c *instanceCache) snapshot() []*entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*entry, 0, len(c.order))
	for _, id := range c.order {
		if e, ok := c.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// len returns the number of completed instances.
func (c *instanceCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// clear drops every entry.
func (c *instanceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order = nil
}
