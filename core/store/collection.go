package store

import (
	"context"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/campusdesk/core"
)

// fetchRetries bounds how often a caller re-issues a coalesced fetch whose leader went away.
const fetchRetries = 3

type (
	// Keyed is implemented by every cached entity.
	Keyed interface {
		Key() string
	}

	// Remote is the backend resource behind a Collection.
	Remote[T Keyed] interface {
		List(ctx context.Context, q url.Values) ([]T, error)
		Create(ctx context.Context, payload interface{}) (T, error)
		Update(ctx context.Context, id string, patch interface{}) (T, error)
		Delete(ctx context.Context, id string) error
	}

	// MutateFunc is called after every successful mutation of a collection.
	MutateFunc func(ctx context.Context, name string)
)

type mutationKind int

const (
	mutAdd mutationKind = iota
	mutUpdate
	mutDelete
)

type mutation[T Keyed] struct {
	kind mutationKind
	id   string
	item T
	mark uint64 // last fetch issued when the mutation landed
}

type fetchResult[T Keyed] struct {
	items []T
	seq   uint64
}

// Collection caches one backend resource.
//
// Fetch replaces the cached slice wholesale, Add/Update/Delete patch it after the backend
// confirms. Failures leave the cache untouched. Identical concurrent fetches share one request,
// a response older than the last applied one is dropped and mutations that landed while a
// fetch was in flight are replayed on top of its response.
type Collection[T Keyed] struct {
	name     string
	remote   Remote[T]
	onMutate MutateFunc

	group singleflight.Group

	mu      sync.RWMutex
	items   []T
	loaded  bool
	issued  uint64
	applied uint64
	journal []mutation[T]
}

func NewCollection[T Keyed](name string, remote Remote[T], onMutate MutateFunc) *Collection[T] {
	return &Collection[T]{name: name, remote: remote, onMutate: onMutate}
}

func (c *Collection[T]) Name() string { return c.name }

// Loaded reports whether the collection was filled by a fetch or a snapshot.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Items returns a copy of the cached entities.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Find(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]T, 0)
	for _, item := range c.items {
		if pred(item) {
			res = append(res, item)
		}
	}
	return res
}

// Replace sets the cached entities, typically from a snapshot.
// Fetches issued before the call can no longer overwrite them.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]T, 0, len(items)), items...)
	c.loaded = true
	c.applied = c.issued
	c.journal = nil
}

// Fetch loads the entities matching q and replaces the cache with them.
func (c *Collection[T]) Fetch(ctx context.Context, q url.Values) error {
	key := q.Encode()
	for attempt := 0; ; attempt++ {
		ch := c.group.DoChan(key, func() (interface{}, error) {
			return c.list(ctx, q)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return core.NewAPIError(core.KindCanceled, 0, c.name+": fetch canceled", ctx.Err())
		case res = <-ch:
		}

		if ctx.Err() != nil {
			return core.NewAPIError(core.KindCanceled, 0, c.name+": fetch canceled", ctx.Err())
		}
		if res.Err != nil {
			// the shared request was started by a caller that went away
			if res.Shared && core.KindOf(res.Err) == core.KindCanceled && attempt < fetchRetries {
				continue
			}
			return errors.Wrap(res.Err, c.name+": fetch")
		}
		c.apply(res.Val.(fetchResult[T]))
		return nil
	}
}

func (c *Collection[T]) list(ctx context.Context, q url.Values) (fetchResult[T], error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	items, err := c.remote.List(ctx, q)
	if err != nil {
		return fetchResult[T]{}, err
	}
	return fetchResult[T]{items: items, seq: seq}, nil
}

func (c *Collection[T]) apply(res fetchResult[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.seq <= c.applied {
		return
	}
	items := append(make([]T, 0, len(res.items)), res.items...)
	for _, m := range c.journal {
		if m.mark >= res.seq {
			items = replay(items, m)
		}
	}
	c.items = items
	c.loaded = true
	c.applied = res.seq

	kept := c.journal[:0]
	for _, m := range c.journal {
		if m.mark >= res.seq {
			kept = append(kept, m)
		}
	}
	c.journal = kept
}

// Add creates an entity and appends it to the cache.
func (c *Collection[T]) Add(ctx context.Context, payload interface{}) (T, error) {
	item, err := c.remote.Create(ctx, payload)
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, c.name+": add")
	}
	c.record(ctx, mutation[T]{kind: mutAdd, id: item.Key(), item: item})
	return item, nil
}

// Update patches an entity and replaces the cached entry with the same id.
func (c *Collection[T]) Update(ctx context.Context, id string, patch interface{}) (T, error) {
	item, err := c.remote.Update(ctx, id, patch)
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, c.name+": update")
	}
	c.record(ctx, mutation[T]{kind: mutUpdate, id: id, item: item})
	return item, nil
}

// Delete removes an entity and filters it out of the cache.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.remote.Delete(ctx, id); err != nil {
		return errors.Wrap(err, c.name+": delete")
	}
	c.record(ctx, mutation[T]{kind: mutDelete, id: id})
	return nil
}

func (c *Collection[T]) record(ctx context.Context, m mutation[T]) {
	c.mu.Lock()
	m.mark = c.issued
	c.items = replay(c.items, m)
	if c.issued > c.applied {
		// a fetch is in flight and may not see this mutation
		c.journal = append(c.journal, m)
	}
	c.mu.Unlock()

	if c.onMutate != nil {
		c.onMutate(ctx, c.name)
	}
}

func replay[T Keyed](items []T, m mutation[T]) []T {
	switch m.kind {
	case mutAdd:
		for i, item := range items {
			if item.Key() == m.id {
				items[i] = m.item
				return items
			}
		}
		return append(items, m.item)
	case mutUpdate:
		for i, item := range items {
			if item.Key() == m.id {
				items[i] = m.item
				break
			}
		}
		return items
	case mutDelete:
		kept := items[:0]
		for _, item := range items {
			if item.Key() != m.id {
				kept = append(kept, item)
			}
		}
		return kept
	}
	return items
}
