package store

import (
	"context"
	"net/url"
)

// Resource is the untyped view of a Collection used by the generic record handlers.
type Resource interface {
	Name() string
	FetchItems(ctx context.Context, q url.Values) (interface{}, error)
	AddItem(ctx context.Context, payload interface{}) (interface{}, error)
	UpdateItem(ctx context.Context, id string, patch interface{}) (interface{}, error)
	Delete(ctx context.Context, id string) error
}

var _ Resource = (*Collection[Keyed])(nil)

// FetchItems fetches and returns the refreshed cache.
func (c *Collection[T]) FetchItems(ctx context.Context, q url.Values) (interface{}, error) {
	if err := c.Fetch(ctx, q); err != nil {
		return nil, err
	}
	return c.Items(), nil
}

func (c *Collection[T]) AddItem(ctx context.Context, payload interface{}) (interface{}, error) {
	item, err := c.Add(ctx, payload)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Collection[T]) UpdateItem(ctx context.Context, id string, patch interface{}) (interface{}, error) {
	item, err := c.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return item, nil
}
