package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/trezcool/campusdesk/core/store"
)

// Resource is a backend collection endpoint, e.g. /students.
type Resource[T store.Keyed] struct {
	client *Client
	path   string
}

var _ store.Remote[store.Keyed] = (*Resource[store.Keyed])(nil)

func NewResource[T store.Keyed](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: "/" + strings.Trim(path, "/")}
}

func (r *Resource[T]) Path() string { return r.path }

func (r *Resource[T]) List(ctx context.Context, q url.Values) ([]T, error) {
	items := make([]T, 0)
	if err := r.client.Get(ctx, r.path, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T]) Create(ctx context.Context, payload interface{}) (T, error) {
	var item T
	err := r.client.Post(ctx, r.path, payload, &item)
	return item, err
}

func (r *Resource[T]) Update(ctx context.Context, id string, patch interface{}) (T, error) {
	var item T
	err := r.client.Put(ctx, r.path+"/"+url.PathEscape(id), patch, &item)
	return item, err
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, r.path+"/"+url.PathEscape(id))
}
