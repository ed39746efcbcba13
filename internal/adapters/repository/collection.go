package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mobilize/core/internal/infrastructure/jsonstore"
	"github.com/mobilize/core/internal/infrastructure/logger"
)

// base carries what every store-backed repository needs
type base struct {
	store        *jsonstore.Store
	flushTimeout time.Duration
	logger       *logger.Logger
}

// apply mutates one area and waits for the write. A failed or timed out write
// leaves the mutation in memory for the next flush and is only logged; a closed
// store is reported to the caller.
func apply[T any](ctx context.Context, b base, area string, fn func(*T) error) error {
	ctx, cancel := b.flushContext(ctx)
	defer cancel()

	return b.settle(jsonstore.Update(ctx, b.store, area, fn), area)
}

// persist waits for the store to write mutations already applied to areas
func (b base) persist(ctx context.Context, areas ...string) error {
	ctx, cancel := b.flushContext(ctx)
	defer cancel()

	if err := b.store.Flush(ctx); err != nil {
		return b.settle(fmt.Errorf("%w: %w", jsonstore.ErrUnflushed, err), areas...)
	}
	return nil
}

func (b base) flushContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.flushTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.flushTimeout)
}

func (b base) settle(err error, areas ...string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jsonstore.ErrClosed):
		return err
	case errors.Is(err, jsonstore.ErrUnflushed):
		b.logger.LogFlushDeferred(areas, err)
		return nil
	default:
		return err
	}
}

// collection is a store area holding a JSON array of T
type collection[T any] struct {
	base
	area     string
	id       func(*T) string
	notFound error
}

func (c collection[T]) list() ([]T, error) {
	items, err := jsonstore.Get[[]T](c.store, c.area)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.area, err)
	}
	return items, nil
}

func (c collection[T]) get(id string) (*T, error) {
	items, err := c.list()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if c.id(&items[i]) == id {
			return &items[i], nil
		}
	}
	return nil, c.notFound
}

// commit mutates the whole array and persists it
func (c collection[T]) commit(ctx context.Context, fn func(*[]T) error) error {
	return apply(ctx, c.base, c.area, fn)
}

func (c collection[T]) add(ctx context.Context, item *T) error {
	return c.commit(ctx, func(items *[]T) error {
		*items = append(*items, *item)
		return nil
	})
}

func (c collection[T]) update(ctx context.Context, id string, fn func(*T) error) (*T, error) {
	var updated T
	err := c.commit(ctx, func(items *[]T) error {
		for i := range *items {
			item := &(*items)[i]
			if c.id(item) != id {
				continue
			}
			if err := fn(item); err != nil {
				return err
			}
			updated = *item
			return nil
		}
		return c.notFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c collection[T]) remove(ctx context.Context, id string) error {
	return c.commit(ctx, func(items *[]T) error {
		for i := range *items {
			if c.id(&(*items)[i]) == id {
				*items = append((*items)[:i], (*items)[i+1:]...)
				return nil
			}
		}
		return c.notFound
	})
}
