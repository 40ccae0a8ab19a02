// Package content implements the CRUD, validation and ordering rules shared by
// every portfolio content kind.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/listing"
	"github.com/starford/folio/internal/store"
)

// Change actions published to the Notifier.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionReordered = "reordered"
	ActionImported  = "imported"
)

// Entity is a content record with a form schema.
type Entity[T any] interface {
	store.Record[T]
	Normalize()
	Validate() error
}

// Notifier is told about every successful change.
type Notifier interface {
	PublishContentEvent(kind, action, id string)
}

// CRUD is the per-kind surface the transport layers use.
type CRUD[T any] interface {
	Kind() string
	New() T
	Filterable() []string
	Ordered() bool
	ETag(item T) string
	List(ctx context.Context, q listing.Query) ([]T, int, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, item T, ifMatch string) (T, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) ([]T, error)
}

// Resource is the CRUD service of one content kind.
type Resource[T Entity[T]] struct {
	coll       *store.Collection[T]
	newT       func() T
	filterable []string
	ordered    bool
	latency    time.Duration
	notify     Notifier
	logger     *slog.Logger
}

func newResource[T Entity[T]](kind string, newT func() T, o *options, filterable ...string) *Resource[T] {
	_, ordered := any(newT()).(store.Orderable)
	return &Resource[T]{
		coll:       store.NewCollection(kind, newT, o.persister),
		newT:       newT,
		filterable: filterable,
		ordered:    ordered,
		latency:    o.latency,
		notify:     o.notifier,
		logger:     o.logger,
	}
}

// Kind returns the content kind.
func (r *Resource[T]) Kind() string { return r.coll.Kind() }

// New returns an empty record, ready to decode a request body into.
func (r *Resource[T]) New() T { return r.newT() }

// Filterable lists the attributes List accepts as filters.
func (r *Resource[T]) Filterable() []string { return r.filterable }

// Ordered reports whether records of this kind can be reordered.
func (r *Resource[T]) Ordered() bool { return r.ordered }

// ETag returns the record checksum used for If-Match.
func (r *Resource[T]) ETag(item T) string { return r.coll.Checksum(item) }

// List returns one page of records and the number of matches.
func (r *Resource[T]) List(_ context.Context, q listing.Query) ([]T, int, error) {
	items, total := listing.Apply(r.coll.All(), q)
	return items, total, nil
}

// Get returns one record.
func (r *Resource[T]) Get(_ context.Context, id string) (T, error) {
	return r.coll.Get(id)
}

// Create validates item and appends it under a fresh id.
func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	item = item.Clone()
	item.SetKey("")
	if err := check(item); err != nil {
		return zero, err
	}
	if err := r.wait(ctx); err != nil {
		return zero, err
	}
	created, err := r.coll.Insert(ctx, item)
	if err != nil {
		return zero, err
	}
	r.changed(ActionCreated, created.Key())
	return created, nil
}

// Update validates item and replaces the record with the given id. A
// non-empty ifMatch must equal the current ETag.
func (r *Resource[T]) Update(ctx context.Context, id string, item T, ifMatch string) (T, error) {
	var zero T
	item = item.Clone()
	if err := check(item); err != nil {
		return zero, err
	}
	if err := r.wait(ctx); err != nil {
		return zero, err
	}
	updated, err := r.coll.Replace(ctx, id, item, ifMatch)
	if err != nil {
		return zero, err
	}
	r.changed(ActionUpdated, id)
	return updated, nil
}

// Modify applies fn to the stored record, re-validates and saves it.
func (r *Resource[T]) Modify(ctx context.Context, id string, fn func(T)) (T, error) {
	var zero T
	if _, err := r.coll.Get(id); err != nil {
		return zero, err
	}
	if err := r.wait(ctx); err != nil {
		return zero, err
	}
	updated, err := r.coll.Modify(ctx, id, func(item T) error {
		fn(item)
		return check(item)
	})
	if err != nil {
		return zero, err
	}
	r.changed(ActionUpdated, id)
	return updated, nil
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.Get(id); err != nil {
		return err
	}
	if err := r.wait(ctx); err != nil {
		return err
	}
	if err := r.coll.Remove(ctx, id); err != nil {
		return err
	}
	r.changed(ActionDeleted, id)
	return nil
}

// Reorder sets the display order of an orderable kind. ids must list every
// record exactly once.
func (r *Resource[T]) Reorder(ctx context.Context, ids []string) ([]T, error) {
	if !r.ordered {
		return nil, fmt.Errorf("%w: %s cannot be reordered", apperr.ErrInvalidInput, r.Kind())
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	items, err := r.coll.Reorder(ctx, ids)
	if err != nil {
		return nil, err
	}
	r.changed(ActionReordered, "")
	return items, nil
}

// wait simulates network latency before a change resolves.
func (r *Resource[T]) wait(ctx context.Context) error {
	if r.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Resource[T]) changed(action, id string) {
	r.logger.Debug("content changed",
		slog.String("kind", r.Kind()),
		slog.String("action", action),
		slog.String("id", id))
	if r.notify != nil {
		r.notify.PublishContentEvent(r.Kind(), action, id)
	}
}

// prepare returns normalized, validated copies of items.
func prepare[T Entity[T]](items []T) ([]T, error) {
	out := make([]T, len(items))
	for i, it := range items {
		c := it.Clone()
		if err := check(c); err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (r *Resource[T]) reset(ctx context.Context, items []T) error {
	if err := r.coll.Reset(ctx, items); err != nil {
		return err
	}
	r.changed(ActionImported, "")
	return nil
}

func (r *Resource[T]) all() []T { return r.coll.All() }

// snapshot captures the current records; the returned func puts them back.
func (r *Resource[T]) snapshot() func(ctx context.Context) error {
	prev := r.coll.All()
	return func(ctx context.Context) error {
		if err := r.coll.Restore(ctx, prev); err != nil {
			return err
		}
		r.changed(ActionImported, "")
		return nil
	}
}

// check normalizes item in place and runs its form schema. Schema failures
// wrap both apperr.ErrInvalidInput and the field-level validation.Errors.
func check[T Entity[T]](item T) error {
	item.Normalize()
	err := item.Validate()
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, fields)
	}
	return err
}

// kindResource gives the Service untyped access to every kind.
type kindResource interface {
	Kind() string
	Filterable() []string
	Ordered() bool
	listAny(ctx context.Context, q listing.Query) (any, int, error)
	getAny(ctx context.Context, id string) (any, error)
	load(ctx context.Context) error
	size() int
	snapshot() func(ctx context.Context) error
}

func (r *Resource[T]) listAny(ctx context.Context, q listing.Query) (any, int, error) {
	items, total, err := r.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Resource[T]) getAny(ctx context.Context, id string) (any, error) {
	item, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Resource[T]) load(ctx context.Context) error { return r.coll.Load(ctx) }

func (r *Resource[T]) size() int { return r.coll.Len() }
