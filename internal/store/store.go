// Package store keeps content records in memory, one Collection per kind,
// with optional write-through persistence.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/listing"
)

// Record is the contract a content type must meet to live in a Collection.
// T is the record's own pointer type.
type Record[T any] interface {
	listing.Item
	Key() string
	SetKey(id string)
	Created() time.Time
	Touch(created, updated time.Time)
	Clone() T
}

// Orderable records carry a display position the admin can change.
type Orderable interface {
	Order() int
	SetOrder(i int)
}

// Collection is a mutex-guarded, ordered set of records of one kind. Values
// are cloned on the way in and out, so callers never alias stored state.
type Collection[T Record[T]] struct {
	kind    string
	newT    func() T
	persist Persister
	now     func() time.Time

	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewCollection creates an empty collection. persist may be nil, in which
// case nothing outlives the process.
func NewCollection[T Record[T]](kind string, newT func() T, persist Persister) *Collection[T] {
	return &Collection[T]{
		kind:    kind,
		newT:    newT,
		persist: persist,
		now:     func() time.Time { return time.Now().UTC() },
		items:   make(map[string]T),
	}
}

// Kind returns the collection name.
func (c *Collection[T]) Kind() string { return c.kind }

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Checksum returns the ETag of a record.
func (c *Collection[T]) Checksum(item T) string {
	return checksum.Of(item)
}

// Load replaces the in-memory state with whatever the persister holds.
func (c *Collection[T]) Load(ctx context.Context) error {
	if c.persist == nil {
		return nil
	}
	rows, err := c.persist.Load(ctx, c.kind)
	if err != nil {
		return err
	}
	items := make(map[string]T, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		item := c.newT()
		if err := json.Unmarshal(row.Payload, item); err != nil {
			return fmt.Errorf("store: decode %s/%s: %w", c.kind, row.ID, err)
		}
		items[row.ID] = item
		order = append(order, row.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items, c.order = items, order
	c.renumber()
	return nil
}

// All returns every record in display order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.order))
	for i, id := range c.order {
		out[i] = c.items[id].Clone()
	}
	return out
}

// Get returns one record.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, apperr.ErrNotFound
	}
	return item.Clone(), nil
}

// Insert adds item at the end of the collection. An empty id is replaced by
// a fresh UUID; an id already in use yields ErrAlreadyExists.
func (c *Collection[T]) Insert(ctx context.Context, item T) (T, error) {
	var zero T
	item = item.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if item.Key() == "" {
		item.SetKey(uuid.NewString())
	}
	if _, ok := c.items[item.Key()]; ok {
		return zero, apperr.ErrAlreadyExists
	}
	now := c.now()
	item.Touch(now, now)
	if o, ok := any(item).(Orderable); ok {
		o.SetOrder(len(c.order))
	}

	if err := c.save(ctx, len(c.order), item); err != nil {
		return zero, err
	}
	c.items[item.Key()] = item
	c.order = append(c.order, item.Key())
	return item.Clone(), nil
}

// Replace overwrites the record with the given id. When ifMatch is non-empty
// it must equal the stored record's checksum. Creation time and display
// position are kept from the stored record.
func (c *Collection[T]) Replace(ctx context.Context, id string, item T, ifMatch string) (T, error) {
	var zero T
	item = item.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[id]
	if !ok {
		return zero, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != c.Checksum(existing) {
		return zero, apperr.ErrConflict
	}
	item.SetKey(id)
	item.Touch(existing.Created(), c.now())
	pos := c.position(id)
	if o, ok := any(item).(Orderable); ok {
		o.SetOrder(pos)
	}

	if err := c.save(ctx, pos, item); err != nil {
		return zero, err
	}
	c.items[id] = item
	return item.Clone(), nil
}

// Modify applies fn to a copy of the record and stores the result.
func (c *Collection[T]) Modify(ctx context.Context, id string, fn func(T) error) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[id]
	if !ok {
		return zero, apperr.ErrNotFound
	}
	item := existing.Clone()
	if err := fn(item); err != nil {
		return zero, err
	}
	item.SetKey(id)
	item.Touch(existing.Created(), c.now())
	pos := c.position(id)
	if o, ok := any(item).(Orderable); ok {
		o.SetOrder(pos)
	}

	if err := c.save(ctx, pos, item); err != nil {
		return zero, err
	}
	c.items[id] = item
	return item.Clone(), nil
}

// Batch hands fn copies of every record in display order. Records whose
// checksum changed are stored back. It returns the records after the batch.
func (c *Collection[T]) Batch(ctx context.Context, fn func(items []T) error) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]T, len(c.order))
	before := make([]string, len(c.order))
	for i, id := range c.order {
		items[i] = c.items[id].Clone()
		before[i] = c.Checksum(items[i])
	}
	if err := fn(items); err != nil {
		return nil, err
	}

	now := c.now()
	var rows []Row
	for i, item := range items {
		id := c.order[i]
		if o, ok := any(item).(Orderable); ok {
			o.SetOrder(i)
		}
		if c.Checksum(item) == before[i] {
			continue
		}
		item.SetKey(id)
		item.Touch(c.items[id].Created(), now)
		row, err := c.row(i, item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if c.persist != nil && len(rows) > 0 {
		if err := c.persist.Upsert(ctx, c.kind, rows...); err != nil {
			return nil, err
		}
	}
	out := make([]T, len(items))
	for i, item := range items {
		c.items[c.order[i]] = item
		out[i] = item.Clone()
	}
	return out, nil
}

// Remove deletes a record and closes the gap in the display order.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return apperr.ErrNotFound
	}
	if c.persist != nil {
		if err := c.persist.Delete(ctx, c.kind, id); err != nil {
			return err
		}
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return c.flushPositions(ctx)
}

// Reorder sets the display order. ids must name every record exactly once.
func (c *Collection[T]) Reorder(ctx context.Context, ids []string) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(ids) != len(c.order) {
		return nil, fmt.Errorf("%w: reorder needs all %d ids, got %d", apperr.ErrInvalidInput, len(c.order), len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.items[id]; !ok {
			return nil, fmt.Errorf("%w: unknown id %q", apperr.ErrInvalidInput, id)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", apperr.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	c.order = slices.Clone(ids)
	if err := c.flushPositions(ctx); err != nil {
		return nil, err
	}
	out := make([]T, len(c.order))
	for i, id := range c.order {
		out[i] = c.items[id].Clone()
	}
	return out, nil
}

// Reset replaces the whole collection. Records keep their ids and
// timestamps when set; orderable records are arranged by their order index.
func (c *Collection[T]) Reset(ctx context.Context, items []T) error {
	now := c.now()
	next := make(map[string]T, len(items))
	order := make([]string, 0, len(items))

	sorted := make([]T, len(items))
	for i, it := range items {
		sorted[i] = it.Clone()
	}
	slices.SortStableFunc(sorted, func(a, b T) int {
		oa, aok := any(a).(Orderable)
		ob, bok := any(b).(Orderable)
		if !aok || !bok {
			return 0
		}
		return oa.Order() - ob.Order()
	})

	for _, item := range sorted {
		if item.Key() == "" {
			item.SetKey(uuid.NewString())
		}
		if _, dup := next[item.Key()]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", apperr.ErrInvalidInput, c.kind, item.Key())
		}
		created := item.Created()
		if created.IsZero() {
			created = now
		}
		item.Touch(created, now)
		next[item.Key()] = item
		order = append(order, item.Key())
	}

	return c.swap(ctx, next, order)
}

// Restore puts back records taken with All, keeping their order and
// timestamps exactly as given.
func (c *Collection[T]) Restore(ctx context.Context, items []T) error {
	next := make(map[string]T, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		next[item.Key()] = item.Clone()
		order = append(order, item.Key())
	}
	return c.swap(ctx, next, order)
}

func (c *Collection[T]) swap(ctx context.Context, next map[string]T, order []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevItems, prevOrder := c.items, c.order
	c.items, c.order = next, order
	c.renumber()

	if c.persist != nil {
		rows := make([]Row, 0, len(order))
		for i, id := range order {
			row, err := c.row(i, next[id])
			if err != nil {
				c.items, c.order = prevItems, prevOrder
				return err
			}
			rows = append(rows, row)
		}
		if err := c.persist.ReplaceAll(ctx, c.kind, rows); err != nil {
			c.items, c.order = prevItems, prevOrder
			return err
		}
	}
	return nil
}

func (c *Collection[T]) position(id string) int {
	return slices.Index(c.order, id)
}

// renumber syncs order indexes with positions. Caller holds mu.
func (c *Collection[T]) renumber() {
	for i, id := range c.order {
		if o, ok := any(c.items[id]).(Orderable); ok {
			o.SetOrder(i)
		}
	}
}

// flushPositions renumbers and persists every record whose position moved.
// Caller holds mu.
func (c *Collection[T]) flushPositions(ctx context.Context) error {
	var rows []Row
	for i, id := range c.order {
		item := c.items[id]
		o, ok := any(item).(Orderable)
		if !ok || o.Order() == i {
			continue
		}
		o.SetOrder(i)
		row, err := c.row(i, item)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if c.persist == nil || len(rows) == 0 {
		return nil
	}
	return c.persist.Upsert(ctx, c.kind, rows...)
}

func (c *Collection[T]) save(ctx context.Context, pos int, item T) error {
	if c.persist == nil {
		return nil
	}
	row, err := c.row(pos, item)
	if err != nil {
		return err
	}
	return c.persist.Upsert(ctx, c.kind, row)
}

func (c *Collection[T]) row(pos int, item T) (Row, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return Row{}, fmt.Errorf("store: encode %s/%s: %w", c.kind, item.Key(), err)
	}
	return Row{
		ID:        item.Key(),
		Position:  pos,
		Checksum:  checksum.Sum(payload),
		Payload:   payload,
		UpdatedAt: c.now(),
	}, nil
}
