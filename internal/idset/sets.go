package idset

import (
	"context"
	"slices"
)

const (
	// MaxCompare is the hard capacity of the compare set
	MaxCompare = 3
	// MaxRecent is the number of recently viewed ids kept
	MaxRecent = 10
)

// Favorites is an unbounded set of saved listings
type Favorites struct {
	l *list
}

// OpenFavorites loads the favorites stored under key
func OpenFavorites(ctx context.Context, storage Storage, key string) (*Favorites, error) {
	l, err := openList(ctx, storage, key)
	if err != nil {
		return nil, err
	}
	return &Favorites{l: l}, nil
}

// Toggle adds id when absent and removes it when present
func (f *Favorites) Toggle(ctx context.Context, id string) (Outcome, error) {
	outcome := Added
	err := f.l.mutate(ctx, func(ids []string) ([]string, bool) {
		if i := slices.Index(ids, id); i >= 0 {
			outcome = Removed
			return slices.Delete(ids, i, i+1), true
		}
		return append(ids, id), true
	})
	return outcome, err
}

func (f *Favorites) Contains(id string) bool { return f.l.contains(id) }
func (f *Favorites) IDs() []string { return f.l.snapshot() }
func (f *Favorites) Len() int { return f.l.len() }
func (f *Favorites) Remove(ctx context.Context, id string) error { return f.l.remove(ctx, id) }
func (f *Favorites) Clear(ctx context.Context) error { return f.l.clear(ctx) }

// Compare holds at most MaxCompare listings. Adds beyond capacity are
// rejected; nothing is evicted.
type Compare struct {
	l *list
}

// OpenCompare loads the compare set stored under key. Stored lists longer
// than the capacity are truncated on load.
func OpenCompare(ctx context.Context, storage Storage, key string) (*Compare, error) {
	l, err := openList(ctx, storage, key)
	if err != nil {
		return nil, err
	}
	if len(l.ids) > MaxCompare {
		l.ids = l.ids[:MaxCompare]
	}
	return &Compare{l: l}, nil
}

// Add inserts id at the end. Adding a member is a no-op success.
func (c *Compare) Add(ctx context.Context, id string) (Outcome, error) {
	outcome := Added
	err := c.l.mutate(ctx, func(ids []string) ([]string, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		if len(ids) >= MaxCompare {
			outcome = CapacityExceeded
			return ids, false
		}
		return append(ids, id), true
	})
	return outcome, err
}

// Toggle removes a member, otherwise tries to add it
func (c *Compare) Toggle(ctx context.Context, id string) (Outcome, error) {
	outcome := Added
	err := c.l.mutate(ctx, func(ids []string) ([]string, bool) {
		if i := slices.Index(ids, id); i >= 0 {
			outcome = Removed
			return slices.Delete(ids, i, i+1), true
		}
		if len(ids) >= MaxCompare {
			outcome = CapacityExceeded
			return ids, false
		}
		return append(ids, id), true
	})
	return outcome, err
}

// Remaining returns how many more ids can be added
func (c *Compare) Remaining() int {
	return MaxCompare - c.l.len()
}

// CanAddMore reports whether the set is below capacity
func (c *Compare) CanAddMore() bool {
	return c.Remaining() > 0
}

func (c *Compare) Contains(id string) bool { return c.l.contains(id) }
func (c *Compare) IDs() []string { return c.l.snapshot() }
func (c *Compare) Len() int { return c.l.len() }
func (c *Compare) Remove(ctx context.Context, id string) error { return c.l.remove(ctx, id) }
func (c *Compare) Clear(ctx context.Context) error { return c.l.clear(ctx) }

// Recent is the most-recent-first sequence of viewed listings
type Recent struct {
	l *list
}

// OpenRecent loads the recent views stored under key
func OpenRecent(ctx context.Context, storage Storage, key string) (*Recent, error) {
	l, err := openList(ctx, storage, key)
	if err != nil {
		return nil, err
	}
	if len(l.ids) > MaxRecent {
		l.ids = l.ids[:MaxRecent]
	}
	return &Recent{l: l}, nil
}

// Record moves id to the front, inserting it if needed, and drops the
// oldest entries beyond MaxRecent
func (r *Recent) Record(ctx context.Context, id string) error {
	return r.l.mutate(ctx, func(ids []string) ([]string, bool) {
		if len(ids) > 0 && ids[0] == id {
			return ids, false
		}
		if i := slices.Index(ids, id); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
		}
		next := append([]string{id}, ids...)
		if len(next) > MaxRecent {
			next = next[:MaxRecent]
		}
		return next, true
	})
}

func (r *Recent) Contains(id string) bool { return r.l.contains(id) }
func (r *Recent) IDs() []string { return r.l.snapshot() }
func (r *Recent) Len() int { return r.l.len() }
func (r *Recent) Remove(ctx context.Context, id string) error { return r.l.remove(ctx, id) }
func (r *Recent) Clear(ctx context.Context) error { return r.l.clear(ctx) }
