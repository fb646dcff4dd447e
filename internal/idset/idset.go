// Package idset implements the small persisted listing-id collections of a
// browsing session: favorites, the compare set, and recently viewed.
//
// Every mutation computes the new list, writes it to storage as a whole-value
// replacement, and only then commits it in memory. A failed write leaves the
// set exactly as it was.
package idset

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Storage persists ordered id lists under named keys. Load of a missing key
// returns an empty list and no error.
type Storage interface {
	Load(ctx context.Context, key string) ([]string, error)
	Save(ctx context.Context, key string, ids []string) error
}

// Outcome reports what a toggle did
type Outcome int

const (
	Added Outcome = iota
	Removed
	CapacityExceeded
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case CapacityExceeded:
		return "capacity_exceeded"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// list is the shared ordered-unique core of every set
type list struct {
	key     string
	storage Storage

	mu  sync.RWMutex
	ids []string
}

func openList(ctx context.Context, storage Storage, key string) (*list, error) {
	ids, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return &list{key: key, storage: storage, ids: dedupe(ids)}, nil
}

// mutate applies fn to a copy of the ids and persists the result. fn reports
// whether anything changed; unchanged results skip the write.
func (l *list) mutate(ctx context.Context, fn func(ids []string) ([]string, bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, changed := fn(slices.Clone(l.ids))
	if !changed {
		return nil
	}
	if err := l.storage.Save(ctx, l.key, next); err != nil {
		return fmt.Errorf("save %s: %w", l.key, err)
	}
	l.ids = next
	return nil
}

func (l *list) contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.ids, id)
}

func (l *list) snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := slices.Clone(l.ids)
	if out == nil {
		out = []string{}
	}
	return out
}

func (l *list) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

func (l *list) remove(ctx context.Context, id string) error {
	return l.mutate(ctx, func(ids []string) ([]string, bool) {
		i := slices.Index(ids, id)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	})
}

func (l *list) clear(ctx context.Context) error {
	return l.mutate(ctx, func(ids []string) ([]string, bool) {
		return []string{}, len(ids) > 0
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
