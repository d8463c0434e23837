// Package lists keeps the personal to-watch, watched and liked lists.
package lists

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cinetrack/internal/kv"
	"cinetrack/internal/media"
	"cinetrack/internal/persist"
)

// Name identifies one of the personal lists.
type Name string

const (
	ToWatch Name = "to-watch"
	Watched Name = "watched"
	Liked   Name = "liked"
)

// saveTimeout bounds a single storage write.
const saveTimeout = 10 * time.Second

// Names lists every list in display order.
var Names = []Name{ToWatch, Watched, Liked}

var (
	// ErrUnknownList is returned for list names other than to-watch, watched and liked.
	ErrUnknownList = errors.New("unknown list")
	// ErrNotPersisted is returned when a change was applied in memory but could
	// not be written to storage. The in-memory change stands.
	ErrNotPersisted = errors.New("change not persisted")
)

// ParseName validates a list name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
}

// storageKey is the key each list is persisted under.
func (n Name) storageKey() string {
	switch n {
	case ToWatch:
		return "watchlist"
	case Watched:
		return "watchedList"
	case Liked:
		return "likedList"
	}
	return ""
}

// Membership reports which lists hold a title.
type Membership struct {
	ToWatch bool `json:"to_watch"`
	Watched bool `json:"watched"`
	Liked   bool `json:"liked"`
}

// Stats holds the size of each list.
type Stats struct {
	ToWatch int `json:"to_watch"`
	Watched int `json:"watched"`
	Liked   int `json:"liked"`
}

// Store holds the three lists and writes each changed list back to the
// backend before a mutation returns.
type Store struct {
	mu      sync.RWMutex
	backend kv.Store
	logger  zerolog.Logger
	sets    map[Name]*set
}

// Open loads every list from backend. Missing or unreadable lists start empty.
func Open(ctx context.Context, backend kv.Store, logger zerolog.Logger) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		sets:    make(map[Name]*set, len(Names)),
	}

	for _, name := range Names {
		items, _ := persist.Load[media.List](ctx, backend, name.storageKey(), logger)
		s.sets[name] = newSet(items)
		logger.Debug().Str("list", string(name)).Int("items", len(items)).Msg("list loaded")
	}

	return s
}

// IsMember reports whether list holds key.
func (s *Store) IsMember(list Name, key media.Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.sets[list]
	return ok && members.has(key)
}

// Add inserts ref into list unless a ref with the same key is already there.
// Adding to Watched goes through MarkWatched.
func (s *Store) Add(ctx context.Context, list Name, ref media.Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if list == Watched {
		return s.MarkWatched(ctx, ref)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sets[list]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if !members.add(ref) {
		return false, nil
	}
	return true, s.save(ctx, list)
}

// MarkWatched adds ref to Watched and retires its key from ToWatch, whether or
// not it was already watched. It reports whether ref was newly added to Watched.
func (s *Store) MarkWatched(ctx context.Context, ref media.Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.markWatched(ctx, ref)
}

func (s *Store) markWatched(ctx context.Context, ref media.Ref) (bool, error) {
	added := s.sets[Watched].add(ref)
	retired := s.sets[ToWatch].remove(ref.Key())

	var changed []Name
	if added {
		changed = append(changed, Watched)
	}
	if retired {
		changed = append(changed, ToWatch)
	}
	return added, s.save(ctx, changed...)
}

// Remove deletes key from list. Removing from Watched never restores ToWatch.
func (s *Store) Remove(ctx context.Context, list Name, key media.Key) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sets[list]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if !members.remove(key) {
		return false, nil
	}
	return true, s.save(ctx, list)
}

// Toggle removes ref from list when present and adds it otherwise. It returns
// the resulting membership.
func (s *Store) Toggle(ctx context.Context, list Name, ref media.Ref) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sets[list]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownList, list)
	}

	if members.remove(ref.Key()) {
		return false, s.save(ctx, list)
	}
	if list == Watched {
		_, err := s.markWatched(ctx, ref)
		return true, err
	}
	members.add(ref)
	return true, s.save(ctx, list)
}

// Items returns a copy of list in insertion order.
func (s *Store) Items(list Name) []media.Ref {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.sets[list]
	if !ok {
		return nil
	}
	return members.snapshot()
}

// Membership reports which lists hold key.
func (s *Store) Membership(key media.Key) Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Membership{
		ToWatch: s.sets[ToWatch].has(key),
		Watched: s.sets[Watched].has(key),
		Liked:   s.sets[Liked].has(key),
	}
}

// Stats returns the size of every list.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		ToWatch: s.sets[ToWatch].len(),
		Watched: s.sets[Watched].len(),
		Liked:   s.sets[Liked].len(),
	}
}

// save rewrites every named list. Callers hold the write lock.
func (s *Store) save(ctx context.Context, names ...Name) error {
	// The change is already applied; a client going away must not abort the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	var errs []error
	for _, name := range names {
		items := media.List(s.sets[name].snapshot())
		if err := persist.Save(ctx, s.backend, name.storageKey(), items); err != nil {
			s.logger.Warn().Err(err).Str("list", string(name)).Msg("list change kept in memory only")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotPersisted, errors.Join(errs...))
	}
	return nil
}
