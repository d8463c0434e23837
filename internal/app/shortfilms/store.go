package shortfilms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mozillazg/go-unidecode"
	"github.com/rs/zerolog"

	"cinetrack/internal/kv"
	"cinetrack/internal/persist"
)

const (
	filmsKey = "shortFilms"
	likedKey = "likedShortFilms"

	saveTimeout = 10 * time.Second
)

var (
	// ErrFilmNotFound is returned when liking a film that is not in the collection.
	ErrFilmNotFound = errors.New("short film not found")
	// ErrNotPersisted is returned when a change was applied in memory but could
	// not be written to storage. The in-memory change stands.
	ErrNotPersisted = errors.New("change not persisted")
)

// Stats summarizes the collection.
type Stats struct {
	Films      int            `json:"films"`
	Liked      int            `json:"liked"`
	Categories map[string]int `json:"categories"`
}

// Option configures Open.
type Option func(*options)

type options struct {
	seed bool
	now  func() time.Time
}

// WithoutSamples starts a never-populated collection empty instead of with SampleFilms.
func WithoutSamples() Option {
	return func(o *options) { o.seed = false }
}

// WithClock overrides the clock the sample films are dated by.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Store holds the short film collection and the ids of liked films.
type Store struct {
	mu      sync.RWMutex
	backend kv.Store
	logger  zerolog.Logger
	films   []Film
	liked   []string
}

// Open loads the collection from backend. A missing or unreadable collection
// starts with the sample films unless WithoutSamples is given; only a missing
// one has the samples written back right away.
func Open(ctx context.Context, backend kv.Store, logger zerolog.Logger, opts ...Option) *Store {
	o := options{seed: true, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{backend: backend, logger: logger}

	films, ok := persist.Load[[]Film](ctx, backend, filmsKey, logger)
	switch {
	case ok:
		s.films = dedupeFilms(films)
	case o.seed:
		s.films = SampleFilms(o.now())
		// An unreadable value is left in place until the next change overwrites it.
		if _, err := backend.Get(ctx, filmsKey); errors.Is(err, kv.ErrNotFound) {
			logger.Info().Int("films", len(s.films)).Msg("short film collection seeded with samples")
			_ = s.save(ctx, filmsKey)
		} else {
			logger.Warn().Int("films", len(s.films)).Msg("stored short films unreadable, samples kept in memory")
		}
	}

	liked, _ := persist.Load[[]string](ctx, backend, likedKey, logger)
	s.liked = dedupeIDs(liked)

	return s
}

// Add appends film unless a film with the same id exists; the first one wins.
func (s *Store) Add(ctx context.Context, film Film) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(film.ID) >= 0 {
		return false, nil
	}
	s.films = append(s.films, film)
	return true, s.save(ctx, filmsKey)
}

// Remove deletes the film with id and drops it from the liked films.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.films = append(s.films[:i], s.films[i+1:]...)

	changed := []string{filmsKey}
	if j := s.likedIndex(id); j >= 0 {
		s.liked = append(s.liked[:j], s.liked[j+1:]...)
		changed = append(changed, likedKey)
	}
	return true, s.save(ctx, changed...)
}

// Contains reports whether a film with id is in the collection.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Get returns the film with id.
func (s *Store) Get(id string) (Film, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.films[i], true
	}
	return Film{}, false
}

// List returns the films of category in insertion order. An empty category or
// "all" lists everything. Categories compare case-insensitively.
func (s *Store) List(category string) []Film {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category = strings.TrimSpace(category)
	out := make([]Film, 0, len(s.films))
	for _, f := range s.films {
		if category == "" || strings.EqualFold(category, "all") || strings.EqualFold(f.Category, category) {
			out = append(out, f)
		}
	}
	return out
}

// Search matches query against title, creator and description, ignoring case
// and diacritics.
func (s *Store) Search(query string) []Film {
	needle := fold(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Film, 0)
	for _, f := range s.films {
		if strings.Contains(fold(f.Title), needle) ||
			strings.Contains(fold(f.Creator), needle) ||
			strings.Contains(fold(f.Description), needle) {
			out = append(out, f)
		}
	}
	return out
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Featured picks one film at random.
func (s *Store) Featured(p Picker) (Film, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.films) == 0 {
		return Film{}, false
	}
	return s.films[p.IntN(len(s.films))], true
}

// Like marks the film with id as liked.
func (s *Store) Like(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return false, fmt.Errorf("%w: %q", ErrFilmNotFound, id)
	}
	if s.likedIndex(id) >= 0 {
		return false, nil
	}
	s.liked = append(s.liked, id)
	return true, s.save(ctx, likedKey)
}

// Unlike clears the liked mark of id.
func (s *Store) Unlike(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.likedIndex(id)
	if i < 0 {
		return false, nil
	}
	s.liked = append(s.liked[:i], s.liked[i+1:]...)
	return true, s.save(ctx, likedKey)
}

// IsLiked reports whether id is liked.
func (s *Store) IsLiked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likedIndex(id) >= 0
}

// Liked returns the liked ids in the order they were liked.
func (s *Store) Liked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.liked))
	copy(out, s.liked)
	return out
}

// Stats summarizes the collection.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]int)
	for _, f := range s.films {
		categories[strings.ToLower(f.Category)]++
	}
	return Stats{Films: len(s.films), Liked: len(s.liked), Categories: categories}
}

func (s *Store) indexOf(id string) int {
	for i, f := range s.films {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) likedIndex(id string) int {
	for i, liked := range s.liked {
		if liked == id {
			return i
		}
	}
	return -1
}

// save rewrites the named keys. Callers hold the write lock.
func (s *Store) save(ctx context.Context, keys ...string) error {
	// The change is already applied; a client going away must not abort the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	var errs []error
	for _, key := range keys {
		var value any
		switch key {
		case filmsKey:
			value = s.films
		case likedKey:
			value = s.liked
		}
		if err := persist.Save(ctx, s.backend, key, value); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("short film change kept in memory only")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrNotPersisted, errors.Join(errs...))
	}
	return nil
}

func fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
}

func dedupeFilms(films []Film) []Film {
	seen := make(map[string]struct{}, len(films))
	out := make([]Film, 0, len(films))
	for _, f := range films {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
