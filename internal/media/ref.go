// Package media defines the tracked references to catalog movies and shows.
package media

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind is the catalog media type.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

var (
	// ErrUnknownKind is returned for media types other than movie and tv.
	ErrUnknownKind = errors.New("unknown media kind")
	// ErrInvalidID is returned for non-positive catalog identifiers.
	ErrInvalidID = errors.New("invalid media id")
)

// ParseKind validates a media type string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMovie, KindTV:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Key identifies a tracked title. Two references are the same entity iff their keys are equal.
type Key struct {
	ID   int64
	Kind Kind
}

// ParseKey builds a key from path-style parts.
func ParseKey(kind, id string) (Key, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Key{}, err
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return Key{ID: n, Kind: k}, nil
}

func (k Key) String() string {
	return string(k.Kind) + ":" + strconv.FormatInt(k.ID, 10)
}

// Ref is a snapshot of a catalog title taken when it was added to a list.
// The only implementations are MovieRef and ShowRef.
type Ref interface {
	Key() Key
	DisplayName() string
	Poster() string
	Rating() *float64
	isRef()
}

// MovieRef is a tracked movie.
type MovieRef struct {
	ID          int64
	Title       string
	PosterPath  string
	VoteAverage *float64
}

func (m MovieRef) Key() Key            { return Key{ID: m.ID, Kind: KindMovie} }
func (m MovieRef) DisplayName() string { return m.Title }
func (m MovieRef) Poster() string      { return m.PosterPath }
func (m MovieRef) Rating() *float64    { return cloneRating(m.VoteAverage) }
func (MovieRef) isRef()                {}

// ShowRef is a tracked TV show.
type ShowRef struct {
	ID          int64
	Name        string
	PosterPath  string
	VoteAverage *float64
}

func (s ShowRef) Key() Key            { return Key{ID: s.ID, Kind: KindTV} }
func (s ShowRef) DisplayName() string { return s.Name }
func (s ShowRef) Poster() string      { return s.PosterPath }
func (s ShowRef) Rating() *float64    { return cloneRating(s.VoteAverage) }
func (ShowRef) isRef()                {}

// New builds the variant matching key.Kind.
func New(key Key, name, posterPath string, voteAverage *float64) (Ref, error) {
	if key.ID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, key.ID)
	}
	switch key.Kind {
	case KindMovie:
		return MovieRef{ID: key.ID, Title: name, PosterPath: posterPath, VoteAverage: cloneRating(voteAverage)}, nil
	case KindTV:
		return ShowRef{ID: key.ID, Name: name, PosterPath: posterPath, VoteAverage: cloneRating(voteAverage)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
	}
}

func cloneRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
