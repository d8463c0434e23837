package media

import (
	"encoding/json"
	"fmt"
)

// record is the stored and transmitted shape of a Ref.
type record struct {
	ID          int64    `json:"id"`
	MediaType   Kind     `json:"media_type"`
	Title       string   `json:"title,omitempty"`
	Name        string   `json:"name,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}

func (m MovieRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		ID:          m.ID,
		MediaType:   KindMovie,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		VoteAverage: m.VoteAverage,
	})
}

func (s ShowRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		ID:          s.ID,
		MediaType:   KindTV,
		Name:        s.Name,
		PosterPath:  s.PosterPath,
		VoteAverage: s.VoteAverage,
	})
}

// Decode parses one wire record, dispatching on media_type. A record whose
// shape disagrees with its media_type still keeps its display name.
func Decode(data []byte) (Ref, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode media ref: %w", err)
	}

	name, fallback := rec.Title, rec.Name
	if rec.MediaType == KindTV {
		name, fallback = rec.Name, rec.Title
	}
	if name == "" {
		name = fallback
	}
	ref, err := New(Key{ID: rec.ID, Kind: rec.MediaType}, name, rec.PosterPath, rec.VoteAverage)
	if err != nil {
		return nil, fmt.Errorf("decode media ref: %w", err)
	}
	return ref, nil
}

// List is an ordered collection of refs with a JSON array wire form.
type List []Ref

func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode media list: %w", err)
	}

	out := make(List, 0, len(raw))
	for i, item := range raw {
		ref, err := Decode(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, ref)
	}
	*l = out
	return nil
}
