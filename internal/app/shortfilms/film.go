// Package shortfilms keeps the user curated collection of externally hosted short films.
package shortfilms

import (
	"encoding/json"
	"time"
)

// Film is one short film. ID is the video platform identifier and the only
// identity of a film.
type Film struct {
	ID          string
	Title       string
	Creator     string
	Description string
	Category    string
	Thumbnail   string
	VideoURL    string
	AddedAt     time.Time
}

// filmRecord is the stored shape; addedAt is Unix milliseconds.
type filmRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	VideoURL    string `json:"videoUrl"`
	Category    string `json:"category"`
	AddedAt     int64  `json:"addedAt"`
}

func (f Film) MarshalJSON() ([]byte, error) {
	return json.Marshal(filmRecord{
		ID:          f.ID,
		Title:       f.Title,
		Creator:     f.Creator,
		Description: f.Description,
		Thumbnail:   f.Thumbnail,
		VideoURL:    f.VideoURL,
		Category:    f.Category,
		AddedAt:     f.AddedAt.UnixMilli(),
	})
}

func (f *Film) UnmarshalJSON(data []byte) error {
	var rec filmRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*f = Film{
		ID:          rec.ID,
		Title:       rec.Title,
		Creator:     rec.Creator,
		Description: rec.Description,
		Thumbnail:   rec.Thumbnail,
		VideoURL:    rec.VideoURL,
		Category:    rec.Category,
		AddedAt:     time.UnixMilli(rec.AddedAt).UTC(),
	}
	return nil
}
