package shortfilms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cinetrack/internal/youtube"
)

// Categories a submission may use.
var Categories = []string{"drama", "comedy", "horror", "animation", "documentary", "experimental"}

// DefaultCategory is used when a submission names none.
const DefaultCategory = "drama"

var (
	ErrInvalidVideoURL = errors.New("no video id found in url")
	ErrTitleRequired   = errors.New("title is required")
	ErrCreatorRequired = errors.New("creator is required")
	ErrUnknownCategory = errors.New("unknown category")
)

// ThumbnailChecker reports whether a thumbnail image is served.
type ThumbnailChecker interface {
	ThumbnailExists(ctx context.Context, url string) bool
}

// Submission is a short film as entered by a user.
type Submission struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Build validates the submission and turns it into a Film added at now.
// The max resolution thumbnail is used when checker confirms it exists or
// checker is nil; otherwise the high quality one.
func (s Submission) Build(ctx context.Context, checker ThumbnailChecker, now time.Time) (Film, error) {
	id, ok := youtube.ExtractVideoID(s.URL)
	if !ok {
		return Film{}, ErrInvalidVideoURL
	}

	title := strings.TrimSpace(s.Title)
	if title == "" {
		return Film{}, ErrTitleRequired
	}
	creator := strings.TrimSpace(s.Creator)
	if creator == "" {
		return Film{}, ErrCreatorRequired
	}

	category := strings.ToLower(strings.TrimSpace(s.Category))
	if category == "" {
		category = DefaultCategory
	}
	if !isCategory(category) {
		return Film{}, fmt.Errorf("%w: %q", ErrUnknownCategory, s.Category)
	}

	thumbnail := youtube.ThumbnailURL(id, youtube.QualityMax)
	if checker != nil && !checker.ThumbnailExists(ctx, thumbnail) {
		thumbnail = youtube.ThumbnailURL(id, youtube.QualityHigh)
	}

	return Film{
		ID:          id,
		Title:       title,
		Creator:     creator,
		Description: strings.TrimSpace(s.Description),
		Category:    category,
		Thumbnail:   thumbnail,
		VideoURL:    youtube.EmbedURL(id),
		AddedAt:     now.Truncate(time.Millisecond).UTC(),
	}, nil
}

func isCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
