// Package youtube handles the video URLs short films are submitted with.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Thumbnail qualities served by img.youtube.com.
const (
	QualityMax  = "maxresdefault"
	QualityHigh = "hqdefault"
)

var videoIDPattern = regexp.MustCompile(`(?i)(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/ ]{11})`)

// ExtractVideoID returns the 11 character video id found in rawURL.
func ExtractVideoID(rawURL string) (string, bool) {
	match := videoIDPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// EmbedURL is the player address for id.
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id
}

// ThumbnailURL is the still image address for id at the given quality.
func ThumbnailURL(id, quality string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", id, quality)
}

// Prober checks whether a thumbnail image is actually served.
type Prober struct {
	client *http.Client
}

// NewProber constructs a Prober. A nil client gets a short-timeout default.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{client: client}
}

// ThumbnailExists reports whether url answers 200 with image content.
// Any failure counts as missing.
func (p *Prober) ThumbnailExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, 3072))
	if err != nil || len(head) == 0 {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(head).String(), "image/")
}
