// Package catalog is a read-only client for The Movie Database (TMDB) v3 API.
// Nothing it returns is cached or retried.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"cinetrack/internal/media"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	DefaultLanguage     = "tr-TR"

	// PlaceholderImage stands in for titles without artwork.
	PlaceholderImage = "https://via.placeholder.com/500x750?text=G%C3%B6rsel+Yok"
)

// Image size tiers.
const (
	SizeSmall    = "w185"
	SizeMedium   = "w500"
	SizeOriginal = "original"
)

// Sort keys accepted by Discover.
var SortKeys = []string{
	"popularity.desc", "popularity.asc",
	"vote_average.desc", "vote_average.asc",
	"release_date.desc", "release_date.asc",
}

var (
	ErrNotConfigured    = errors.New("catalog credentials not configured")
	ErrInvalidReadToken = errors.New("invalid catalog read token")
	ErrUnsupported      = errors.New("unsupported catalog parameter")
)

// APIError is a non-success answer from the catalog.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api error: %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog api error: %d - %s", e.StatusCode, e.Message)
}

// Config holds client settings.
type Config struct {
	APIKey       string
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Language     string
	RateLimit    float64 // requests per second, 0 disables pacing
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Filter narrows a Discover query. Zero values are left out.
type Filter struct {
	Genre  int
	Year   int
	SortBy string
}

// Client talks to the catalog.
type Client struct {
	apiKey       string
	readToken    string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// New validates cfg and constructs a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.ReadToken == "" {
		return nil, ErrNotConfigured
	}
	if cfg.ReadToken != "" {
		if err := checkReadToken(cfg.ReadToken, time.Now()); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		apiKey:       cfg.APIKey,
		readToken:    cfg.ReadToken,
		baseURL:      strings.TrimRight(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		imageBaseURL: strings.TrimRight(orDefault(cfg.ImageBaseURL, DefaultImageBaseURL), "/"),
		language:     orDefault(cfg.Language, DefaultLanguage),
		httpClient:   httpClient,
		limiter:      limiter,
	}, nil
}

// checkReadToken rejects v4 read tokens that are not JWTs or have expired.
// The signature can only be verified by the catalog itself.
func checkReadToken(token string, now time.Time) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReadToken, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReadToken, err)
	}
	if exp != nil && exp.Before(now) {
		return fmt.Errorf("%w: expired at %s", ErrInvalidReadToken, exp.Format(time.RFC3339))
	}
	return nil
}

// ImageURL resolves an image path at the given size. An empty path gives the placeholder.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return PlaceholderImage
	}
	if size == "" {
		size = SizeMedium
	}
	return c.imageBaseURL + "/" + size + path
}

// Trending lists trending titles. kind is all, movie or tv; window is day or week.
func (c *Client) Trending(ctx context.Context, kind, window string) (*Page, error) {
	if kind != "all" && kind != string(media.KindMovie) && kind != string(media.KindTV) {
		return nil, fmt.Errorf("%w: trending type %q", ErrUnsupported, kind)
	}
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("%w: time window %q", ErrUnsupported, window)
	}

	var page Page
	if err := c.doRequest(ctx, "trending/"+kind+"/"+window, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch trending: %w", err)
	}
	if kind != "all" {
		page.tag(media.Kind(kind))
	}
	page.keepTitles()
	return page.capped(), nil
}

// Popular lists popular movies or shows.
func (c *Client) Popular(ctx context.Context, kind media.Kind, page int) (*Page, error) {
	if _, err := media.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	var out Page
	if err := c.doRequest(ctx, string(kind)+"/popular", pageParams(page), &out); err != nil {
		return nil, fmt.Errorf("fetch popular %s: %w", kind, err)
	}
	out.tag(kind)
	return out.capped(), nil
}

// Search runs a multi search and keeps only movies and shows.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	params := pageParams(page)
	params.Set("query", query)

	var out Page
	if err := c.doRequest(ctx, "search/multi", params, &out); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	out.keepTitles()
	return out.capped(), nil
}

// Details fetches one title with its videos, credits and images.
func (c *Client) Details(ctx context.Context, kind media.Kind, id int64) (*Details, error) {
	if _, err := media.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	params := url.Values{}
	params.Set("append_to_response", "videos,credits,images")
	params.Set("include_image_language", imageLanguage(c.language)+",null")

	var details Details
	if err := c.doRequest(ctx, string(kind)+"/"+strconv.FormatInt(id, 10), params, &details); err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", kind, id, err)
	}
	details.MediaType = kind
	details.normalize()
	return &details, nil
}

// Genres lists the genres for a kind.
func (c *Client) Genres(ctx context.Context, kind media.Kind) ([]Genre, error) {
	if _, err := media.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	var out struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.doRequest(ctx, "genre/"+string(kind)+"/list", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch %s genres: %w", kind, err)
	}
	if out.Genres == nil {
		out.Genres = []Genre{}
	}
	return out.Genres, nil
}

// Discover runs a filtered, sorted query. SortBy defaults to popularity.desc.
func (c *Client) Discover(ctx context.Context, kind media.Kind, filter Filter, page int) (*Page, error) {
	if _, err := media.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = SortKeys[0]
	}
	if !validSort(sortBy) {
		return nil, fmt.Errorf("%w: sort key %q", ErrUnsupported, sortBy)
	}

	params := pageParams(page)
	params.Set("sort_by", sortBy)
	if filter.Genre > 0 {
		params.Set("with_genres", strconv.Itoa(filter.Genre))
	}
	if filter.Year > 0 {
		yearParam := "primary_release_year"
		if kind == media.KindTV {
			yearParam = "first_air_date_year"
		}
		params.Set(yearParam, strconv.Itoa(filter.Year))
	}

	var out Page
	if err := c.doRequest(ctx, "discover/"+string(kind), params, &out); err != nil {
		return nil, fmt.Errorf("discover %s: %w", kind, err)
	}
	out.tag(kind)
	return out.capped(), nil
}

// doRequest performs a GET against the catalog and decodes the JSON answer into result.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("language", c.language)
	if c.readToken == "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.readToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var status struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &status)
		return &APIError{StatusCode: resp.StatusCode, Message: status.StatusMessage}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// tag sets the kind on results of single-kind endpoints, which leave it out.
func (p *Page) tag(kind media.Kind) {
	for i := range p.Results {
		if p.Results[i].MediaType == "" {
			p.Results[i].MediaType = kind
		}
	}
}

// keepTitles drops people and anything else that is not a movie or show.
func (p *Page) keepTitles() {
	kept := p.Results[:0]
	for _, item := range p.Results {
		if item.MediaType == media.KindMovie || item.MediaType == media.KindTV {
			kept = append(kept, item)
		}
	}
	p.Results = kept
}

func (p *Page) capped() *Page {
	if p.TotalPages > MaxPages {
		p.TotalPages = MaxPages
	}
	if p.Results == nil {
		p.Results = []Item{}
	}
	return p
}

func pageParams(page int) url.Values {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	return params
}

func validSort(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// imageLanguage reduces a locale like tr-TR to its language code.
func imageLanguage(locale string) string {
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return locale[:i]
	}
	return locale
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
