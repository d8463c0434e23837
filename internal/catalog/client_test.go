package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinetrack/internal/media"
)

// fakeTMDB answers canned JSON per path and records the queries it saw.
type fakeTMDB struct {
	mu      sync.Mutex
	queries map[string]url.Values
	headers map[string]http.Header
	bodies  map[string]string
	status  map[string]int
}

func newFakeTMDB() *fakeTMDB {
	return &fakeTMDB{
		queries: map[string]url.Values{},
		headers: map[string]http.Header{},
		bodies:  map[string]string{},
		status:  map[string]int{},
	}
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries[r.URL.Path] = r.URL.Query()
	f.headers[r.URL.Path] = r.Header.Clone()
	body, ok := f.bodies[r.URL.Path]
	status := f.status[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found.","success":false}`))
		return
	}
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = w.Write([]byte(body))
}

func (f *fakeTMDB) query(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func newTestClient(t *testing.T, fake *fakeTMDB) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL + "/3",
		ImageBaseURL: "https://image.test/t/p/",
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "app",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestReadTokenValidation(t *testing.T) {
	if _, err := New(Config{ReadToken: "not-a-jwt"}); !errors.Is(err, ErrInvalidReadToken) {
		t.Fatalf("expected ErrInvalidReadToken for malformed token, got %v", err)
	}
	if _, err := New(Config{ReadToken: signedToken(t, time.Now().Add(-time.Hour))}); !errors.Is(err, ErrInvalidReadToken) {
		t.Fatalf("expected ErrInvalidReadToken for expired token, got %v", err)
	}
	if _, err := New(Config{ReadToken: signedToken(t, time.Now().Add(time.Hour))}); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
}

func TestReadTokenSentAsBearer(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/genre/movie/list"] = `{"genres":[{"id":28,"name":"Aksiyon"}]}`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	token := signedToken(t, time.Now().Add(time.Hour))
	client, err := New(Config{ReadToken: token, BaseURL: srv.URL + "/3", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.Genres(context.Background(), media.KindMovie); err != nil {
		t.Fatalf("Genres: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if got := fake.headers["/3/genre/movie/list"].Get("Authorization"); got != "Bearer "+token {
		t.Fatalf("unexpected authorization header %q", got)
	}
	if fake.queries["/3/genre/movie/list"].Has("api_key") {
		t.Fatalf("api_key should not be sent with a bearer token")
	}
}

func TestImageURL(t *testing.T) {
	client := newTestClient(t, newFakeTMDB())

	if got := client.ImageURL("/abc.jpg", SizeSmall); got != "https://image.test/t/p/w185/abc.jpg" {
		t.Fatalf("unexpected image url %q", got)
	}
	if got := client.ImageURL("/abc.jpg", ""); got != "https://image.test/t/p/w500/abc.jpg" {
		t.Fatalf("unexpected default size url %q", got)
	}
	if got := client.ImageURL("", SizeOriginal); got != PlaceholderImage {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestTrending(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/trending/all/week"] = `{
		"page": 1,
		"total_pages": 1000,
		"total_results": 20000,
		"results": [
			{"id": 27205, "media_type": "movie", "title": "Inception", "poster_path": "/i.jpg", "vote_average": 8.4},
			{"id": 17419, "media_type": "person", "name": "Someone"},
			{"id": 1399, "media_type": "tv", "name": "Game of Thrones"}
		]
	}`
	client := newTestClient(t, fake)

	page, err := client.Trending(context.Background(), "all", "week")
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}

	if page.TotalPages != MaxPages {
		t.Fatalf("expected total pages capped at %d, got %d", MaxPages, page.TotalPages)
	}
	if len(page.Results) != 2 {
		t.Fatalf("expected people filtered out, got %+v", page.Results)
	}

	q := fake.query("/3/trending/all/week")
	if q.Get("api_key") != "test-key" || q.Get("language") != DefaultLanguage {
		t.Fatalf("unexpected query %v", q)
	}

	show := page.Results[1]
	if show.MediaType != media.KindTV || show.DisplayName() != "Game of Thrones" {
		t.Fatalf("unexpected show %#v", show)
	}
}

func TestTrendingRejectsUnknownWindow(t *testing.T) {
	client := newTestClient(t, newFakeTMDB())
	if _, err := client.Trending(context.Background(), "all", "month"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestPopularTagsKind(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/tv/popular"] = `{"page":2,"total_pages":40,"total_results":800,"results":[{"id":1399,"name":"Game of Thrones"}]}`
	client := newTestClient(t, fake)

	page, err := client.Popular(context.Background(), media.KindTV, 2)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if page.Results[0].MediaType != media.KindTV {
		t.Fatalf("expected results tagged tv, got %q", page.Results[0].MediaType)
	}
	if fake.query("/3/tv/popular").Get("page") != "2" {
		t.Fatalf("page not forwarded")
	}
}

func TestSearch(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/search/multi"] = `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":27205,"media_type":"movie","title":"Inception"}]}`
	client := newTestClient(t, fake)

	page, err := client.Search(context.Background(), "başlangıç", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Results) != 1 {
		t.Fatalf("unexpected results %+v", page.Results)
	}

	q := fake.query("/3/search/multi")
	if q.Get("query") != "başlangıç" || q.Get("page") != "3" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestDetailsNormalizesMissingData(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/movie/27205"] = `{
		"id": 27205,
		"title": "Inception",
		"poster_path": "/poster.jpg",
		"videos": {"results": [
			{"key": "teaser1", "site": "YouTube", "type": "Teaser"},
			{"key": "vimeo1", "site": "Vimeo", "type": "Trailer"},
			{"key": "YoHD9XEInc0", "site": "YouTube", "type": "Trailer"}
		]},
		"images": {"backdrops": [], "posters": [{"file_path": "/other.jpg"}]}
	}`
	client := newTestClient(t, fake)

	details, err := client.Details(context.Background(), media.KindMovie, 27205)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}

	q := fake.query("/3/movie/27205")
	if q.Get("append_to_response") != "videos,credits,images" || q.Get("include_image_language") != "tr,null" {
		t.Fatalf("unexpected query %v", q)
	}

	if details.MediaType != media.KindMovie {
		t.Fatalf("expected media type set, got %q", details.MediaType)
	}
	if len(details.Images.Backdrops) != 0 || len(details.Images.Posters) != 1 || details.Images.Posters[0].FilePath != "/poster.jpg" {
		t.Fatalf("unexpected normalized images %+v", details.Images)
	}
	if details.Credits == nil || details.Credits.Cast == nil || len(details.Credits.Cast) != 0 {
		t.Fatalf("expected empty credits, got %+v", details.Credits)
	}

	trailer, ok := details.Trailer()
	if !ok || trailer.Key != "YoHD9XEInc0" {
		t.Fatalf("unexpected trailer %+v", trailer)
	}
}

func TestDetailsKeepsGallery(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/tv/1399"] = `{
		"id": 1399,
		"name": "Game of Thrones",
		"credits": {"cast": [{"id": 1, "name": "Actor", "character": "Role"}], "crew": []},
		"images": {"backdrops": [{"file_path": "/b.jpg"}], "posters": []}
	}`
	client := newTestClient(t, fake)

	details, err := client.Details(context.Background(), media.KindTV, 1399)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if len(details.Images.Backdrops) != 1 || len(details.Credits.Cast) != 1 {
		t.Fatalf("gallery or credits were overwritten: %+v %+v", details.Images, details.Credits)
	}
	if _, ok := details.Trailer(); ok {
		t.Fatalf("expected no trailer")
	}
	if details.DisplayName() != "Game of Thrones" {
		t.Fatalf("unexpected display name %q", details.DisplayName())
	}
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name      string
		kind      media.Kind
		filter    Filter
		wantQuery map[string]string
		absent    []string
	}{
		{
			name:      "movie with year",
			kind:      media.KindMovie,
			filter:    Filter{Genre: 28, Year: 2010, SortBy: "vote_average.desc"},
			wantQuery: map[string]string{"with_genres": "28", "primary_release_year": "2010", "sort_by": "vote_average.desc"},
			absent:    []string{"first_air_date_year"},
		},
		{
			name:      "tv with year and default sort",
			kind:      media.KindTV,
			filter:    Filter{Year: 2019},
			wantQuery: map[string]string{"first_air_date_year": "2019", "sort_by": "popularity.desc"},
			absent:    []string{"primary_release_year", "with_genres"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeTMDB()
			path := "/3/discover/" + string(tt.kind)
			fake.bodies[path] = `{"page":1,"total_pages":1,"total_results":0,"results":[]}`
			client := newTestClient(t, fake)

			if _, err := client.Discover(context.Background(), tt.kind, tt.filter, 1); err != nil {
				t.Fatalf("Discover: %v", err)
			}

			q := fake.query(path)
			for k, v := range tt.wantQuery {
				if q.Get(k) != v {
					t.Errorf("expected %s=%s, got %q", k, v, q.Get(k))
				}
			}
			for _, k := range tt.absent {
				if q.Has(k) {
					t.Errorf("did not expect %s in query", k)
				}
			}
		})
	}
}

func TestDiscoverRejectsUnknownSort(t *testing.T) {
	client := newTestClient(t, newFakeTMDB())
	_, err := client.Discover(context.Background(), media.KindMovie, Filter{SortBy: "title.asc"}, 1)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestAPIError(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/genre/tv/list"] = `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`
	fake.status["/3/genre/tv/list"] = http.StatusUnauthorized
	client := newTestClient(t, fake)

	_, err := client.Genres(context.Background(), media.KindTV)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Message, "Invalid API key") {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestHome(t *testing.T) {
	fake := newFakeTMDB()
	var results []string
	for i := 1; i <= 15; i++ {
		results = append(results, `{"id":`+strings.Repeat("1", i)+`,"media_type":"movie","title":"T"}`)
	}
	page := `{"page":1,"total_pages":1,"total_results":15,"results":[` + strings.Join(results, ",") + `]}`
	fake.bodies["/3/trending/all/week"] = page
	fake.bodies["/3/movie/popular"] = page
	fake.bodies["/3/tv/popular"] = `{"page":1,"total_pages":1,"total_results":1,"results":[{"id":1399,"name":"Game of Thrones"}]}`
	client := newTestClient(t, fake)

	feed, err := client.Home(context.Background())
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if len(feed.Trending) != 10 || len(feed.PopularMovies) != 10 || len(feed.PopularShows) != 1 {
		t.Fatalf("unexpected row sizes %d %d %d", len(feed.Trending), len(feed.PopularMovies), len(feed.PopularShows))
	}
}

func TestHomeFailsWhenAnyRowFails(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/trending/all/week"] = `{"page":1,"results":[]}`
	fake.bodies["/3/movie/popular"] = `{"page":1,"results":[]}`
	client := newTestClient(t, fake)

	_, err := client.Home(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 api error, got %v", err)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	fake := newFakeTMDB()
	fake.bodies["/3/genre/movie/list"] = `{"genres":[]}`
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := New(Config{APIKey: "k", BaseURL: srv.URL + "/3", HTTPClient: srv.Client(), RateLimit: 0.001})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.Genres(context.Background(), media.KindMovie); err != nil {
		t.Fatalf("first request should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Genres(ctx, media.KindMovie); err == nil {
		t.Fatalf("expected limiter wait to fail")
	}
}
