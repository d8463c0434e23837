package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"cinetrack/internal/app/lists"
	"cinetrack/internal/app/shortfilms"
	"cinetrack/internal/catalog"
	"cinetrack/internal/logging"
	"cinetrack/internal/media"
)

// CatalogService exposes the read-only movie and show catalog.
type CatalogService interface {
	Home(ctx context.Context) (*catalog.HomeFeed, error)
	Trending(ctx context.Context, kind, window string) (*catalog.Page, error)
	Popular(ctx context.Context, kind media.Kind, page int) (*catalog.Page, error)
	Search(ctx context.Context, query string, page int) (*catalog.Page, error)
	Details(ctx context.Context, kind media.Kind, id int64) (*catalog.Details, error)
	Genres(ctx context.Context, kind media.Kind) ([]catalog.Genre, error)
	Discover(ctx context.Context, kind media.Kind, filter catalog.Filter, page int) (*catalog.Page, error)
	ImageURL(path, size string) string
}

// ListService manages the personal to-watch, watched and liked lists.
type ListService interface {
	IsMember(list lists.Name, key media.Key) bool
	Add(ctx context.Context, list lists.Name, ref media.Ref) (bool, error)
	Remove(ctx context.Context, list lists.Name, key media.Key) (bool, error)
	Toggle(ctx context.Context, list lists.Name, ref media.Ref) (bool, error)
	Items(list lists.Name) []media.Ref
	Membership(key media.Key) lists.Membership
	Stats() lists.Stats
}

// ShortFilmService manages the short film collection.
type ShortFilmService interface {
	Add(ctx context.Context, film shortfilms.Film) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	Get(id string) (shortfilms.Film, bool)
	List(category string) []shortfilms.Film
	Search(query string) []shortfilms.Film
	Featured(p shortfilms.Picker) (shortfilms.Film, bool)
	Like(ctx context.Context, id string) (bool, error)
	Unlike(ctx context.Context, id string) (bool, error)
	IsLiked(id string) bool
	Stats() shortfilms.Stats
}

// catalogFailureMessage is all a client learns about a failed catalog call.
const catalogFailureMessage = "could not load catalog data, please try again later"

// Server wires HTTP handlers to the underlying services.
type Server struct {
	catalog    CatalogService
	lists      ListService
	films      ShortFilmService
	thumbnails shortfilms.ThumbnailChecker
	picker     shortfilms.Picker
	now        func() time.Time
	logger     zerolog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithThumbnailChecker sets how submitted films' thumbnails are verified.
func WithThumbnailChecker(c shortfilms.ThumbnailChecker) Option {
	return func(s *Server) { s.thumbnails = c }
}

// WithPicker sets the random source for the featured film.
func WithPicker(p shortfilms.Picker) Option {
	return func(s *Server) { s.picker = p }
}

// WithClock sets the clock submissions are dated by.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New configures a Server.
func New(catalog CatalogService, lists ListService, films ShortFilmService, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		catalog: catalog,
		lists:   lists,
		films:   films,
		picker:  defaultPicker{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	s.registerCatalog(api)
	s.registerLists(api)
	s.registerShortFilms(api)
	api.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

type profileResponse struct {
	Lists      lists.Stats      `json:"lists"`
	ShortFilms shortfilms.Stats `json:"short_films"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileResponse{
		Lists:      s.lists.Stats(),
		ShortFilms: s.films.Stats(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeOptionalJSON decodes the body into dst; an empty body leaves dst untouched.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// parseKeyParams reads the {kind} and {id} route variables.
func parseKeyParams(w http.ResponseWriter, r *http.Request) (media.Key, bool) {
	vars := mux.Vars(r)
	key, err := media.ParseKey(vars["kind"], vars["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return media.Key{}, false
	}
	return key, true
}

// parseKindParam reads the {kind} route variable.
func parseKindParam(w http.ResponseWriter, r *http.Request) (media.Kind, bool) {
	kind, err := media.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

// parseIntQuery reads an optional non-negative integer query parameter.
func parseIntQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(w http.ResponseWriter, r *http.Request) (int, bool) {
	page, ok := parseIntQuery(w, r, "page")
	if !ok {
		return 0, false
	}
	if page == 0 {
		page = 1
	}
	if page > catalog.MaxPages {
		writeError(w, http.StatusBadRequest, "page must be between 1 and "+strconv.Itoa(catalog.MaxPages))
		return 0, false
	}
	return page, true
}

func (s *Server) requestLogger(r *http.Request) zerolog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}
