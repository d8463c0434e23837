package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cinetrack/internal/app/lists"
	"cinetrack/internal/catalog"
	"cinetrack/internal/media"
	"cinetrack/internal/youtube"
)

func (s *Server) registerCatalog(router *mux.Router) {
	router.HandleFunc("/home", s.handleHome).Methods(http.MethodGet)
	router.HandleFunc("/trending", s.handleTrending).Methods(http.MethodGet)
	router.HandleFunc("/popular/{kind}", s.handlePopular).Methods(http.MethodGet)
	router.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/discover/{kind}", s.handleDiscover).Methods(http.MethodGet)
	router.HandleFunc("/genres/{kind}", s.handleGenres).Methods(http.MethodGet)
	router.HandleFunc("/titles/{kind}/{id}", s.handleTitle).Methods(http.MethodGet)
}

// itemView is a catalog item with its poster resolved.
type itemView struct {
	catalog.Item
	PosterURL string `json:"poster_url"`
}

type pageView struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []itemView `json:"results"`
}

type homeView struct {
	Trending      []itemView `json:"trending"`
	PopularMovies []itemView `json:"popular_movies"`
	PopularShows  []itemView `json:"popular_shows"`
}

type imageView struct {
	catalog.Image
	URL string `json:"url"`
}

type castView struct {
	catalog.Cast
	ProfileURL string `json:"profile_url"`
}

type titleView struct {
	*catalog.Details
	PosterURL   string           `json:"poster_url"`
	BackdropURL string           `json:"backdrop_url"`
	TrailerKey  string           `json:"trailer_key,omitempty"`
	TrailerURL  string           `json:"trailer_url,omitempty"`
	Cast        []castView       `json:"cast"`
	Backdrops   []imageView      `json:"backdrops"`
	Posters     []imageView      `json:"posters"`
	Membership  lists.Membership `json:"membership"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	feed, err := s.catalog.Home(r.Context())
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, homeView{
		Trending:      s.items(feed.Trending),
		PopularMovies: s.items(feed.PopularMovies),
		PopularShows:  s.items(feed.PopularShows),
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("type")
	if kind == "" {
		kind = "all"
	}
	window := q.Get("window")
	if window == "" {
		window = "week"
	}

	page, err := s.catalog.Trending(r.Context(), kind, window)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(page))
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	pageNum, ok := parsePage(w, r)
	if !ok {
		return
	}

	page, err := s.catalog.Popular(r.Context(), kind, pageNum)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(page))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	pageNum, ok := parsePage(w, r)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, pageView{Page: 1, Results: []itemView{}})
		return
	}

	page, err := s.catalog.Search(r.Context(), query, pageNum)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(page))
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	pageNum, ok := parsePage(w, r)
	if !ok {
		return
	}
	genre, ok := parseIntQuery(w, r, "genre")
	if !ok {
		return
	}
	year, ok := parseIntQuery(w, r, "year")
	if !ok {
		return
	}

	filter := catalog.Filter{Genre: genre, Year: year, SortBy: r.URL.Query().Get("sort_by")}
	page, err := s.catalog.Discover(r.Context(), kind, filter, pageNum)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.page(page))
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}

	genres, err := s.catalog.Genres(r.Context(), kind)
	if err != nil {
		s.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.Genre{"genres": genres})
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	key, ok := parseKeyParams(w, r)
	if !ok {
		return
	}

	details, err := s.catalog.Details(r.Context(), key.Kind, key.ID)
	if err != nil {
		s.detailsError(w, r, err)
		return
	}

	view := titleView{
		Details:     details,
		PosterURL:   s.catalog.ImageURL(details.PosterPath, catalog.SizeMedium),
		BackdropURL: s.catalog.ImageURL(details.BackdropPath, catalog.SizeOriginal),
		Cast:        []castView{},
		Backdrops:   s.images(details.Images.Backdrops, catalog.SizeOriginal),
		Posters:     s.images(details.Images.Posters, catalog.SizeMedium),
		Membership:  s.lists.Membership(key),
	}
	if trailer, ok := details.Trailer(); ok {
		view.TrailerKey = trailer.Key
		view.TrailerURL = youtube.EmbedURL(trailer.Key)
	}
	for _, c := range details.Credits.Cast {
		view.Cast = append(view.Cast, castView{Cast: c, ProfileURL: s.catalog.ImageURL(c.ProfilePath, catalog.SizeSmall)})
	}

	writeJSON(w, http.StatusOK, view)
}

// detailsError answers a failed title lookup; an unknown title is a 404.
func (s *Server) detailsError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *catalog.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "title not found")
		return
	}
	s.catalogError(w, r, err)
}

// catalogError answers a failed catalog call. Bad parameters are the
// client's fault; anything else is logged and reported generically.
func (s *Server) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrUnsupported) || errors.Is(err, media.ErrUnknownKind) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger := s.requestLogger(r)
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("catalog request failed")
	writeError(w, http.StatusBadGateway, catalogFailureMessage)
}

func (s *Server) page(p *catalog.Page) pageView {
	return pageView{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      s.items(p.Results),
	}
}

func (s *Server) items(items []catalog.Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, item := range items {
		out = append(out, itemView{Item: item, PosterURL: s.catalog.ImageURL(item.PosterPath, catalog.SizeMedium)})
	}
	return out
}

func (s *Server) images(images []catalog.Image, size string) []imageView {
	out := make([]imageView, 0, len(images))
	for _, img := range images {
		out = append(out, imageView{Image: img, URL: s.catalog.ImageURL(img.FilePath, size)})
	}
	return out
}
