package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"cinetrack/internal/app/shortfilms"
)

func (s *Server) registerShortFilms(router *mux.Router) {
	router.HandleFunc("/shortfilms", s.handleShortFilms).Methods(http.MethodGet)
	router.HandleFunc("/shortfilms", s.handleSubmitShortFilm).Methods(http.MethodPost)
	router.HandleFunc("/shortfilms/featured", s.handleFeaturedShortFilm).Methods(http.MethodGet)
	router.HandleFunc("/shortfilms/categories", s.handleShortFilmCategories).Methods(http.MethodGet)
	router.HandleFunc("/shortfilms/{id}", s.handleShortFilm).Methods(http.MethodGet)
	router.HandleFunc("/shortfilms/{id}", s.handleRemoveShortFilm).Methods(http.MethodDelete)
	router.HandleFunc("/shortfilms/{id}/like", s.handleLikeShortFilm).Methods(http.MethodPut)
	router.HandleFunc("/shortfilms/{id}/like", s.handleUnlikeShortFilm).Methods(http.MethodDelete)
}

type filmView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Creator         string    `json:"creator"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html,omitempty"`
	Category        string    `json:"category"`
	Thumbnail       string    `json:"thumbnail"`
	VideoURL        string    `json:"video_url"`
	AddedAt         time.Time `json:"added_at"`
	Liked           bool      `json:"liked"`
}

type filmMutationResponse struct {
	Added     *bool     `json:"added,omitempty"`
	Removed   *bool     `json:"removed,omitempty"`
	Liked     *bool     `json:"liked,omitempty"`
	Film      *filmView `json:"film,omitempty"`
	Persisted bool      `json:"persisted"`
}

func (s *Server) handleShortFilms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	query := strings.TrimSpace(q.Get("q"))

	var films []shortfilms.Film
	if query != "" {
		for _, f := range s.films.Search(query) {
			if category == "" || strings.EqualFold(category, "all") || strings.EqualFold(f.Category, category) {
				films = append(films, f)
			}
		}
	} else {
		films = s.films.List(category)
	}

	views := make([]filmView, 0, len(films))
	for _, f := range films {
		views = append(views, s.film(f))
	}
	writeJSON(w, http.StatusOK, map[string][]filmView{"films": views})
}

func (s *Server) handleSubmitShortFilm(w http.ResponseWriter, r *http.Request) {
	var sub shortfilms.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	film, err := sub.Build(r.Context(), s.thumbnails, s.now())
	if err != nil {
		switch {
		case errors.Is(err, shortfilms.ErrInvalidVideoURL),
			errors.Is(err, shortfilms.ErrTitleRequired),
			errors.Is(err, shortfilms.ErrCreatorRequired),
			errors.Is(err, shortfilms.ErrUnknownCategory):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "could not submit film")
		}
		return
	}

	added, err := s.films.Add(r.Context(), film)
	persisted, ok := s.filmMutationResult(w, r, err)
	if !ok {
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	stored, _ := s.films.Get(film.ID)
	view := s.film(stored)
	writeJSON(w, status, filmMutationResponse{Added: &added, Film: &view, Persisted: persisted})
}

func (s *Server) handleFeaturedShortFilm(w http.ResponseWriter, r *http.Request) {
	film, ok := s.films.Featured(s.picker)
	if !ok {
		writeError(w, http.StatusNotFound, "no short films yet")
		return
	}
	writeJSON(w, http.StatusOK, s.film(film))
}

func (s *Server) handleShortFilmCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": shortfilms.Categories})
}

func (s *Server) handleShortFilm(w http.ResponseWriter, r *http.Request) {
	film, ok := s.films.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, shortfilms.ErrFilmNotFound.Error())
		return
	}

	view := s.film(film)
	html, err := shortfilms.RenderDescription(film.Description)
	if err != nil {
		logger := s.requestLogger(r)
		logger.Warn().Err(err).Str("film", film.ID).Msg("description not rendered")
	} else {
		view.DescriptionHTML = html
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveShortFilm(w http.ResponseWriter, r *http.Request) {
	removed, err := s.films.Remove(r.Context(), mux.Vars(r)["id"])
	persisted, ok := s.filmMutationResult(w, r, err)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filmMutationResponse{Removed: &removed, Persisted: persisted})
}

func (s *Server) handleLikeShortFilm(w http.ResponseWriter, r *http.Request) {
	_, err := s.films.Like(r.Context(), mux.Vars(r)["id"])
	persisted, ok := s.filmMutationResult(w, r, err)
	if !ok {
		return
	}
	liked := true
	writeJSON(w, http.StatusOK, filmMutationResponse{Liked: &liked, Persisted: persisted})
}

func (s *Server) handleUnlikeShortFilm(w http.ResponseWriter, r *http.Request) {
	_, err := s.films.Unlike(r.Context(), mux.Vars(r)["id"])
	persisted, ok := s.filmMutationResult(w, r, err)
	if !ok {
		return
	}
	liked := false
	writeJSON(w, http.StatusOK, filmMutationResponse{Liked: &liked, Persisted: persisted})
}

func (s *Server) filmMutationResult(w http.ResponseWriter, r *http.Request, err error) (bool, bool) {
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, shortfilms.ErrNotPersisted):
		logger := s.requestLogger(r)
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("short film change not persisted")
		return false, true
	case errors.Is(err, shortfilms.ErrFilmNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger := s.requestLogger(r)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("short film change failed")
		writeError(w, http.StatusInternalServerError, "could not update short films")
	}
	return false, false
}

func (s *Server) film(f shortfilms.Film) filmView {
	return filmView{
		ID:          f.ID,
		Title:       f.Title,
		Creator:     f.Creator,
		Description: f.Description,
		Category:    f.Category,
		Thumbnail:   f.Thumbnail,
		VideoURL:    f.VideoURL,
		AddedAt:     f.AddedAt,
		Liked:       s.films.IsLiked(f.ID),
	}
}
