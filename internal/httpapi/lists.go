package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"cinetrack/internal/app/lists"
	"cinetrack/internal/catalog"
	"cinetrack/internal/media"
)

func (s *Server) registerLists(router *mux.Router) {
	router.HandleFunc("/lists", s.handleAllLists).Methods(http.MethodGet)
	router.HandleFunc("/lists/{list}", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/lists/{list}/{kind}/{id}", s.handleMembership).Methods(http.MethodGet)
	router.HandleFunc("/lists/{list}/{kind}/{id}", s.handleListAdd).Methods(http.MethodPut)
	router.HandleFunc("/lists/{list}/{kind}/{id}", s.handleListRemove).Methods(http.MethodDelete)
	router.HandleFunc("/lists/{list}/{kind}/{id}/toggle", s.handleListToggle).Methods(http.MethodPost)
}

// refView is a tracked title as shown to clients.
type refView struct {
	ID          int64      `json:"id"`
	MediaType   media.Kind `json:"media_type"`
	Title       string     `json:"title,omitempty"`
	Name        string     `json:"name,omitempty"`
	PosterPath  string     `json:"poster_path,omitempty"`
	PosterURL   string     `json:"poster_url"`
	VoteAverage *float64   `json:"vote_average,omitempty"`
}

type allListsResponse struct {
	ToWatch []refView   `json:"to_watch"`
	Watched []refView   `json:"watched"`
	Liked   []refView   `json:"liked"`
	Stats   lists.Stats `json:"stats"`
}

// snapshotRequest carries the display fields stored with a list entry.
type snapshotRequest struct {
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	PosterPath  string   `json:"poster_path"`
	VoteAverage *float64 `json:"vote_average"`
}

type membershipResponse struct {
	Member     bool             `json:"member"`
	Membership lists.Membership `json:"membership"`
}

type listMutationResponse struct {
	Added     *bool `json:"added,omitempty"`
	Removed   *bool `json:"removed,omitempty"`
	Member    *bool `json:"member,omitempty"`
	Persisted bool  `json:"persisted"`
}

func (s *Server) handleAllLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, allListsResponse{
		ToWatch: s.refs(s.lists.Items(lists.ToWatch)),
		Watched: s.refs(s.lists.Items(lists.Watched)),
		Liked:   s.refs(s.lists.Items(lists.Liked)),
		Stats:   s.lists.Stats(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name, ok := parseListParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]refView{"items": s.refs(s.lists.Items(name))})
}

func (s *Server) handleMembership(w http.ResponseWriter, r *http.Request) {
	name, ok := parseListParam(w, r)
	if !ok {
		return
	}
	key, ok := parseKeyParams(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, membershipResponse{
		Member:     s.lists.IsMember(name, key),
		Membership: s.lists.Membership(key),
	})
}

func (s *Server) handleListAdd(w http.ResponseWriter, r *http.Request) {
	name, ref, ok := s.parseListMutation(w, r, false)
	if !ok {
		return
	}

	added, err := s.lists.Add(r.Context(), name, ref)
	persisted, ok := s.listMutationResult(w, r, err)
	if !ok {
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, listMutationResponse{Added: &added, Persisted: persisted})
}

func (s *Server) handleListRemove(w http.ResponseWriter, r *http.Request) {
	name, ok := parseListParam(w, r)
	if !ok {
		return
	}
	key, ok := parseKeyParams(w, r)
	if !ok {
		return
	}

	removed, err := s.lists.Remove(r.Context(), name, key)
	persisted, ok := s.listMutationResult(w, r, err)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listMutationResponse{Removed: &removed, Persisted: persisted})
}

func (s *Server) handleListToggle(w http.ResponseWriter, r *http.Request) {
	name, ref, ok := s.parseListMutation(w, r, true)
	if !ok {
		return
	}

	member, err := s.lists.Toggle(r.Context(), name, ref)
	persisted, ok := s.listMutationResult(w, r, err)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, listMutationResponse{Member: &member, Persisted: persisted})
}

// parseListMutation reads the list, key and optional snapshot body of a
// mutation. Without a body, a title about to be added is snapshotted from the
// catalog; a toggle that removes needs only the key.
func (s *Server) parseListMutation(w http.ResponseWriter, r *http.Request, toggle bool) (lists.Name, media.Ref, bool) {
	name, ok := parseListParam(w, r)
	if !ok {
		return "", nil, false
	}
	key, ok := parseKeyParams(w, r)
	if !ok {
		return "", nil, false
	}

	var req snapshotRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", nil, false
	}

	if req == (snapshotRequest{}) && !(toggle && s.lists.IsMember(name, key)) {
		ref, ok := s.catalogSnapshot(w, r, key)
		return name, ref, ok
	}

	display, fallback := req.Title, req.Name
	if key.Kind == media.KindTV {
		display, fallback = req.Name, req.Title
	}
	if display == "" {
		display = fallback
	}
	ref, err := media.New(key, display, req.PosterPath, req.VoteAverage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	return name, ref, true
}

func (s *Server) catalogSnapshot(w http.ResponseWriter, r *http.Request, key media.Key) (media.Ref, bool) {
	details, err := s.catalog.Details(r.Context(), key.Kind, key.ID)
	if err != nil {
		s.detailsError(w, r, err)
		return nil, false
	}
	ref, err := details.Ref()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return ref, true
}

// listMutationResult maps a store error. A change that was applied but not
// written is still a success, reported with persisted=false.
func (s *Server) listMutationResult(w http.ResponseWriter, r *http.Request, err error) (bool, bool) {
	switch {
	case err == nil:
		return true, true
	case errors.Is(err, lists.ErrNotPersisted):
		logger := s.requestLogger(r)
		logger.Warn().Err(err).Str("path", r.URL.Path).Msg("list change not persisted")
		return false, true
	case errors.Is(err, lists.ErrUnknownList):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger := s.requestLogger(r)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("list change failed")
		writeError(w, http.StatusInternalServerError, "could not update list")
	}
	return false, false
}

func parseListParam(w http.ResponseWriter, r *http.Request) (lists.Name, bool) {
	name, err := lists.ParseName(mux.Vars(r)["list"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return name, true
}

func (s *Server) refs(refs []media.Ref) []refView {
	out := make([]refView, 0, len(refs))
	for _, ref := range refs {
		key := ref.Key()
		view := refView{
			ID:          key.ID,
			MediaType:   key.Kind,
			PosterPath:  ref.Poster(),
			PosterURL:   s.catalog.ImageURL(ref.Poster(), catalog.SizeMedium),
			VoteAverage: ref.Rating(),
		}
		if key.Kind == media.KindTV {
			view.Name = ref.DisplayName()
		} else {
			view.Title = ref.DisplayName()
		}
		out = append(out, view)
	}
	return out
}
