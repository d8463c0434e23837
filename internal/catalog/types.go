package catalog

import (
	"cinetrack/internal/media"
)

// MaxPages is the deepest page the catalog serves.
const MaxPages = 500

// Item is one movie or show in a result page.
type Item struct {
	ID           int64      `json:"id"`
	MediaType    media.Kind `json:"media_type,omitempty"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	PosterPath   string     `json:"poster_path"`
	BackdropPath string     `json:"backdrop_path"`
	Overview     string     `json:"overview"`
	ReleaseDate  string     `json:"release_date,omitempty"`
	FirstAirDate string     `json:"first_air_date,omitempty"`
	VoteAverage  float64    `json:"vote_average"`
	VoteCount    int        `json:"vote_count"`
	GenreIDs     []int      `json:"genre_ids"`
}

// DisplayName is the title of a movie or the name of a show.
func (i Item) DisplayName() string {
	if i.MediaType == media.KindTV || i.Title == "" {
		return i.Name
	}
	return i.Title
}

// Page is one page of results.
type Page struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video is a clip attached to a title.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Cast is a credited performer.
type Cast struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Character          string `json:"character"`
	ProfilePath        string `json:"profile_path"`
	KnownForDepartment string `json:"known_for_department"`
	Order              int    `json:"order"`
}

// Crew is a credited crew member.
type Crew struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

// Image is a backdrop or poster.
type Image struct {
	AspectRatio float64 `json:"aspect_ratio"`
	FilePath    string  `json:"file_path"`
	Height      int     `json:"height"`
	Width       int     `json:"width"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Credits lists cast and crew.
type Credits struct {
	Cast []Cast `json:"cast"`
	Crew []Crew `json:"crew"`
}

// Images holds the gallery of a title.
type Images struct {
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
}

// Details is the full record of one title.
type Details struct {
	ID           int64      `json:"id"`
	MediaType    media.Kind `json:"media_type"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	PosterPath   string     `json:"poster_path"`
	BackdropPath string     `json:"backdrop_path"`
	Overview     string     `json:"overview"`
	ReleaseDate  string     `json:"release_date,omitempty"`
	FirstAirDate string     `json:"first_air_date,omitempty"`
	VoteAverage  float64    `json:"vote_average"`
	VoteCount    int        `json:"vote_count"`
	Runtime      int        `json:"runtime,omitempty"`
	Genres       []Genre    `json:"genres"`
	Videos       struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Credits *Credits `json:"credits"`
	Images  *Images  `json:"images"`
}

// DisplayName is the title of a movie or the name of a show.
func (d *Details) DisplayName() string {
	if d.MediaType == media.KindTV || d.Title == "" {
		return d.Name
	}
	return d.Title
}

// Trailer returns the first YouTube trailer.
func (d *Details) Trailer() (Video, bool) {
	for _, v := range d.Videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return v, true
		}
	}
	return Video{}, false
}

// Ref snapshots the title for a personal list.
func (d *Details) Ref() (media.Ref, error) {
	vote := d.VoteAverage
	return media.New(media.Key{ID: d.ID, Kind: d.MediaType}, d.DisplayName(), d.PosterPath, &vote)
}

// normalize fills in the gallery and credits when the catalog left them out.
func (d *Details) normalize() {
	if d.Images == nil || len(d.Images.Backdrops) == 0 {
		posters := []Image{}
		if d.PosterPath != "" {
			posters = append(posters, Image{FilePath: d.PosterPath, AspectRatio: 1.78, Height: 1080, Width: 1920})
		}
		d.Images = &Images{Backdrops: []Image{}, Posters: posters}
	}
	if d.Credits == nil || d.Credits.Cast == nil {
		d.Credits = &Credits{Cast: []Cast{}, Crew: []Crew{}}
	}
	if d.Videos.Results == nil {
		d.Videos.Results = []Video{}
	}
	if d.Genres == nil {
		d.Genres = []Genre{}
	}
}

// HomeFeed is the landing page selection.
type HomeFeed struct {
	Trending      []Item `json:"trending"`
	PopularMovies []Item `json:"popular_movies"`
	PopularShows  []Item `json:"popular_shows"`
}
