package shortfilms

import (
	"time"

	"cinetrack/internal/youtube"
)

// SampleFilms is the collection a fresh installation starts with, dated
// relative to now.
func SampleFilms(now time.Time) []Film {
	sample := func(id, title, creator, description, category, thumbnail string, age time.Duration) Film {
		if thumbnail == "" {
			thumbnail = youtube.ThumbnailURL(id, youtube.QualityMax)
		}
		return Film{
			ID:          id,
			Title:       title,
			Creator:     creator,
			Description: description,
			Category:    category,
			Thumbnail:   thumbnail,
			VideoURL:    youtube.EmbedURL(id),
			AddedAt:     now.Add(-age).Truncate(time.Millisecond).UTC(),
		}
	}

	return []Film{
		sample("dQw4w9WgXcQ", "Yolda", "Ahmet Yılmaz",
			"Kayboluşun ve kendini bulmanın hikayesi", "Drama",
			"https://westburyarts.org/wp-content/uploads/2016/12/film.jpg", 1000*time.Second),
		sample("O7j4_aP8dWA", "Öteki Dünya", "Canan Öztürk",
			"Uzay ve zaman kavramlarını sorgulayan bir kısa film", "Bilim Kurgu", "", 2000*time.Second),
		sample("6qpudAhYhpc", "Son Nefes", "Zeynep Kaya",
			"Hayatın son anlarında geriye dönüp bakmanın hikayesi", "Drama", "", 3000*time.Second),
		sample("rC95MEenIxA", "Günbatımı", "Deniz Altan",
			"Hayatının son günlerini yaşayan bir adamın hikayesi", "Drama", "", 4000*time.Second),
	}
}
