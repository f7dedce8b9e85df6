package models

// Media is one catalog entry, either a movie or a series.
type Media struct {
	ID            string   `json:"media_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	ReleaseYear   int      `json:"release_year,omitempty"`
	MediaType     string   `json:"media_type"` // "Movie" or "Series"
	AgeRating     string   `json:"age_rating"`
	PosterURL     string   `json:"poster_url,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// MediaDetail is a media row joined with its related entities.
type MediaDetail struct {
	Media
	Genres   []Genre      `json:"genres"`
	Cast     []CastCredit `json:"cast"`
	Crew     []CrewCredit `json:"crew"`
	Episodes []Episode    `json:"episodes,omitempty"`
}

type Genre struct {
	ID   string `json:"genre_id"`
	Name string `json:"name"`
}

type Episode struct {
	ID            string `json:"episode_id"`
	MediaID       string `json:"media_id"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
	AirDate       string `json:"air_date,omitempty"`
}
