package catalog

import (
	"strconv"
	"strings"
)

// MovieResult is one entry of a /search/movie response.
type MovieResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Overview      string  `json:"overview"`
	Popularity    float64 `json:"popularity"`
	VoteCount     int64   `json:"vote_count"`
}

// Year returns the release year, or 0 when the date is missing.
func (m MovieResult) Year() int {
	return yearOf(m.ReleaseDate)
}

// MovieSearchResponse models the paginated /search/movie payload.
type MovieSearchResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// Country is a production country entry.
type Country struct {
	Code string `json:"iso_3166_1"`
	Name string `json:"name"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the append_to_response=credits block of a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// MovieDetails is the /movie/{id} payload with credits appended.
type MovieDetails struct {
	MovieResult
	IMDbID              string    `json:"imdb_id"`
	Runtime             int       `json:"runtime"`
	ProductionCountries []Country `json:"production_countries"`
	Credits             Credits   `json:"credits"`
}

// Directors lists crew names whose job is Director, in credit order.
func (m MovieDetails) Directors() []string {
	var names []string
	for _, member := range m.Credits.Crew {
		if member.Job == "Director" && strings.TrimSpace(member.Name) != "" {
			names = append(names, member.Name)
		}
	}
	return names
}

// HasCountry reports whether code (ISO 3166-1) is among the production countries.
func (m MovieDetails) HasCountry(code string) bool {
	for _, country := range m.ProductionCountries {
		if strings.EqualFold(country.Code, code) {
			return true
		}
	}
	return false
}

// PersonResult is one entry of a /search/person response.
type PersonResult struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	OriginalName       string  `json:"original_name"`
	Popularity         float64 `json:"popularity"`
	Gender             int     `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
}

// PersonSearchResponse models the paginated /search/person payload.
type PersonSearchResponse struct {
	Page         int            `json:"page"`
	Results      []PersonResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// CreditedMovie is a movie credit in a person's filmography.
type CreditedMovie struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
	Character     string `json:"character,omitempty"`
	Job           string `json:"job,omitempty"`
	Department    string `json:"department,omitempty"`
}

// MovieCredits is the append_to_response=movie_credits block of a person.
type MovieCredits struct {
	Cast []CreditedMovie `json:"cast"`
	Crew []CreditedMovie `json:"crew"`
}

// PersonDetails is the /person/{id} payload with movie credits appended.
type PersonDetails struct {
	PersonResult
	IMDbID       string       `json:"imdb_id"`
	Birthday     string       `json:"birthday"`
	Deathday     string       `json:"deathday"`
	PlaceOfBirth string       `json:"place_of_birth"`
	AlsoKnownAs  []string     `json:"also_known_as"`
	Biography    string       `json:"biography"`
	MovieCredits MovieCredits `json:"movie_credits"`
}

// CreditTitles returns the distinct titles across cast and crew credits.
func (p PersonDetails) CreditTitles() []string {
	seen := make(map[string]struct{})
	var titles []string
	add := func(title string) {
		title = strings.TrimSpace(title)
		if title == "" {
			return
		}
		if _, ok := seen[title]; ok {
			return
		}
		seen[title] = struct{}{}
		titles = append(titles, title)
	}
	for _, credit := range p.MovieCredits.Cast {
		add(credit.Title)
	}
	for _, credit := range p.MovieCredits.Crew {
		add(credit.Title)
	}
	return titles
}

func yearOf(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
