// Package seed rebuilds the database with the bundled sample catalog.
// The load is a deterministic bulk insert and deliberately bypasses the
// activity log.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type user struct {
	Username, Firstname, Lastname, DOB, Email, Password, Role string
}

type mediaRow struct {
	ID, Title, Description string
	Year                   int
	Type, AgeRating        string
	Rating                 float64
}

type episodeRow struct {
	ID, MediaID     string
	Season, Episode int
	Title, AirDate  string
}

var users = []user{
	{"shruti123", "Shruti", "Gupta", "2005-06-10", "shruti@example.com", "shruti@123", "admin"},
	{"rajveer99", "Rajveer", "Singh", "2002-03-22", "rajveer@gmail.com", "rajpass", "user"},
	{"aisha07", "Aisha", "Khan", "2004-09-15", "aisha@gmail.com", "aisha007", "user"},
	{"arjun_dev", "Arjun", "Dev", "1999-11-05", "arjun.dev@gmail.com", "arjunpass", "moderator"},
	{"riya_m", "Riya", "Mehta", "2001-07-11", "riya.mehta@gmail.com", "riya123", "user"},
	{"manav_p", "Manav", "Patel", "2000-01-01", "manavp@gmail.com", "manavpass", "user"},
	{"isha_r", "Isha", "Reddy", "2006-05-20", "isha@gmail.com", "ishapass", "user"},
	{"veeraj", "Veeraj", "Nair", "1998-10-29", "veeraj@gmail.com", "veeraj123", "moderator"},
	{"tanvi_s", "Tanvi", "Sharma", "2003-04-10", "tanvi.sharma@gmail.com", "tanvipass", "user"},
	{"omkar_b", "Omkar", "Bhosale", "1995-12-12", "omkar.b@gmail.com", "omkar123", "user"},
}

var genres = [][2]string{
	{"G001", "Drama"}, {"G002", "Romance"}, {"G003", "Thriller"},
	{"G004", "Comedy"}, {"G005", "Crime"}, {"G006", "Family"},
	{"G007", "Action"}, {"G008", "Mystery"}, {"G009", "Adventure"}, {"G010", "Biopic"},
}

var media = []mediaRow{
	{"M001", "Sacred Games", "A gritty Mumbai crime thriller following Sartaj Singh and Ganesh Gaitonde.", 2018, "Series", "A", 9.1},
	{"M002", "The Family Man", "A middle-class man secretly working as a world-class spy.", 2019, "Series", "U/A 16+", 8.8},
	{"M003", "Dangal", "A father trains his daughters to become world-class wrestlers.", 2016, "Movie", "U", 9.0},
	{"M004", "Mimi", "A young woman becomes a surrogate mother for a foreign couple.", 2021, "Movie", "U/A 13+", 8.1},
	{"M005", "Delhi Crime", "Based on true events of the 2012 Delhi gang rape case.", 2019, "Series", "A", 9.2},
	{"M006", "Kota Factory", "Life of IIT aspirants in Kota, India.", 2019, "Series", "U/A 13+", 9.3},
	{"M007", "Jawan", "An emotional action drama starring Shah Rukh Khan as a vigilante.", 2023, "Movie", "U/A 16+", 8.5},
	{"M008", "3 Idiots", "Three friends navigate the pressures of the Indian education system.", 2009, "Movie", "U/A 13+", 9.4},
	{"M009", "She", "A shy Mumbai policewoman goes undercover to expose a drug cartel.", 2020, "Series", "A", 7.6},
	{"M010", "Taare Zameen Par", "A dyslexic child discovers learning differently.", 2007, "Movie", "U", 9.5},
}

var people = [][3]string{
	{"P001", "Shah Rukh Khan", "1965-11-02"},
	{"P002", "Aamir Khan", "1965-03-14"},
	{"P003", "Sanya Malhotra", "1992-02-25"},
	{"P004", "Radhika Apte", "1985-09-07"},
	{"P005", "Nawazuddin Siddiqui", "1974-05-19"},
	{"P006", "Rajkummar Rao", "1984-08-31"},
	{"P007", "Priyanka Chopra", "1982-07-18"},
	{"P008", "Manoj Bajpayee", "1969-04-23"},
	{"P009", "Ishaan Khattar", "1995-11-01"},
	{"P010", "Nitesh Tiwari", "1973-05-01"},
}

var cast = [][3]string{
	{"M001", "P005", "Ganesh Gaitonde"}, {"M001", "P008", "Sartaj Singh"},
	{"M002", "P008", "Srikant Tiwari"}, {"M003", "P002", "Mahavir Singh Phogat"},
	{"M003", "P003", "Babita Phogat"}, {"M004", "P003", "Mimi Rathore"},
	{"M005", "P004", "Vartika Chaturvedi"}, {"M006", "P006", "Jeetu Bhaiya"},
	{"M007", "P001", "Azad / Vikram Rathore"}, {"M008", "P002", "Rancho"},
	{"M009", "P004", "Bhumika Pardeshi"}, {"M010", "P002", "Ram Shankar Nikumbh"},
}

var crew = [][3]string{
	{"M001", "P005", "Director"}, {"M002", "P008", "Director"}, {"M003", "P010", "Director"},
	{"M004", "P010", "Director"}, {"M005", "P004", "Director"}, {"M006", "P006", "Director"},
	{"M007", "P001", "Producer"}, {"M008", "P010", "Director"}, {"M009", "P004", "Director"},
	{"M010", "P010", "Director"},
}

var mediaGenres = [][2]string{
	{"M001", "G005"}, {"M002", "G007"}, {"M003", "G010"}, {"M004", "G001"},
	{"M005", "G005"}, {"M006", "G006"}, {"M007", "G007"}, {"M008", "G004"},
	{"M009", "G003"}, {"M010", "G006"},
}

var episodes = []episodeRow{
	{"E00001", "M001", 1, 1, "Sacred Games S1E1", "2018-07-06"},
	{"E00002", "M001", 1, 2, "Sacred Games S1E2", "2018-07-06"},
	{"E00003", "M001", 2, 1, "Sacred Games S2E1", "2019-08-15"},
	{"E00004", "M002", 1, 1, "The Family Man S1E1", "2019-09-20"},
	{"E00005", "M002", 1, 2, "The Family Man S1E2", "2019-09-20"},
	{"E00006", "M005", 1, 1, "Delhi Crime S1E1", "2019-03-22"},
	{"E00007", "M005", 1, 2, "Delhi Crime S1E2", "2019-03-22"},
	{"E00008", "M006", 1, 1, "Kota Factory S1E1", "2019-04-16"},
	{"E00009", "M006", 1, 2, "Kota Factory S1E2", "2019-04-23"},
	{"E00010", "M009", 1, 1, "She S1E1", "2020-03-20"},
}

// Run wipes the sample tables and reloads them inside one transaction.
func Run(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	wipe := []string{
		"activity_log", "friends", "reviews", "series_progress",
		"playlist_items", "playlists", "watchlist_items",
		"media_crew", "media_cast", "media_genres",
		"episodes", "people", "media", "genres", "users",
	}
	for _, table := range wipe {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, firstname, lastname, dob, email, password_hash, role)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, u.Username, u.Firstname, u.Lastname, u.DOB, u.Email, string(hash), u.Role); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
	}

	for _, g := range genres {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO genres (genre_id, name) VALUES (?, ?)", g[0], g[1]); err != nil {
			return fmt.Errorf("insert genre %s: %w", g[0], err)
		}
	}

	for _, m := range media {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO media (media_id, title, description, release_year, media_type, age_rating, average_rating)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.Title, m.Description, m.Year, m.Type, m.AgeRating, m.Rating); err != nil {
			return fmt.Errorf("insert media %s: %w", m.ID, err)
		}
	}

	for _, p := range people {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO people (person_id, name, birthdate) VALUES (?, ?, ?)",
			p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("insert person %s: %w", p[0], err)
		}
	}

	for _, e := range episodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO episodes (episode_id, media_id, season_number, episode_number, title, air_date)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.ID, e.MediaID, e.Season, e.Episode, e.Title, e.AirDate); err != nil {
			return fmt.Errorf("insert episode %s: %w", e.ID, err)
		}
	}

	for _, mc := range cast {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO media_cast (media_id, person_id, character_name) VALUES (?, ?, ?)",
			mc[0], mc[1], mc[2]); err != nil {
			return fmt.Errorf("insert cast %s/%s: %w", mc[0], mc[1], err)
		}
	}

	for _, mw := range crew {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO media_crew (media_id, person_id, role) VALUES (?, ?, ?)",
			mw[0], mw[1], mw[2]); err != nil {
			return fmt.Errorf("insert crew %s/%s: %w", mw[0], mw[1], err)
		}
	}

	for _, mg := range mediaGenres {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO media_genres (media_id, genre_id) VALUES (?, ?)",
			mg[0], mg[1]); err != nil {
			return fmt.Errorf("insert media genre %s/%s: %w", mg[0], mg[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
