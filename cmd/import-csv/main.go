package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"watchplan/pkg/database"
	"watchplan/pkg/utils"
)

func main() {
	var (
		mediaIn  = flag.String("media", "data/media.csv", "input CSV path for the media catalog")
		peopleIn = flag.String("people", "", "optional input CSV path for people")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := importMedia(ctx, db, *mediaIn); err != nil {
		log.Fatalf("import media failed: %v", err)
	}
	if *peopleIn != "" {
		if err := importPeople(ctx, db, *peopleIn); err != nil {
			log.Fatalf("import people failed: %v", err)
		}
	}

	log.Printf("import finished from %s", *mediaIn)
}

func importMedia(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO media (media_id, title, description, release_year, media_type, age_rating, poster_url, average_rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_id) DO UPDATE SET
		  title = excluded.title,
		  description = excluded.description,
		  release_year = excluded.release_year,
		  media_type = excluded.media_type,
		  age_rating = excluded.age_rating,
		  poster_url = excluded.poster_url,
		  average_rating = excluded.average_rating
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		id := valueAt(header, row, "media_id")
		title := valueAt(header, row, "title")
		if id == "" || title == "" {
			continue
		}

		year, err := parseNullInt(valueAt(header, row, "release_year"))
		if err != nil {
			return fmt.Errorf("parse release_year for %s: %w", id, err)
		}
		rating, err := parseNullFloat(valueAt(header, row, "average_rating"))
		if err != nil {
			return fmt.Errorf("parse average_rating for %s: %w", id, err)
		}

		ageRating := valueAt(header, row, "age_rating")
		if ageRating == "" {
			ageRating = "U"
		}

		if _, err := stmt.ExecContext(
			ctx,
			id,
			title,
			nullString(valueAt(header, row, "description")),
			year,
			valueAt(header, row, "media_type"),
			ageRating,
			nullString(valueAt(header, row, "poster_url")),
			rating,
		); err != nil {
			return err
		}
	}

	return nil
}

func importPeople(ctx context.Context, db *sql.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return err
	}

	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO people (person_id, name, birthdate, photo_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(person_id) DO UPDATE SET
		  name = excluded.name,
		  birthdate = excluded.birthdate,
		  photo_url = excluded.photo_url
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}

		id := valueAt(header, row, "person_id")
		if id == "" {
			continue
		}

		if _, err := stmt.ExecContext(
			ctx,
			id,
			nullString(valueAt(header, row, "name")),
			nullString(valueAt(header, row, "birthdate")),
			nullString(valueAt(header, row, "photo_url")),
		); err != nil {
			return err
		}
	}

	return nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNullInt(raw string) (sql.NullInt64, error) {
	if raw == "" {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func parseNullFloat(raw string) (sql.NullFloat64, error) {
	if raw == "" {
		return sql.NullFloat64{}, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: f, Valid: true}, nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
