package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"watchplan/pkg/database"
	"watchplan/pkg/utils"
)

func main() {
	var (
		mediaOut    = flag.String("media", "data/media.csv", "output CSV path for the media catalog")
		activityOut = flag.String("activity", "data/activity_log.csv", "output CSV path for the activity log")
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

	if err := exportMedia(ctx, db, *mediaOut); err != nil {
		log.Fatalf("export media failed: %v", err)
	}
	if err := exportActivity(ctx, db, *activityOut); err != nil {
		log.Fatalf("export activity log failed: %v", err)
	}

	log.Printf("exported media to %s and activity log to %s", *mediaOut, *activityOut)
}

func exportMedia(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"media_id", "title", "description", "release_year", "media_type", "age_rating", "poster_url", "average_rating"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT media_id, title, description, release_year, media_type, age_rating, poster_url, average_rating
        FROM media
        ORDER BY title
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          string
			title       string
			description sql.NullString
			releaseYear sql.NullInt64
			mediaType   sql.NullString
			ageRating   sql.NullString
			posterURL   sql.NullString
			avgRating   sql.NullFloat64
		)

		if err := rows.Scan(&id, &title, &description, &releaseYear, &mediaType, &ageRating, &posterURL, &avgRating); err != nil {
			return err
		}

		year := ""
		if releaseYear.Valid {
			year = strconv.FormatInt(releaseYear.Int64, 10)
		}
		rating := ""
		if avgRating.Valid {
			rating = strconv.FormatFloat(avgRating.Float64, 'f', 1, 64)
		}

		if err := w.Write([]string{
			id,
			title,
			description.String,
			year,
			mediaType.String,
			ageRating.String,
			posterURL.String,
			rating,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportActivity(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"log_id", "username", "table_name", "operation", "record_id", "change_details", "changed_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT log_id, username, table_name, operation, record_id, change_details, changed_at
        FROM activity_log
        ORDER BY log_id
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			logID     int64
			username  sql.NullString
			tableName string
			operation string
			recordID  sql.NullString
			details   sql.NullString
			changedAt sql.NullString
		)

		if err := rows.Scan(&logID, &username, &tableName, &operation, &recordID, &details, &changedAt); err != nil {
			return err
		}

		if err := w.Write([]string{
			strconv.FormatInt(logID, 10),
			username.String,
			tableName,
			operation,
			recordID.String,
			details.String,
			changedAt.String,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
