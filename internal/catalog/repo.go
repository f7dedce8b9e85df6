package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"watchplan/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Search runs the composed filter query. With no text and no structural
// filter it degrades to the browse default: top page by rating, title.
func (r *Repo) Search(ctx context.Context, q Query) ([]models.Media, error) {
	sqlStr, args := buildSearchSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Media, 0, q.PageSize)
	for rows.Next() {
		m, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("search scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, q Query) (int, error) {
	sqlStr, args := buildSearchSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// GetByID loads one media row with its genres, credits and episodes.
func (r *Repo) GetByID(ctx context.Context, id string) (*models.MediaDetail, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+mediaColumns+`
		FROM media m
		WHERE m.media_id = ?
	`, id)

	m, err := scanMedia(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}

	detail := &models.MediaDetail{Media: m}
	if detail.Genres, err = r.genresOf(ctx, id); err != nil {
		return nil, err
	}
	if detail.Cast, err = r.castOf(ctx, id); err != nil {
		return nil, err
	}
	if detail.Crew, err = r.crewOf(ctx, id); err != nil {
		return nil, err
	}
	if m.MediaType == "Series" {
		if detail.Episodes, err = r.episodesOf(ctx, id); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (r *Repo) genresOf(ctx context.Context, mediaID string) ([]models.Genre, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT g.genre_id, g.name
		FROM media_genres mg
		JOIN genres g ON g.genre_id = mg.genre_id
		WHERE mg.media_id = ?
		ORDER BY g.name
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("genres query: %w", err)
	}
	defer rows.Close()

	out := []models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("genres scan: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) castOf(ctx context.Context, mediaID string) ([]models.CastCredit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT mc.person_id, p.name, mc.character_name
		FROM media_cast mc
		JOIN people p ON p.person_id = mc.person_id
		WHERE mc.media_id = ?
		ORDER BY p.name
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("cast query: %w", err)
	}
	defer rows.Close()

	out := []models.CastCredit{}
	for rows.Next() {
		var (
			cc        models.CastCredit
			name      sql.NullString
			character sql.NullString
		)
		if err := rows.Scan(&cc.PersonID, &name, &character); err != nil {
			return nil, fmt.Errorf("cast scan: %w", err)
		}
		cc.Name = name.String
		cc.CharacterName = character.String
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *Repo) crewOf(ctx context.Context, mediaID string) ([]models.CrewCredit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT mw.person_id, p.name, mw.role
		FROM media_crew mw
		JOIN people p ON p.person_id = mw.person_id
		WHERE mw.media_id = ?
		ORDER BY p.name, mw.role
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("crew query: %w", err)
	}
	defer rows.Close()

	out := []models.CrewCredit{}
	for rows.Next() {
		var (
			cc   models.CrewCredit
			name sql.NullString
		)
		if err := rows.Scan(&cc.PersonID, &name, &cc.Role); err != nil {
			return nil, fmt.Errorf("crew scan: %w", err)
		}
		cc.Name = name.String
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *Repo) episodesOf(ctx context.Context, mediaID string) ([]models.Episode, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT episode_id, media_id, season_number, episode_number, title, air_date
		FROM episodes
		WHERE media_id = ?
		ORDER BY season_number, episode_number
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("episodes query: %w", err)
	}
	defer rows.Close()

	out := []models.Episode{}
	for rows.Next() {
		var (
			e       models.Episode
			title   sql.NullString
			airDate sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.MediaID, &e.SeasonNumber, &e.EpisodeNumber, &title, &airDate); err != nil {
			return nil, fmt.Errorf("episodes scan: %w", err)
		}
		e.Title = title.String
		e.AirDate = airDate.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanMedia(scan func(...any) error) (models.Media, error) {
	var (
		m         models.Media
		desc      sql.NullString
		year      sql.NullInt64
		mediaType sql.NullString
		poster    sql.NullString
		rating    sql.NullFloat64
	)
	if err := scan(&m.ID, &m.Title, &desc, &year, &mediaType, &m.AgeRating, &poster, &rating); err != nil {
		return models.Media{}, err
	}
	m.Description = desc.String
	m.ReleaseYear = int(year.Int64)
	m.MediaType = mediaType.String
	m.PosterURL = poster.String
	if rating.Valid {
		v := rating.Float64
		m.AverageRating = &v
	}
	return m, nil
}
