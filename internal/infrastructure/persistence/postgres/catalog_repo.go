package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILM REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// FilmRepository implements catalog.FilmRepository for PostgreSQL.
type FilmRepository struct {
	conn *Connection
}

// Create inserts the film and its genre tags in one transaction.
func (r *FilmRepository) Create(ctx context.Context, f *catalog.Film) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO films (name, description, release_date, duration)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, f.Name, f.Description, f.ReleaseDate, f.Duration).Scan(&id)
		if err != nil {
			return classify("CreateFilm", err)
		}
		if err := replaceGenres(ctx, tx, shared.FilmID(id), f.Genres); err != nil {
			return err
		}
		f.ID = shared.FilmID(id)
		return nil
	})
}

func replaceGenres(ctx context.Context, tx pgx.Tx, filmID shared.FilmID, genres []shared.GenreID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM film_genres WHERE film_id = $1`, int64(filmID)); err != nil {
		return classify("ReplaceGenres", err)
	}
	for _, g := range genres {
		_, err := tx.Exec(ctx, `
			INSERT INTO film_genres (film_id, genre_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, int64(filmID), int64(g))
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.NotFoundf(domainName, "ReplaceGenres", "genre %d not found", g)
			}
			return classify("ReplaceGenres", err)
		}
	}
	return nil
}

// Get returns the film with its genres.
func (r *FilmRepository) Get(ctx context.Context, id shared.FilmID) (*catalog.Film, error) {
	f := &catalog.Film{ID: id}
	err := r.conn.QueryRow(ctx, `
		SELECT name, description, release_date, duration FROM films WHERE id = $1
	`, int64(id)).Scan(&f.Name, &f.Description, &f.ReleaseDate, &f.Duration)
	if IsNoRows(err) {
		return nil, shared.NotFoundf(domainName, "GetFilm", "film %d not found", id)
	}
	if err != nil {
		return nil, classify("GetFilm", err)
	}

	genres, err := r.genresOf(ctx, []int64{int64(id)})
	if err != nil {
		return nil, err
	}
	f.Genres = genres[id]
	return f, nil
}

func (r *FilmRepository) genresOf(ctx context.Context, ids []int64) (map[shared.FilmID][]shared.GenreID, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT film_id, genre_id FROM film_genres WHERE film_id = ANY($1) ORDER BY film_id, genre_id
	`, ids)
	if err != nil {
		return nil, classify("FilmGenres", err)
	}
	defer rows.Close()

	out := make(map[shared.FilmID][]shared.GenreID, len(ids))
	for rows.Next() {
		var film, genre int64
		if err := rows.Scan(&film, &genre); err != nil {
			return nil, classify("FilmGenres", err)
		}
		out[shared.FilmID(film)] = append(out[shared.FilmID(film)], shared.GenreID(genre))
	}
	if err := rows.Err(); err != nil {
		return nil, classify("FilmGenres", err)
	}
	return out, nil
}

// Update replaces the film row and its genre tags.
func (r *FilmRepository) Update(ctx context.Context, f *catalog.Film) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE films SET name = $2, description = $3, release_date = $4, duration = $5
			WHERE id = $1
		`, int64(f.ID), f.Name, f.Description, f.ReleaseDate, f.Duration)
		if err != nil {
			return classify("UpdateFilm", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.NotFoundf(domainName, "UpdateFilm", "film %d not found", f.ID)
		}
		return replaceGenres(ctx, tx, f.ID, f.Genres)
	})
}

// Delete removes the film. Likes, genre tags, reviews and feedback go with it via ON DELETE CASCADE.
func (r *FilmRepository) Delete(ctx context.Context, id shared.FilmID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM films WHERE id = $1`, int64(id))
	if err != nil {
		return classify("DeleteFilm", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf(domainName, "DeleteFilm", "film %d not found", id)
	}
	return nil
}

// List returns all films ordered by id.
func (r *FilmRepository) List(ctx context.Context) ([]*catalog.Film, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name, description, release_date, duration FROM films ORDER BY id`)
	if err != nil {
		return nil, classify("ListFilms", err)
	}
	films, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Film, error) {
		var (
			f  catalog.Film
			id int64
		)
		err := row.Scan(&id, &f.Name, &f.Description, &f.ReleaseDate, &f.Duration)
		f.ID = shared.FilmID(id)
		return &f, err
	})
	if err != nil {
		return nil, classify("ListFilms", err)
	}

	ids := make([]int64, len(films))
	for i, f := range films {
		ids[i] = int64(f.ID)
	}
	genres, err := r.genresOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, f := range films {
		f.Genres = genres[f.ID]
	}
	return films, nil
}

func (r *FilmRepository) Exists(ctx context.Context, id shared.FilmID) (bool, error) {
	return exists(ctx, r.conn, "ExistsFilm", `SELECT EXISTS (SELECT 1 FROM films WHERE id = $1)`, int64(id))
}

func exists(ctx context.Context, q Querier, op, query string, id int64) (bool, error) {
	var ok bool
	if err := q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, classify(op, err)
	}
	return ok, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements catalog.UserRepository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *UserRepository) Create(ctx context.Context, u *catalog.User) error {
	var id int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO users (email, login, name, birthday) VALUES ($1, $2, $3, $4)
		RETURNING id
	`, u.Email, u.Login, u.Name, nullableDate(u.Birthday)).Scan(&id)
	if err != nil {
		return classify("CreateUser", err)
	}
	u.ID = shared.UserID(id)
	return nil
}

const selectUser = `SELECT id, email, login, name, birthday FROM users`

func scanUser(row pgx.Row) (*catalog.User, error) {
	var (
		u        catalog.User
		id       int64
		birthday *time.Time
	)
	if err := row.Scan(&id, &u.Email, &u.Login, &u.Name, &birthday); err != nil {
		return nil, err
	}
	u.ID = shared.UserID(id)
	if birthday != nil {
		u.Birthday = *birthday
	}
	return &u, nil
}

func (r *UserRepository) Get(ctx context.Context, id shared.UserID) (*catalog.User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, selectUser+` WHERE id = $1`, int64(id)))
	if IsNoRows(err) {
		return nil, shared.NotFoundf(domainName, "GetUser", "user %d not found", id)
	}
	if err != nil {
		return nil, classify("GetUser", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *catalog.User) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE users SET email = $2, login = $3, name = $4, birthday = $5 WHERE id = $1
	`, int64(u.ID), u.Email, u.Login, u.Name, nullableDate(u.Birthday))
	if err != nil {
		return classify("UpdateUser", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf(domainName, "UpdateUser", "user %d not found", u.ID)
	}
	return nil
}

// GetMany returns the users in the order of ids, skipping unknown ids.
func (r *UserRepository) GetMany(ctx context.Context, ids []shared.UserID) ([]*catalog.User, error) {
	if len(ids) == 0 {
		return []*catalog.User{}, nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}

	rows, err := r.conn.Query(ctx, selectUser+` WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, classify("GetUsers", err)
	}
	defer rows.Close()

	byID := make(map[shared.UserID]*catalog.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("GetUsers", err)
		}
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, classify("GetUsers", err)
	}

	out := make([]*catalog.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) Exists(ctx context.Context, id shared.UserID) (bool, error) {
	return exists(ctx, r.conn, "ExistsUser", `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, int64(id))
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ReviewRepository implements catalog.ReviewRepository for PostgreSQL.
// useful_score is only set by the column default here.
type ReviewRepository struct {
	conn *Connection
}

func (r *ReviewRepository) Create(ctx context.Context, rv *catalog.Review) error {
	var id int64
	err := r.conn.QueryRow(ctx, `
		INSERT INTO reviews (film_id, user_id, content, is_positive) VALUES ($1, $2, $3, $4)
		RETURNING id
	`, int64(rv.FilmID), int64(rv.UserID), rv.Content, rv.IsPositive).Scan(&id)
	if err != nil {
		return classify("CreateReview", err,
			ref("reviews_film_fk", relation.EntityFilm, rv.FilmID),
			ref("reviews_user_fk", relation.EntityUser, rv.UserID))
	}
	rv.ID = shared.ReviewID(id)
	rv.UsefulScore = 0
	return nil
}

const selectReview = `SELECT id, film_id, user_id, content, is_positive, useful_score FROM reviews`

func scanReview(row pgx.Row) (*catalog.Review, error) {
	var (
		rv             catalog.Review
		id, film, user int64
	)
	if err := row.Scan(&id, &film, &user, &rv.Content, &rv.IsPositive, &rv.UsefulScore); err != nil {
		return nil, err
	}
	rv.ID = shared.ReviewID(id)
	rv.FilmID = shared.FilmID(film)
	rv.UserID = shared.UserID(user)
	return &rv, nil
}

func (r *ReviewRepository) Get(ctx context.Context, id shared.ReviewID) (*catalog.Review, error) {
	rv, err := scanReview(r.conn.QueryRow(ctx, selectReview+` WHERE id = $1`, int64(id)))
	if IsNoRows(err) {
		return nil, shared.NotFoundf(domainName, "GetReview", "review %d not found", id)
	}
	if err != nil {
		return nil, classify("GetReview", err)
	}
	return rv, nil
}

// UpdateContent writes content and polarity and reloads the row, score included.
func (r *ReviewRepository) UpdateContent(ctx context.Context, rv *catalog.Review) error {
	updated, err := scanReview(r.conn.QueryRow(ctx, `
		UPDATE reviews SET content = $2, is_positive = $3 WHERE id = $1
		RETURNING id, film_id, user_id, content, is_positive, useful_score
	`, int64(rv.ID), rv.Content, rv.IsPositive))
	if IsNoRows(err) {
		return shared.NotFoundf(domainName, "UpdateReview", "review %d not found", rv.ID)
	}
	if err != nil {
		return classify("UpdateReview", err)
	}
	*rv = *updated
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id shared.ReviewID) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, int64(id))
	if err != nil {
		return classify("DeleteReview", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFoundf(domainName, "DeleteReview", "review %d not found", id)
	}
	return nil
}

func (r *ReviewRepository) ListByFilm(ctx context.Context, filmID *shared.FilmID, limit int) ([]*catalog.Review, error) {
	var film *int64
	if filmID != nil {
		f := int64(*filmID)
		film = &f
	}
	rows, err := r.conn.Query(ctx, selectReview+`
		WHERE ($1::BIGINT IS NULL OR film_id = $1)
		ORDER BY useful_score DESC, id ASC
		LIMIT $2
	`, film, limit)
	if err != nil {
		return nil, classify("ListReviews", err)
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Review, error) {
		return scanReview(row)
	})
	if err != nil {
		return nil, classify("ListReviews", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) Exists(ctx context.Context, id shared.ReviewID) (bool, error) {
	return exists(ctx, r.conn, "ExistsReview", `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, int64(id))
}

// ══════════════════════════════════════════════════════════════════════════════
// GENRE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// GenreRepository implements catalog.GenreRepository for PostgreSQL.
type GenreRepository struct {
	conn *Connection
}

func (r *GenreRepository) List(ctx context.Context) ([]*catalog.Genre, error) {
	rows, err := r.conn.Query(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, classify("ListGenres", err)
	}
	genres, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Genre, error) {
		var (
			g  catalog.Genre
			id int64
		)
		err := row.Scan(&id, &g.Name)
		g.ID = shared.GenreID(id)
		return &g, err
	})
	if err != nil {
		return nil, classify("ListGenres", err)
	}
	return genres, nil
}

func (r *GenreRepository) Get(ctx context.Context, id shared.GenreID) (*catalog.Genre, error) {
	g := &catalog.Genre{ID: id}
	err := r.conn.QueryRow(ctx, `SELECT name FROM genres WHERE id = $1`, int64(id)).Scan(&g.Name)
	if IsNoRows(err) {
		return nil, shared.NotFoundf(domainName, "GetGenre", "genre %d not found", id)
	}
	if err != nil {
		return nil, classify("GetGenre", err)
	}
	return g, nil
}
