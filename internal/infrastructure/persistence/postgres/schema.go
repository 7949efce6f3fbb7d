package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
)

// schemaSQL creates the tables when they are missing. Every foreign key is named so
// that violations can be traced back to the referenced entity.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id        BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	email     TEXT NOT NULL,
	login     TEXT NOT NULL,
	name      TEXT NOT NULL DEFAULT '',
	birthday  DATE,
	CONSTRAINT users_email_key UNIQUE (email),
	CONSTRAINT users_login_key UNIQUE (login)
);

CREATE TABLE IF NOT EXISTS genres (
	id   BIGINT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS films (
	id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	name         TEXT NOT NULL,
	description  VARCHAR(200) NOT NULL DEFAULT '',
	release_date DATE NOT NULL,
	duration     INTEGER NOT NULL CHECK (duration > 0)
);

CREATE TABLE IF NOT EXISTS film_genres (
	film_id  BIGINT NOT NULL,
	genre_id BIGINT NOT NULL,
	PRIMARY KEY (film_id, genre_id),
	CONSTRAINT film_genres_film_fk FOREIGN KEY (film_id) REFERENCES films (id) ON DELETE CASCADE,
	CONSTRAINT film_genres_genre_fk FOREIGN KEY (genre_id) REFERENCES genres (id)
);

CREATE TABLE IF NOT EXISTS likes (
	film_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	PRIMARY KEY (film_id, user_id),
	CONSTRAINT likes_film_fk FOREIGN KEY (film_id) REFERENCES films (id) ON DELETE CASCADE,
	CONSTRAINT likes_user_fk FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS friendships (
	user_id   BIGINT NOT NULL,
	friend_id BIGINT NOT NULL,
	PRIMARY KEY (user_id, friend_id),
	CONSTRAINT friendships_user_fk FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
	CONSTRAINT friendships_friend_fk FOREIGN KEY (friend_id) REFERENCES users (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reviews (
	id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	film_id      BIGINT NOT NULL,
	user_id      BIGINT NOT NULL,
	content      TEXT NOT NULL,
	is_positive  BOOLEAN NOT NULL,
	useful_score INTEGER NOT NULL DEFAULT 0,
	CONSTRAINT reviews_film_fk FOREIGN KEY (film_id) REFERENCES films (id) ON DELETE CASCADE,
	CONSTRAINT reviews_user_fk FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS review_feedback (
	review_id BIGINT NOT NULL,
	user_id   BIGINT NOT NULL,
	is_useful BOOLEAN NOT NULL,
	PRIMARY KEY (review_id, user_id),
	CONSTRAINT review_feedback_review_fk FOREIGN KEY (review_id) REFERENCES reviews (id) ON DELETE CASCADE,
	CONSTRAINT review_feedback_user_fk FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_likes_user ON likes (user_id);
CREATE INDEX IF NOT EXISTS idx_film_genres_genre ON film_genres (genre_id);
CREATE INDEX IF NOT EXISTS idx_reviews_film_score ON reviews (film_id, useful_score DESC, id);
`

// EnsureSchema creates missing tables and seeds the genre dictionary.
// It is idempotent and safe to call on every start.
func EnsureSchema(ctx context.Context, conn *Connection) error {
	return conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("postgres: failed to create schema: %w", err)
		}

		values := make([]string, 0, len(catalog.DefaultGenres))
		args := make([]any, 0, 2*len(catalog.DefaultGenres))
		for i, g := range catalog.DefaultGenres {
			values = append(values, fmt.Sprintf("($%d, $%d)", 2*i+1, 2*i+2))
			args = append(args, int64(g.ID), g.Name)
		}
		query := "INSERT INTO genres (id, name) VALUES " + strings.Join(values, ", ") + " ON CONFLICT (id) DO NOTHING"
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: failed to seed genres: %w", err)
		}
		return nil
	})
}

// Truncate removes every catalog and relation row. Used by integration tests.
func Truncate(ctx context.Context, conn *Connection) error {
	_, err := conn.Exec(ctx, `TRUNCATE review_feedback, reviews, friendships, likes, film_genres, films, users RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate: %w", err)
	}
	return nil
}
