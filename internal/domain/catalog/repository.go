package catalog

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// Get methods return an error matching shared.ErrNotFound for unknown ids.
// ══════════════════════════════════════════════════════════════════════════════

// FilmRepository stores films and their genre tags.
type FilmRepository interface {
	// Create assigns the id and stores the film with its genres.
	Create(ctx context.Context, film *Film) error

	// Get returns the film by id.
	Get(ctx context.Context, id shared.FilmID) (*Film, error)

	// Update replaces the stored film fields and genre tags.
	Update(ctx context.Context, film *Film) error

	// Delete removes the film; likes, genre tags, reviews and their feedback cascade.
	Delete(ctx context.Context, id shared.FilmID) error

	// List returns all films ordered by id.
	List(ctx context.Context) ([]*Film, error)

	// Exists reports whether a film with the id is stored.
	Exists(ctx context.Context, id shared.FilmID) (bool, error)
}

// UserRepository stores users.
type UserRepository interface {
	// Create assigns the id and stores the user.
	// Returns shared.ErrAlreadyExists when email or login is taken.
	Create(ctx context.Context, user *User) error

	Get(ctx context.Context, id shared.UserID) (*User, error)

	// Update replaces the stored user fields.
	Update(ctx context.Context, user *User) error

	// GetMany returns users in the order of ids, skipping unknown ids.
	GetMany(ctx context.Context, ids []shared.UserID) ([]*User, error)

	Exists(ctx context.Context, id shared.UserID) (bool, error)
}

// ReviewRepository stores reviews. It never writes UsefulScore except on Create,
// where the score is always 0.
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error

	Get(ctx context.Context, id shared.ReviewID) (*Review, error)

	// UpdateContent writes Content and IsPositive only.
	UpdateContent(ctx context.Context, review *Review) error

	// Delete removes the review; its feedback rows cascade.
	Delete(ctx context.Context, id shared.ReviewID) error

	// ListByFilm returns reviews ordered by useful score desc, then id asc.
	// A nil filmID lists reviews of all films.
	ListByFilm(ctx context.Context, filmID *shared.FilmID, limit int) ([]*Review, error)

	Exists(ctx context.Context, id shared.ReviewID) (bool, error)
}

// GenreRepository reads the genre dictionary.
type GenreRepository interface {
	List(ctx context.Context) ([]*Genre, error)
	Get(ctx context.Context, id shared.GenreID) (*Genre, error)
}

// Repositories groups the catalog repositories of one backend.
type Repositories struct {
	Films   FilmRepository
	Users   UserRepository
	Reviews ReviewRepository
	Genres  GenreRepository
}
