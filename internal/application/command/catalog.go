package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG COMMANDS
// Films, users and reviews. Partial updates go through the explicit
// catalog.*Update types; a review's useful score cannot be written here.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogHandler handles catalog writes.
type CatalogHandler struct {
	repos  catalog.Repositories
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(repos catalog.Repositories, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{repos: repos, logger: logger, now: time.Now}
}

// ─────────────────────────────────────────────────────────────────────────────
// Films
// ─────────────────────────────────────────────────────────────────────────────

// CreateFilmCommand contains the data to create a film.
type CreateFilmCommand struct {
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	Genres      []int64
}

func genreIDs(raw []int64) []shared.GenreID {
	out := make([]shared.GenreID, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for _, g := range raw {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, shared.GenreID(g))
	}
	return out
}

// CreateFilm validates and stores a new film.
func (h *CatalogHandler) CreateFilm(ctx context.Context, cmd CreateFilmCommand) (*catalog.Film, error) {
	film := &catalog.Film{
		Name:        cmd.Name,
		Description: cmd.Description,
		ReleaseDate: cmd.ReleaseDate,
		Duration:    cmd.Duration,
		Genres:      genreIDs(cmd.Genres),
	}
	if err := film.Validate(); err != nil {
		return nil, err
	}
	if err := h.repos.Films.Create(ctx, film); err != nil {
		return nil, shared.StoreError(domainName, "CreateFilm", err)
	}

	h.logger.Info("film created", slog.Int64("film_id", int64(film.ID)), slog.String("name", film.Name))
	return film, nil
}

// UpdateFilmCommand carries a partial film update.
type UpdateFilmCommand struct {
	FilmID int64
	Update catalog.FilmUpdate
}

// UpdateFilm applies the set fields to the stored film.
func (h *CatalogHandler) UpdateFilm(ctx context.Context, cmd UpdateFilmCommand) (*catalog.Film, error) {
	if err := requirePositive("UpdateFilm", "film id", cmd.FilmID); err != nil {
		return nil, err
	}
	stored, err := h.repos.Films.Get(ctx, shared.FilmID(cmd.FilmID))
	if err != nil {
		return nil, shared.StoreError(domainName, "UpdateFilm", err)
	}
	if genres, ok := cmd.Update.Genres.Get(); ok {
		cmd.Update.Genres = shared.Some(dedupeGenres(genres))
	}

	updated, err := cmd.Update.Apply(*stored)
	if err != nil {
		return nil, err
	}
	if err := h.repos.Films.Update(ctx, &updated); err != nil {
		return nil, shared.StoreError(domainName, "UpdateFilm", err)
	}
	return &updated, nil
}

func dedupeGenres(genres []shared.GenreID) []shared.GenreID {
	raw := make([]int64, len(genres))
	for i, g := range genres {
		raw[i] = int64(g)
	}
	return genreIDs(raw)
}

// DeleteFilm removes a film together with its likes, reviews and feedback.
func (h *CatalogHandler) DeleteFilm(ctx context.Context, filmID int64) error {
	if err := requirePositive("DeleteFilm", "film id", filmID); err != nil {
		return err
	}
	if err := h.repos.Films.Delete(ctx, shared.FilmID(filmID)); err != nil {
		return shared.StoreError(domainName, "DeleteFilm", err)
	}
	h.logger.Info("film deleted", slog.Int64("film_id", filmID))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

// CreateUserCommand contains the data to register a user.
type CreateUserCommand struct {
	Email    string
	Login    string
	Name     string
	Birthday time.Time
}

// CreateUser validates and stores a new user. A blank name falls back to the login.
func (h *CatalogHandler) CreateUser(ctx context.Context, cmd CreateUserCommand) (*catalog.User, error) {
	user := &catalog.User{
		Email:    strings.TrimSpace(cmd.Email),
		Login:    cmd.Login,
		Name:     cmd.Name,
		Birthday: cmd.Birthday,
	}
	if strings.TrimSpace(user.Name) == "" {
		user.Name = user.Login
	}
	if err := user.Validate(h.now()); err != nil {
		return nil, err
	}
	if err := h.repos.Users.Create(ctx, user); err != nil {
		return nil, shared.StoreError(domainName, "CreateUser", err)
	}

	h.logger.Info("user created", slog.Int64("user_id", int64(user.ID)), slog.String("login", user.Login))
	return user, nil
}

// UpdateUserCommand carries a partial user update.
type UpdateUserCommand struct {
	UserID int64
	Update catalog.UserUpdate
}

// UpdateUser applies the set fields to the stored user.
func (h *CatalogHandler) UpdateUser(ctx context.Context, cmd UpdateUserCommand) (*catalog.User, error) {
	if err := requirePositive("UpdateUser", "user id", cmd.UserID); err != nil {
		return nil, err
	}
	stored, err := h.repos.Users.Get(ctx, shared.UserID(cmd.UserID))
	if err != nil {
		return nil, shared.StoreError(domainName, "UpdateUser", err)
	}

	updated, err := cmd.Update.Apply(*stored, h.now())
	if err != nil {
		return nil, err
	}
	if err := h.repos.Users.Update(ctx, &updated); err != nil {
		return nil, shared.StoreError(domainName, "UpdateUser", err)
	}
	return &updated, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reviews
// ─────────────────────────────────────────────────────────────────────────────

// CreateReviewCommand contains the data to write a review.
type CreateReviewCommand struct {
	FilmID     int64
	UserID     int64
	Content    string
	IsPositive bool
}

// CreateReview stores a new review with a useful score of 0.
func (h *CatalogHandler) CreateReview(ctx context.Context, cmd CreateReviewCommand) (*catalog.Review, error) {
	if err := requirePositive("CreateReview", "film id", cmd.FilmID); err != nil {
		return nil, err
	}
	if err := requirePositive("CreateReview", "user id", cmd.UserID); err != nil {
		return nil, err
	}
	review, err := catalog.NewReview(shared.FilmID(cmd.FilmID), shared.UserID(cmd.UserID), cmd.Content, cmd.IsPositive)
	if err != nil {
		return nil, err
	}
	if err := requireFilm(ctx, h.repos.Films, "CreateReview", review.FilmID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, h.repos.Users, "CreateReview", review.UserID); err != nil {
		return nil, err
	}

	if err := h.repos.Reviews.Create(ctx, review); err != nil {
		return nil, shared.StoreError(domainName, "CreateReview", err)
	}

	h.logger.Info("review created",
		slog.Int64("review_id", int64(review.ID)),
		slog.Int64("film_id", cmd.FilmID),
		slog.Int64("user_id", cmd.UserID),
	)
	return review, nil
}

// UpdateReviewCommand carries a partial review update.
type UpdateReviewCommand struct {
	ReviewID int64
	Update   catalog.ReviewUpdate
}

// UpdateReview changes content and polarity. The useful score is left as stored.
func (h *CatalogHandler) UpdateReview(ctx context.Context, cmd UpdateReviewCommand) (*catalog.Review, error) {
	if err := requirePositive("UpdateReview", "review id", cmd.ReviewID); err != nil {
		return nil, err
	}
	stored, err := h.repos.Reviews.Get(ctx, shared.ReviewID(cmd.ReviewID))
	if err != nil {
		return nil, shared.StoreError(domainName, "UpdateReview", err)
	}

	updated, err := cmd.Update.Apply(*stored)
	if err != nil {
		return nil, err
	}
	if err := h.repos.Reviews.UpdateContent(ctx, &updated); err != nil {
		return nil, shared.StoreError(domainName, "UpdateReview", err)
	}
	return &updated, nil
}

// DeleteReview removes a review; its feedback rows go with it.
func (h *CatalogHandler) DeleteReview(ctx context.Context, reviewID int64) error {
	if err := requirePositive("DeleteReview", "review id", reviewID); err != nil {
		return err
	}
	if err := h.repos.Reviews.Delete(ctx, shared.ReviewID(reviewID)); err != nil {
		return shared.StoreError(domainName, "DeleteReview", err)
	}
	h.logger.Info("review deleted", slog.Int64("review_id", reviewID))
	return nil
}
