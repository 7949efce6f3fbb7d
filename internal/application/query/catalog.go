package query

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG QUERIES
// Чтение фильмов, пользователей, жанров и отзывов.
// ══════════════════════════════════════════════════════════════════════════════

// ListReviewsQuery содержит параметры списка отзывов.
type ListReviewsQuery struct {
	// FilmID - фильм; nil = отзывы по всем фильмам.
	FilmID *int64

	// Count - размер выборки; <= 0 заменяется на DefaultCount.
	Count int
}

// Validate проверяет параметры и подставляет значение по умолчанию.
func (q *ListReviewsQuery) Validate() error {
	q.Count = countOrDefault(q.Count)
	if q.FilmID != nil {
		return requirePositive("ListReviews", "film id", *q.FilmID)
	}
	return nil
}

// CatalogHandler обрабатывает запросы к каталогу.
type CatalogHandler struct {
	repos catalog.Repositories
}

// NewCatalogHandler создаёт новый обработчик.
func NewCatalogHandler(repos catalog.Repositories) *CatalogHandler {
	return &CatalogHandler{repos: repos}
}

// GetFilm возвращает фильм по id.
func (h *CatalogHandler) GetFilm(ctx context.Context, id int64) (*FilmDTO, error) {
	if err := requirePositive("GetFilm", "film id", id); err != nil {
		return nil, err
	}
	film, err := h.repos.Films.Get(ctx, shared.FilmID(id))
	if err != nil {
		return nil, shared.StoreError(domainName, "GetFilm", err)
	}
	names, err := h.genreNames(ctx, "GetFilm")
	if err != nil {
		return nil, err
	}
	dto := NewFilmDTO(film, names)
	return &dto, nil
}

// ListFilms возвращает все фильмы по возрастанию id.
func (h *CatalogHandler) ListFilms(ctx context.Context) ([]FilmDTO, error) {
	films, err := h.repos.Films.List(ctx)
	if err != nil {
		return nil, shared.StoreError(domainName, "ListFilms", err)
	}
	names, err := h.genreNames(ctx, "ListFilms")
	if err != nil {
		return nil, err
	}
	out := make([]FilmDTO, 0, len(films))
	for _, f := range films {
		out = append(out, NewFilmDTO(f, names))
	}
	return out, nil
}

// GetUser возвращает пользователя по id.
func (h *CatalogHandler) GetUser(ctx context.Context, id int64) (*UserDTO, error) {
	if err := requirePositive("GetUser", "user id", id); err != nil {
		return nil, err
	}
	user, err := h.repos.Users.Get(ctx, shared.UserID(id))
	if err != nil {
		return nil, shared.StoreError(domainName, "GetUser", err)
	}
	dto := NewUserDTO(user)
	return &dto, nil
}

// ListGenres возвращает справочник жанров.
func (h *CatalogHandler) ListGenres(ctx context.Context) ([]GenreDTO, error) {
	genres, err := h.repos.Genres.List(ctx)
	if err != nil {
		return nil, shared.StoreError(domainName, "ListGenres", err)
	}
	out := make([]GenreDTO, 0, len(genres))
	for _, g := range genres {
		out = append(out, GenreDTO{ID: int64(g.ID), Name: g.Name})
	}
	return out, nil
}

// GetReview возвращает отзыв с текущим рейтингом полезности.
func (h *CatalogHandler) GetReview(ctx context.Context, id int64) (*ReviewDTO, error) {
	if err := requirePositive("GetReview", "review id", id); err != nil {
		return nil, err
	}
	review, err := h.repos.Reviews.Get(ctx, shared.ReviewID(id))
	if err != nil {
		return nil, shared.StoreError(domainName, "GetReview", err)
	}
	dto := NewReviewDTO(review)
	return &dto, nil
}

// ListReviews возвращает отзывы: рейтинг полезности по убыванию, затем id по возрастанию.
func (h *CatalogHandler) ListReviews(ctx context.Context, query ListReviewsQuery) ([]ReviewDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var filmID *shared.FilmID
	if query.FilmID != nil {
		id := shared.FilmID(*query.FilmID)
		ok, err := h.repos.Films.Exists(ctx, id)
		if err != nil {
			return nil, shared.StoreError(domainName, "ListReviews", err)
		}
		if !ok {
			return nil, shared.NotFoundf(domainName, "ListReviews", "film %d not found", id)
		}
		filmID = &id
	}

	reviews, err := h.repos.Reviews.ListByFilm(ctx, filmID, query.Count)
	if err != nil {
		return nil, shared.StoreError(domainName, "ListReviews", err)
	}
	out := make([]ReviewDTO, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, NewReviewDTO(r))
	}
	return out, nil
}

func (h *CatalogHandler) genreNames(ctx context.Context, op string) (genreNames, error) {
	genres, err := h.repos.Genres.List(ctx)
	if err != nil {
		return nil, shared.StoreError(domainName, op, err)
	}
	return newGenreNames(genres), nil
}
