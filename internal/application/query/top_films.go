package query

import (
	"context"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/popularity"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP FILMS QUERY
// Самые популярные фильмы: число лайков по убыванию, при равенстве - больший id.
// Фильмы без лайков тоже участвуют (с нулём).
// ══════════════════════════════════════════════════════════════════════════════

// latestYear - последний год, представимый датой выхода в формате YYYY-MM-DD.
const latestYear = 9999

// TopFilmsQuery содержит параметры рейтинга.
type TopFilmsQuery struct {
	// Count - размер выборки; <= 0 заменяется на DefaultCount.
	Count int

	// GenreID - фильтр по жанру (nil = без фильтра).
	GenreID *int64

	// Year - фильтр по году выхода (nil = без фильтра).
	Year *int
}

// Validate проверяет фильтры и подставляет значение по умолчанию.
func (q *TopFilmsQuery) Validate() error {
	q.Count = countOrDefault(q.Count)
	if q.GenreID != nil && *q.GenreID <= 0 {
		return shared.InvalidArgumentf(domainName, "TopFilms", "genre id must be positive, got %d", *q.GenreID)
	}
	if q.Year != nil {
		if y := *q.Year; y < catalog.EarliestReleaseDate.Year() || y > latestYear {
			return shared.InvalidArgumentf(domainName, "TopFilms", "year must be between %d and %d, got %d",
				catalog.EarliestReleaseDate.Year(), latestYear, y)
		}
	}
	return nil
}

// TopFilmsHandler обрабатывает запрос рейтинга.
type TopFilmsHandler struct {
	ranker *popularity.Ranker
	films  catalog.FilmRepository
	genres catalog.GenreRepository
}

// NewTopFilmsHandler создаёт новый обработчик.
func NewTopFilmsHandler(ranker *popularity.Ranker, films catalog.FilmRepository, genres catalog.GenreRepository) *TopFilmsHandler {
	return &TopFilmsHandler{ranker: ranker, films: films, genres: genres}
}

// Handle возвращает фильмы в порядке рейтинга вместе с числом лайков.
func (h *TopFilmsHandler) Handle(ctx context.Context, query TopFilmsQuery) ([]FilmDTO, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	q := popularity.Query{Limit: query.Count, Year: query.Year}
	if query.GenreID != nil {
		g := shared.GenreID(*query.GenreID)
		q.GenreID = &g
	}

	ranked, err := h.ranker.Rank(ctx, q)
	if err != nil {
		return nil, shared.StoreError(domainName, "TopFilms", err)
	}

	genres, err := h.genres.List(ctx)
	if err != nil {
		return nil, shared.StoreError(domainName, "TopFilms", err)
	}
	names := newGenreNames(genres)

	out := make([]FilmDTO, 0, len(ranked))
	for _, r := range ranked {
		film, err := h.films.Get(ctx, r.FilmID)
		if shared.IsNotFound(err) {
			// Фильм удалён между ранжированием и чтением.
			continue
		}
		if err != nil {
			return nil, shared.StoreError(domainName, "TopFilms", err)
		}
		dto := NewFilmDTO(film, names)
		likes := r.Likes
		dto.Likes = &likes
		out = append(out, dto)
	}
	return out, nil
}
