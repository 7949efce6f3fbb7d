// Package query contains read operations (CQRS - Queries).
package query

import (
	"time"

	"github.com/filmhub/filmhub-core/internal/domain/catalog"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

const (
	domainName = "query"

	// DefaultCount - размер выборки, если клиент не указал положительный count.
	DefaultCount = 10
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// Представления сущностей каталога для внешнего слоя.
// ══════════════════════════════════════════════════════════════════════════════

// GenreDTO - жанр фильма.
type GenreDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FilmDTO - фильм каталога.
type FilmDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleaseDate string     `json:"release_date"`
	Duration    int        `json:"duration"`
	Genres      []GenreDTO `json:"genres"`

	// Likes - число лайков; заполняется только в рейтинге популярности.
	Likes *int `json:"likes,omitempty"`
}

// UserDTO - пользователь.
type UserDTO struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Birthday string `json:"birthday,omitempty"`
}

// ReviewDTO - отзыв с рейтингом полезности.
type ReviewDTO struct {
	ID          int64  `json:"id"`
	FilmID      int64  `json:"film_id"`
	UserID      int64  `json:"user_id"`
	Content     string `json:"content"`
	IsPositive  bool   `json:"is_positive"`
	UsefulScore int    `json:"useful"`
}

// genreNames - справочник жанров по id.
type genreNames map[shared.GenreID]string

func newGenreNames(genres []*catalog.Genre) genreNames {
	names := make(genreNames, len(genres))
	for _, g := range genres {
		names[g.ID] = g.Name
	}
	return names
}

// NewFilmDTO собирает DTO фильма. names может быть nil, тогда имена жанров пустые.
func NewFilmDTO(f *catalog.Film, names map[shared.GenreID]string) FilmDTO {
	dto := FilmDTO{
		ID:          int64(f.ID),
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate.Format(time.DateOnly),
		Duration:    f.Duration,
		Genres:      make([]GenreDTO, 0, len(f.Genres)),
	}
	for _, g := range f.Genres {
		dto.Genres = append(dto.Genres, GenreDTO{ID: int64(g), Name: names[g]})
	}
	return dto
}

// NewUserDTO собирает DTO пользователя.
func NewUserDTO(u *catalog.User) UserDTO {
	dto := UserDTO{
		ID:    int64(u.ID),
		Email: u.Email,
		Login: u.Login,
		Name:  u.DisplayName(),
	}
	if !u.Birthday.IsZero() {
		dto.Birthday = u.Birthday.Format(time.DateOnly)
	}
	return dto
}

// NewReviewDTO собирает DTO отзыва.
func NewReviewDTO(r *catalog.Review) ReviewDTO {
	return ReviewDTO{
		ID:          int64(r.ID),
		FilmID:      int64(r.FilmID),
		UserID:      int64(r.UserID),
		Content:     r.Content,
		IsPositive:  r.IsPositive,
		UsefulScore: r.UsefulScore,
	}
}

func countOrDefault(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	return count
}

func requirePositive(op, field string, id int64) error {
	if id <= 0 {
		return shared.InvalidArgumentf(domainName, op, "%s must be positive, got %d", field, id)
	}
	return nil
}
