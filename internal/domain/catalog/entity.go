// Package catalog contains the film, user, review and genre entities that the
// relation layer references by id, together with their explicit partial updates.
package catalog

import (
	"strings"
	"time"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxDescriptionLength limits film descriptions.
	MaxDescriptionLength = 200

	// domainName is used in DomainError values produced by this package.
	domainName = "catalog"
)

// EarliestReleaseDate is the first public film screening; no film may be released before it.
var EarliestReleaseDate = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

// ══════════════════════════════════════════════════════════════════════════════
// FILM
// ══════════════════════════════════════════════════════════════════════════════

// Film is a catalog entry users can like and review.
// The like count is never stored on the film; it is derived at ranking time.
type Film struct {
	ID          shared.FilmID
	Name        string
	Description string
	ReleaseDate time.Time
	// Duration in minutes.
	Duration int
	Genres   []shared.GenreID
}

// Validate checks the film fields that must hold before persisting.
func (f *Film) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return shared.InvalidArgumentf(domainName, "Film.Validate", "film name must not be blank")
	}
	if len([]rune(f.Description)) > MaxDescriptionLength {
		return shared.InvalidArgumentf(domainName, "Film.Validate",
			"film description exceeds %d characters", MaxDescriptionLength)
	}
	if f.ReleaseDate.Before(EarliestReleaseDate) {
		return shared.InvalidArgumentf(domainName, "Film.Validate",
			"release date %s is before %s", f.ReleaseDate.Format(time.DateOnly), EarliestReleaseDate.Format(time.DateOnly))
	}
	if f.Duration <= 0 {
		return shared.InvalidArgumentf(domainName, "Film.Validate", "duration must be positive, got %d", f.Duration)
	}
	for _, g := range f.Genres {
		if !g.IsValid() {
			return shared.InvalidArgumentf(domainName, "Film.Validate", "invalid genre id %d", g)
		}
	}
	return nil
}

// ReleaseYear returns the year the film was released.
func (f *Film) ReleaseYear() int {
	return f.ReleaseDate.Year()
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User is a catalog member who likes films, follows friends and writes reviews.
type User struct {
	ID       shared.UserID
	Email    string
	Login    string
	Name     string
	Birthday time.Time
}

// DisplayName returns the name, falling back to the login when the name is blank.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) == "" {
		return u.Login
	}
	return u.Name
}

// Validate checks the user fields that must hold before persisting.
func (u *User) Validate(now time.Time) error {
	if !strings.Contains(u.Email, "@") {
		return shared.InvalidArgumentf(domainName, "User.Validate", "email %q is not valid", u.Email)
	}
	if strings.TrimSpace(u.Login) == "" || strings.ContainsAny(u.Login, " \t\n") {
		return shared.InvalidArgumentf(domainName, "User.Validate", "login %q must be non-empty and contain no spaces", u.Login)
	}
	if u.Birthday.After(now) {
		return shared.InvalidArgumentf(domainName, "User.Validate", "birthday is in the future")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW
// ══════════════════════════════════════════════════════════════════════════════

// Review is a user's written opinion about a film.
// UsefulScore is a denormalized counter owned by the feedback engine; it starts at 0
// and is never written through catalog updates.
type Review struct {
	ID          shared.ReviewID
	FilmID      shared.FilmID
	UserID      shared.UserID
	Content     string
	IsPositive  bool
	UsefulScore int
}

// NewReview creates a review with a zero useful score.
func NewReview(filmID shared.FilmID, userID shared.UserID, content string, isPositive bool) (*Review, error) {
	r := &Review{
		FilmID:     filmID,
		UserID:     userID,
		Content:    content,
		IsPositive: isPositive,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the review fields that must hold before persisting.
func (r *Review) Validate() error {
	if !r.FilmID.IsValid() {
		return shared.InvalidArgumentf(domainName, "Review.Validate", "invalid film id %d", r.FilmID)
	}
	if !r.UserID.IsValid() {
		return shared.InvalidArgumentf(domainName, "Review.Validate", "invalid user id %d", r.UserID)
	}
	if strings.TrimSpace(r.Content) == "" {
		return shared.InvalidArgumentf(domainName, "Review.Validate", "review content must not be blank")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GENRE
// ══════════════════════════════════════════════════════════════════════════════

// Genre is a read-only tag films can carry.
type Genre struct {
	ID   shared.GenreID
	Name string
}

// DefaultGenres is the genre dictionary every backend starts with.
var DefaultGenres = []Genre{
	{ID: 1, Name: "Comedy"},
	{ID: 2, Name: "Drama"},
	{ID: 3, Name: "Cartoon"},
	{ID: 4, Name: "Thriller"},
	{ID: 5, Name: "Documentary"},
	{ID: 6, Name: "Action"},
}
