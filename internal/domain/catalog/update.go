package catalog

import (
	"time"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTIAL UPDATES
// Each mutable field is an explicit Optional. Absent fields keep the stored value.
// ══════════════════════════════════════════════════════════════════════════════

// FilmUpdate describes a partial change to a film.
type FilmUpdate struct {
	Name        shared.Optional[string]
	Description shared.Optional[string]
	ReleaseDate shared.Optional[time.Time]
	Duration    shared.Optional[int]
	Genres      shared.Optional[[]shared.GenreID]
}

// IsEmpty reports whether no field is set.
func (u FilmUpdate) IsEmpty() bool {
	return !u.Name.IsSet() && !u.Description.IsSet() && !u.ReleaseDate.IsSet() &&
		!u.Duration.IsSet() && !u.Genres.IsSet()
}

// Apply returns a copy of f with the set fields replaced and validates the result.
// f itself is left untouched.
func (u FilmUpdate) Apply(f Film) (Film, error) {
	u.Name.ApplyTo(&f.Name)
	u.Description.ApplyTo(&f.Description)
	u.ReleaseDate.ApplyTo(&f.ReleaseDate)
	u.Duration.ApplyTo(&f.Duration)
	if genres, ok := u.Genres.Get(); ok {
		f.Genres = append([]shared.GenreID(nil), genres...)
	} else {
		f.Genres = append([]shared.GenreID(nil), f.Genres...)
	}
	if err := f.Validate(); err != nil {
		return Film{}, err
	}
	return f, nil
}

// UserUpdate describes a partial change to a user.
type UserUpdate struct {
	Email    shared.Optional[string]
	Login    shared.Optional[string]
	Name     shared.Optional[string]
	Birthday shared.Optional[time.Time]
}

// Apply returns a copy of usr with the set fields replaced and validates the result.
func (u UserUpdate) Apply(usr User, now time.Time) (User, error) {
	u.Email.ApplyTo(&usr.Email)
	u.Login.ApplyTo(&usr.Login)
	u.Name.ApplyTo(&usr.Name)
	u.Birthday.ApplyTo(&usr.Birthday)
	if err := usr.Validate(now); err != nil {
		return User{}, err
	}
	return usr, nil
}

// ReviewUpdate describes a partial change to a review.
// There is intentionally no UsefulScore field: the score only moves through feedback.
type ReviewUpdate struct {
	Content    shared.Optional[string]
	IsPositive shared.Optional[bool]
}

// Apply returns a copy of r with the set fields replaced and validates the result.
func (u ReviewUpdate) Apply(r Review) (Review, error) {
	u.Content.ApplyTo(&r.Content)
	u.IsPositive.ApplyTo(&r.IsPositive)
	if err := r.Validate(); err != nil {
		return Review{}, err
	}
	return r, nil
}
