// Package shared contains common domain types, errors and value objects
// that are used across all domain packages.
package shared

import "strconv"

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a user.
type UserID int64

// IsValid checks if the user ID is valid (positive number).
func (id UserID) IsValid() bool { return id > 0 }

// String returns the string representation.
func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// FilmID identifies a film.
type FilmID int64

// IsValid checks if the film ID is valid (positive number).
func (id FilmID) IsValid() bool { return id > 0 }

// String returns the string representation.
func (id FilmID) String() string { return strconv.FormatInt(int64(id), 10) }

// ReviewID identifies a review.
type ReviewID int64

// IsValid checks if the review ID is valid (positive number).
func (id ReviewID) IsValid() bool { return id > 0 }

// String returns the string representation.
func (id ReviewID) String() string { return strconv.FormatInt(int64(id), 10) }

// GenreID identifies a genre tag.
type GenreID int64

// IsValid checks if the genre ID is valid (positive number).
func (id GenreID) IsValid() bool { return id > 0 }

// String returns the string representation.
func (id GenreID) String() string { return strconv.FormatInt(int64(id), 10) }
