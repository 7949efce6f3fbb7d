package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmhub/filmhub-core/internal/domain/relation"
	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

const domainName = "postgres"

// ══════════════════════════════════════════════════════════════════════════════
// ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// IsUniqueViolation checks if the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// IsForeignKeyViolation checks if the error is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// reference ties a named foreign key to the entity and id a statement tried to reference.
type reference struct {
	constraint string
	entity     string
	id         int64
}

func ref[T ~int64](constraint, entity string, id T) reference {
	return reference{constraint: constraint, entity: entity, id: int64(id)}
}

// classify maps driver errors onto the domain taxonomy.
// Foreign key violations become relation.ReferenceError naming the missing id, unique
// violations become AlreadyExists, everything else is reported as Unavailable.
func classify(op string, err error, refs ...reference) error {
	if err == nil {
		return nil
	}
	if IsForeignKeyViolation(err) {
		name := constraintName(err)
		for _, r := range refs {
			if r.constraint == name {
				return &relation.ReferenceError{Entity: r.entity, ID: r.id}
			}
		}
		if len(refs) > 0 {
			return &relation.ReferenceError{Entity: refs[0].entity, ID: refs[0].id}
		}
		return shared.WrapError(domainName, op, shared.ErrNotFound, "referenced row does not exist", err)
	}
	if IsUniqueViolation(err) {
		return shared.WrapError(domainName, op, shared.ErrAlreadyExists, uniqueMessage(constraintName(err)), err)
	}
	return shared.Unavailable(domainName, op, err)
}

func uniqueMessage(constraint string) string {
	switch constraint {
	case "users_email_key":
		return "email is already taken"
	case "users_login_key":
		return "login is already taken"
	default:
		return "duplicate value"
	}
}
