package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by the stores when a write hits a constraint.
// Callers match them with errors.Is.
var (
	ErrDuplicateSlug   = errors.New("store: duplicate slug")
	ErrDuplicateName   = errors.New("store: duplicate name")
	ErrUnknownCategory = errors.New("store: unknown category")
	ErrCategoryInUse   = errors.New("store: category in use")
)

// PostgreSQL error codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translate maps constraint violations to the sentinel errors above. fkErr
// is returned for foreign key violations since its meaning depends on which
// side of the relation was written. Other errors pass through unchanged.
func translate(err error, fkErr error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == "categories_name_key" {
			return ErrDuplicateName
		}
		return ErrDuplicateSlug
	case codeForeignKeyViolation:
		if fkErr != nil {
			return fkErr
		}
	}
	return err
}
