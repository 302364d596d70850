package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Kind string

const (
	UniqueViolation    Kind = "Unique_Violation"
	IntegrityViolation Kind = "Integrity_Violation"
	CheckViolation     Kind = "Check_Violation"
	NoMatch            Kind = "No_Match_Error"
	Unknown            Kind = "Unknown_Error"
)

// QueryError is the only error type the store returns.
type QueryError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// KindOf returns Unknown for errors that did not come from the store.
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return Unknown
}

func noMatch(msg string) error {
	return &QueryError{Kind: NoMatch, Message: msg}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Kind: classify(err), Message: op, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return UniqueViolation
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return IntegrityViolation
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return CheckViolation
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NoMatch
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code))
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return UniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return IntegrityViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return CheckViolation
	}
	return Unknown
}

func fromSQLState(code string) Kind {
	switch code {
	case pgUniqueViolation:
		return UniqueViolation
	case pgForeignKeyViolation:
		return IntegrityViolation
	case pgCheckViolation:
		return CheckViolation
	default:
		return Unknown
	}
}
