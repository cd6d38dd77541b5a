package engine

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	ErrUnknownTable        ErrorKind = "unknown table"
	ErrUnknownColumn       ErrorKind = "unknown column"
	ErrConstraintViolation ErrorKind = "constraint violation"
	ErrMissingWhereClause  ErrorKind = "missing where clause"
	ErrArityMismatch       ErrorKind = "arity mismatch"
	ErrUnsupportedOperator ErrorKind = "unsupported operator"
)

// QueryError is the failure shape for every schema or constraint problem
// the engine can hit. It is always recoverable: the caller fixes the
// query and tries again.
type QueryError struct {
	Kind ErrorKind
	msg  string
}

func NewQueryError(kind ErrorKind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *QueryError) Error() string { return e.msg }

func (e *QueryError) Status() int {
	switch e.Kind {
	case ErrUnknownTable, ErrUnknownColumn:
		return http.StatusNotFound
	case ErrConstraintViolation:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

// IsKind reports whether err is a QueryError of the given kind,
// unwrapping any context added along the way.
func IsKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}

func UnknownTableError(name string) *QueryError {
	return NewQueryError(ErrUnknownTable, "Table %s does not exist", name)
}

func UnknownColumnError(table, column string) *QueryError {
	return NewQueryError(ErrUnknownColumn, "Unknown column %s in table %s", column, table)
}

func MissingWhereClauseError(op string) *QueryError {
	return NewQueryError(ErrMissingWhereClause, "%s requires a WHERE clause", op)
}
