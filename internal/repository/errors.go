package repository

import (
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// ErrAlreadyActive is returned when an assignment pair is already active.
var ErrAlreadyActive = errors.New("assignment already active")

// IsUniqueViolation reports whether err is a postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
