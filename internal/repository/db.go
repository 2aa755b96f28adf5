package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/kopesha/loan-core/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// mapConcurrencyError converts Postgres serialization failures and deadlocks
// into the retryable domain error.
func mapConcurrencyError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected:
			return domain.ErrConcurrencyConflict
		}
	}
	return err
}
