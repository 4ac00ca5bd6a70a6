package dberr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness conflict.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition indicates a referenced parent row is missing.
	ErrPrecondition = errors.New("precondition failed")
	// ErrRetryable indicates a transient failure worth retrying.
	ErrRetryable = errors.New("retryable")
)

// Map classifies driver and gorm failures into the sentinel taxonomy so
// callers can branch with errors.Is instead of matching driver codes.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %v", op, ErrRetryable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w: %v", op, ErrConflict, err) // unique_violation
		case "23503":
			return fmt.Errorf("%s: %w: %v", op, ErrPrecondition, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%s: %w: %v", op, ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "lock timeout"):
		return fmt.Errorf("%s: %w: %v", op, ErrRetryable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
