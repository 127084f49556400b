// Package apperrors holds the error types shared by the picking services
// and the HTTP layer. Match sentinels with errors.Is and typed errors with
// errors.As.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrBatchDecided      = errors.New("batch already decided")
	ErrBatchExpired      = errors.New("batch expired")
	ErrInvalidDecision   = errors.New("invalid decision")
	ErrDecisionMismatch  = errors.New("decision does not match reconciliation result")
	ErrStaleBatch        = errors.New("store changed since the batch was reviewed")
	ErrSnapshotExists    = errors.New("snapshot already exists")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotMismatch  = errors.New("live store no longer matches snapshot")
	ErrUnauthorized      = errors.New("unauthorized")
)

// SchemaError reports required columns missing from an uploaded file.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// StoreReadError wraps a failed read from the store collaborator.
type StoreReadError struct {
	Op  string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read %s: %v", e.Op, e.Err)
}

func (e *StoreReadError) Unwrap() error {
	return e.Err
}

// StoreWriteError wraps a write the store collaborator rejected.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// PartialArchiveError means the snapshot was written but the live store
// was not cleared. Retrying the reset alone finishes the archive.
type PartialArchiveError struct {
	SnapshotName string
	RowCount     int
	Err          error
}

func (e *PartialArchiveError) Error() string {
	return fmt.Sprintf("snapshot %q holds %d rows but live store was not cleared: %v",
		e.SnapshotName, e.RowCount, e.Err)
}

func (e *PartialArchiveError) Unwrap() error {
	return e.Err
}

func Read(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreReadError{Op: op, Err: err}
}

func Write(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreWriteError{Op: op, Err: err}
}

// HTTPStatus maps an error to the response code the API returns for it.
func HTTPStatus(err error) int {
	var schemaErr *SchemaError
	var readErr *StoreReadError
	var writeErr *StoreWriteError
	var partialErr *PartialArchiveError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &partialErr):
		return http.StatusBadGateway
	case errors.As(err, &readErr), errors.As(err, &writeErr):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, ErrBatchNotFound), errors.Is(err, ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBatchExpired):
		return http.StatusGone
	case errors.Is(err, ErrBatchDecided), errors.Is(err, ErrDecisionMismatch),
		errors.Is(err, ErrStaleBatch), errors.Is(err, ErrSnapshotExists),
		errors.Is(err, ErrSnapshotMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
