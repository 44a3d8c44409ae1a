package services

import (
	"context"
	"errors"

	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// notFoundMessage is the per-item error text batch and repair results carry
// for absent documents.
const notFoundMessage = "not found"

// codeConcurrentWrite marks a conflict that is safe to retry.
const codeConcurrentWrite = "CONCURRENT_WRITE"

// storeError translates a store error into the application taxonomy.
// resource names the document for not-found messages.
func storeError(err error, operation, resource string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.GetAppError(err) != nil:
		return err
	case errors.Is(err, persistence.ErrNotFound):
		return apperrors.NewNotFoundError(resource).WithCause(err)
	case errors.Is(err, persistence.ErrUnavailable):
		return apperrors.NewUnavailableError("document store").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return apperrors.NewDatabaseError(operation, err)
	}
}

// itemError renders a per-item failure for itemized results.
func itemError(err error) string {
	if errors.Is(err, persistence.ErrNotFound) || apperrors.IsNotFound(err) {
		return notFoundMessage
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
