// Package services holds the hunt's business logic. Services are plain
// structs over a store.Store with injected clock and logger.
package services

import (
	"errors"

	"scavenger-hunt/apperr"
	"scavenger-hunt/store"
)

// storeErr maps store.ErrNotFound to a NOT_FOUND error carrying msg and wraps
// anything else as INTERNAL.
func storeErr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal("storage error", err)
}
