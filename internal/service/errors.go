// Package service holds the business logic between the HTTP handlers and the
// store and adapters. Every idea operation is scoped to the calling user.
package service

import (
	"errors"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/store"
)

// Service errors.
var (
	ErrIdeaNotFound = domainerrors.NotFound("idea not found")
	ErrUserNotFound = domainerrors.NotFound("user not found")
)

// mapStoreError turns store sentinels into coded domain errors.
// notFound is returned for store.ErrNotFound.
func mapStoreError(err error, notFound *domainerrors.Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrAlreadyExists):
		var storeErr *store.Error
		msg := "already exists"
		if errors.As(err, &storeErr) {
			msg = storeErr.Message
		}
		return domainerrors.Conflict(msg)
	default:
		return err
	}
}
