package usecase

import (
	"context"
	"errors"

	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/validation"
)

// callerWithRole returns the identity attached by the auth middleware and
// checks that it currently holds role. An empty role accepts any caller.
func callerWithRole(ctx context.Context, role string) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return domain.Identity{}, apperror.Unauthorized("User not authenticated")
	}
	if role != "" && id.Role != role {
		return domain.Identity{}, apperror.Forbidden("Access denied")
	}
	return id, nil
}

func invalid(err error) error {
	return apperror.BadRequest(validation.Message(err))
}

// storeError maps repository sentinels onto client errors. An empty message
// means the sentinel is unexpected for the call and is treated as internal.
func storeError(err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound) && notFound != "":
		return apperror.NotFound(notFound)
	case errors.Is(err, domain.ErrConflict) && conflict != "":
		return apperror.Conflict(conflict)
	}
	return apperror.Internal(err)
}
