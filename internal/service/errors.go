package service

import (
	"errors"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// translate turns repository sentinels and domain rule violations into the
// typed errors the HTTP boundary understands. resource names the entity in
// not-found messages. Errors that are already typed pass through.
func translate(err error, resource string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.NotFound(resource)
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return apperrors.AlreadyExists("Product already reviewed")
	case errors.Is(err, domain.ErrCategoryInUse):
		return apperrors.Conflict("Category is used by existing products")
	case errors.Is(err, domain.ErrOrderAlreadyPaid):
		return apperrors.Conflict("Order already paid")
	case errors.Is(err, domain.ErrOrderAlreadyDelivered):
		return apperrors.Conflict("Order already delivered")
	case errors.Is(err, domain.ErrOrderNotPaid):
		return apperrors.Conflict("Order is not paid")
	default:
		return err
	}
}
