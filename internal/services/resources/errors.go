package resources

import (
	"errors"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

var (
	// ErrForbidden is returned when the caller does not own the addressed resource.
	ErrForbidden = errors.New("forbidden")
	// ErrResourceNotFound is returned when no resource exists under the requested id.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrUserNotFound is returned when the principal no longer resolves to an account.
	ErrUserNotFound = iam.ErrUserNotFound
	// ErrStaleVersion is returned when the caller's version no longer matches the stored row.
	ErrStaleVersion = repository.ErrStaleVersion
	// ErrValidation marks invalid resource fields and filter expressions.
	ErrValidation = models.ErrInvalid
)
