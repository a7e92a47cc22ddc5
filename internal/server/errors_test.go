package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{err: models.Invalid("title", "is required"), status: http.StatusBadRequest, message: "validation failed"},
		{err: iam.ErrEmailTaken, status: http.StatusConflict, message: "email already registered"},
		{err: iam.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "invalid credentials"},
		{err: iam.ErrInvalidRefreshToken, status: http.StatusUnauthorized, message: "invalid refresh token"},
		{err: fmt.Errorf("%w: bad sig", iam.ErrUnauthenticated), status: http.StatusUnauthorized, message: "unauthenticated"},
		{err: fmt.Errorf("Todo x: %w", resources.ErrForbidden), status: http.StatusNotFound, message: "resource not found"},
		{err: fmt.Errorf("Todo x: %w", resources.ErrResourceNotFound), status: http.StatusNotFound, message: "resource not found"},
		{err: iam.ErrUserNotFound, status: http.StatusNotFound, message: "user not found"},
		{err: fmt.Errorf("x: %w", repository.ErrStaleVersion), status: http.StatusConflict, message: "version conflict"},
		{err: fmt.Errorf("list: %w", context.DeadlineExceeded), status: http.StatusServiceUnavailable, message: "store timeout"},
		{err: errors.New("boom"), status: http.StatusInternalServerError, message: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestClassify_ForbiddenLooksLikeMissing(t *testing.T) {
	fs, fb := classify(resources.ErrForbidden)
	ns, nb := classify(resources.ErrResourceNotFound)
	assert.Equal(t, ns, fs)
	assert.Equal(t, nb, fb)
}
