package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"workwave-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("Wrapped AppError keeps its code", func(t *testing.T) {
		err := fmt.Errorf("usecase: %w", apperror.Conflict("Education already added"))
		assert.Equal(t, http.StatusConflict, apperror.CodeOf(err))
	})

	t.Run("Plain error is internal", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, apperror.CodeOf(errors.New("boom")))
	})
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperror.Internal(cause)

	assert.Equal(t, "Internal Server Error", err.Error())
	assert.ErrorIs(t, err, cause)
}
