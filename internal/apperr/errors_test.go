package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestKindOf(t *testing.T) {
	base := Forbidden("nope")
	wrapped := fmt.Errorf("handler: %w", base)

	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestTransportMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		http int
		grpc codes.Code
	}{
		{KindUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
		{KindForbidden, http.StatusForbidden, codes.PermissionDenied},
		{KindNotFound, http.StatusNotFound, codes.NotFound},
		{KindConflict, http.StatusConflict, codes.AlreadyExists},
		{KindBadRequest, http.StatusBadRequest, codes.InvalidArgument},
		{KindValidation, http.StatusUnprocessableEntity, codes.InvalidArgument},
		{KindInternal, http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.http, HTTPStatus(tt.kind))
			assert.Equal(t, tt.grpc, GRPCCode(tt.kind))
		})
	}
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error", err.Message)
}
