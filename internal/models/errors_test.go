package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type blankError struct{}

func (blankError) Error() string { return "" }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError("title is required"), KindValidation},
		{"wrapped not found", fmt.Errorf("loading: %w", NewNotFoundError("tour", "t1")), KindNotFound},
		{"foreign", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "", MessageOf(nil, "fallback"))
	assert.Equal(t, "invalid login credentials", MessageOf(NewUnauthorizedError("invalid login credentials"), "fallback"))
	assert.Equal(t, "dial tcp: refused", MessageOf(NewRemoteError("", errors.New("dial tcp: refused")), "fallback"))
	assert.Equal(t, "fallback", MessageOf(&Error{Kind: KindRemote}, "fallback"))
	assert.Equal(t, "fallback", MessageOf(blankError{}, "fallback"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("stop", "s1")))
	assert.False(t, IsNotFound(NewValidationError("x")))
	assert.True(t, IsValidation(NewValidationError("x")))
}
