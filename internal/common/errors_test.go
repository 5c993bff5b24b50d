package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestKind_NotFoundIsQueryError(t *testing.T) {
	assert.ErrorIs(t, ErrNotFound, ErrQuery)
	assert.False(t, errors.Is(ErrQuery, ErrNotFound))
	assert.False(t, errors.Is(ErrUnauthorized, ErrQuery))
}

func TestKind_WrappedByOops(t *testing.T) {
	err := oops.Code("ENTRY_NOT_FOUND").With("entry_id", int64(7)).Wrap(ErrNotFound)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, "ENTRY_NOT_FOUND", ErrorCode(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *Kind
	}{
		{"not found beats query", fmt.Errorf("get: %w", ErrNotFound), ErrNotFound},
		{"plain query", oops.Wrap(ErrQuery), ErrQuery},
		{"unauthorized", oops.Code("X").Wrap(ErrUnauthorized), ErrUnauthorized},
		{"unknown", errors.New("boom"), ErrInternal},
		{"nil", nil, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorCode_FallsBackToKind(t *testing.T) {
	assert.Equal(t, "DUPLICATE_ACCOUNT", ErrorCode(fmt.Errorf("wrap: %w", ErrDuplicateAccount)))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
}

func TestKind_Messages(t *testing.T) {
	assert.Equal(t, "Invalid email/password combination", ErrWrongPassword.Error())
	assert.Equal(t, "Account already exists", ErrDuplicateAccount.Error())
}
