package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationWrapping(t *testing.T) {
	err := fmt.Errorf("invite: %w", Invalid("email", "invalid email address"))
	require.True(t, IsValidation(err))
	ve, ok := AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "email", ve.Field)
	require.Equal(t, "invite: email: invalid email address", err.Error())

	require.False(t, IsValidation(errors.New("boom")))
}
