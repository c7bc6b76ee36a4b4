package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingConflictError(t *testing.T) {
	err := fmt.Errorf("register: %w", &NamingConflictError{Key: "profile"})

	assert.ErrorIs(t, err, ErrNamingConflict)
	assert.EqualError(t, err, "register: fabstate: profile is already defined at form scope")

	var conflict *NamingConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, "profile", conflict.Key)
}
