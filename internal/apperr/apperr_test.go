package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	assert.Equal(t, ErrNotFound, Kind(NotFound("post")))
	assert.Equal(t, ErrConflict, Kind(fmt.Errorf("react: %w", Conflict("reaction already exists"))))
	assert.Equal(t, ErrBadRequest, Kind(BadRequest("before and after are mutually exclusive")))
	assert.Equal(t, ErrUnauthorized, Kind(Unauthorized("not a member")))
	assert.Nil(t, Kind(errors.New("boom")))
	assert.EqualError(t, NotFound("post"), "post: not found")
}
