package socket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/social-feed/internal/apperr"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", apperr.NotFound("conversation"), "conversation: not found"},
		{"unauthorized", apperr.Unauthorized("sender must follow every member"), "sender must follow every member: unauthorized"},
		{"wrapped bad request", fmt.Errorf("send: %w", apperr.BadRequest("empty message")), "send: empty message: bad request"},
		{"database error", errors.New(`pq: relation "messages" does not exist`), "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage("alice", tt.err))
		})
	}
}
