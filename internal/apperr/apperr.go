// Package apperr 定义业务错误分类，API 层据此映射 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

// NotFound 例如 NotFound("post") -> "post: not found"
func NotFound(what string) error { return fmt.Errorf("%s: %w", what, ErrNotFound) }

func Unauthorized(reason string) error { return fmt.Errorf("%s: %w", reason, ErrUnauthorized) }

func Conflict(reason string) error { return fmt.Errorf("%s: %w", reason, ErrConflict) }

func BadRequest(reason string) error { return fmt.Errorf("%s: %w", reason, ErrBadRequest) }

// Kind 返回 err 所属分类；不属于任何分类时返回 nil
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrUnauthorized, ErrConflict, ErrBadRequest} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
