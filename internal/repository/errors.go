package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
)

// translate 将 gorm 错误映射为业务错误分类
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(what + " already exists")
	default:
		return err
	}
}
