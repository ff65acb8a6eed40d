package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
)

var validate = validator.New()

type postInput struct {
	Content string `validate:"required,max=240"`
}

// Publisher 负责事务内写帖子与评论
type Publisher struct{ db *gorm.DB }

func NewPublisher(db *gorm.DB) *Publisher { return &Publisher{db: db} }

func checkContent(content string) error {
	if err := validate.Struct(postInput{Content: content}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Tag() == "max" {
			return apperr.BadRequest("content exceeds 240 characters")
		}
		return apperr.BadRequest("content must not be empty")
	}
	return nil
}

// Publish 发布顶层帖子
func (p *Publisher) Publish(ctx context.Context, authorID model.AccountID, content string) (*model.Post, error) {
	if err := checkContent(content); err != nil {
		return nil, err
	}
	post := &model.Post{ID: model.NewPostID(), AuthorID: authorID, Content: content}
	if err := repository.NewPostRepository(p.db).Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Comment 对 parentID 发表评论；父帖不存在或对作者不可见时返回 NotFound
func (p *Publisher) Comment(ctx context.Context, authorID model.AccountID, parentID model.PostID, content string) (*model.Post, error) {
	if err := checkContent(content); err != nil {
		return nil, err
	}
	post := &model.Post{ID: model.NewPostID(), AuthorID: authorID, Content: content, ParentID: &parentID}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)
		if _, err := posts.GetVisible(ctx, authorID, parentID); err != nil {
			return err
		}
		return posts.Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}
