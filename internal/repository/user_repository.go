package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id model.AccountID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []model.AccountID) ([]*model.User, error)
	// GetByLogin 按邮箱或用户名查找
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	List(ctx context.Context, exclude model.AccountID, offset, limit int) ([]*model.User, error)
	SearchByUsername(ctx context.Context, query string, offset, limit int) ([]*model.User, error)
	SetPrivacy(ctx context.Context, id model.AccountID, private bool) error
	Delete(ctx context.Context, id model.AccountID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return translate(r.db.WithContext(ctx).Create(u).Error, "user")
}

func (r *userRepository) GetByID(ctx context.Context, id model.AccountID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []model.AccountID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	var users []*model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	q := r.db.WithContext(ctx)
	if strings.Contains(login, "@") {
		q = q.Where("email = ?", login)
	} else {
		q = q.Where("username = ?", login)
	}
	if err := q.First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) List(ctx context.Context, exclude model.AccountID, offset, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", exclude).
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) SearchByUsername(ctx context.Context, query string, offset, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Where("username LIKE ? ESCAPE '\\'", "%"+escapeLike(query)+"%").
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) SetPrivacy(ctx context.Context, id model.AccountID, private bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_private", private)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// Delete 在一个事务内删除账号及其关注边、反应、帖子与会话成员关系
func (r *userRepository) Delete(ctx context.Context, id model.AccountID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("user")
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", id, id).Delete(&model.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		if err := leaveConversations(tx, id); err != nil {
			return err
		}
		var postIDs []model.PostID
		if err := tx.Model(&model.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		for _, pid := range postIDs {
			if err := deletePostTree(tx, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// leaveConversations 移除成员关系；成员不足两人的会话连同消息一并删除
func leaveConversations(tx *gorm.DB, id model.AccountID) error {
	var convIDs []model.ConversationID
	if err := tx.Model(&model.ConversationMember{}).Where("user_id = ?", id).Pluck("conversation_id", &convIDs).Error; err != nil {
		return err
	}
	if len(convIDs) == 0 {
		return nil
	}
	if err := tx.Where("user_id = ?", id).Delete(&model.ConversationMember{}).Error; err != nil {
		return err
	}
	var kept []model.ConversationID
	err := tx.Model(&model.ConversationMember{}).
		Select("conversation_id").
		Where("conversation_id IN ?", convIDs).
		Group("conversation_id").
		Having("COUNT(*) >= ?", 2).
		Pluck("conversation_id", &kept).Error
	if err != nil {
		return err
	}
	keep := make(map[model.ConversationID]struct{}, len(kept))
	for _, c := range kept {
		keep[c] = struct{}{}
	}
	var dropped []model.ConversationID
	for _, c := range convIDs {
		if _, ok := keep[c]; !ok {
			dropped = append(dropped, c)
		}
	}
	if len(dropped) == 0 {
		return nil
	}
	if err := tx.Where("conversation_id IN ?", dropped).Delete(&model.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("conversation_id IN ?", dropped).Delete(&model.ConversationMember{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", dropped).Delete(&model.Conversation{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
