package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/social-feed/internal/apperr"
	"github.com/d60-Lab/social-feed/internal/model"
	"github.com/d60-Lab/social-feed/internal/repository"
	"github.com/d60-Lab/social-feed/pkg/auth"
)

// SignupInput 注册参数，同时用于请求绑定
type SignupInput struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72" validate:"required,min=6,max=72"`
	Name     string `json:"name" binding:"max=64" validate:"max=64"`
}

// Session 登录态
type Session struct {
	Token string         `json:"token"`
	User  model.UserView `json:"user"`
}

type AuthService interface {
	// Signup 用户名或邮箱已被占用时返回 Conflict
	Signup(ctx context.Context, in SignupInput) (*Session, error)
	// Login login 可以是邮箱或用户名；不匹配统一返回 Unauthorized
	Login(ctx context.Context, login, password string) (*Session, error)
	// Authenticate 校验 token，返回账号 ID
	Authenticate(token string) (model.AccountID, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.Manager
}

func NewAuthService(users repository.UserRepository, tokens *auth.Manager) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}
	exists, err := s.users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("username or email already taken")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:       model.NewAccountID(),
		Username: in.Username,
		Email:    in.Email,
		Name:     in.Name,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *authService) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
	}
	u, err := s.users.GetByLogin(ctx, login)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.session(u)
}

func (s *authService) Authenticate(token string) (model.AccountID, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return "", apperr.Unauthorized("invalid token")
	}
	return model.AccountID(claims.Subject), nil
}

func (s *authService) session(u *model.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID.String(), u.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u.View()}, nil
}
