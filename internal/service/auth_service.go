package service

import (
	"context"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
	"github.com/arealivre/areas-api/pkg/auth"
	"github.com/arealivre/areas-api/pkg/config"
	"github.com/arealivre/areas-api/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserInfo, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Me(ctx context.Context, userID string) (*domain.UserInfo, error)

	ListUsers(ctx context.Context, actor Actor, limit, offset int) ([]domain.UserInfo, error)
	CreateUser(ctx context.Context, actor Actor, req *domain.CreateUserRequest) (*domain.UserInfo, error)
	UpdateUser(ctx context.Context, actor Actor, id string, req *domain.UpdateUserRequest) (*domain.UserInfo, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      config.AuthConfig
}

func NewAuthService(userRepo repository.UserRepository, cfg config.AuthConfig) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Self-registration never grants admin.
	req.Role = domain.RoleUser

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, domain.Internal(err)
	}

	user, err := s.userRepo.Create(ctx, req, hash)
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal(err)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user.ToUserInfo(), nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if user == nil || !user.Active {
		return nil, domain.Forbiddenf("invalid email or password")
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if !match {
		return nil, domain.Forbiddenf("invalid email or password")
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, domain.Internal(err)
	}

	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user not found")
	}
	return user.ToUserInfo(), nil
}

func (s *authService) ListUsers(ctx context.Context, actor Actor, limit, offset int) ([]domain.UserInfo, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin access required")
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.Internal(err)
	}
	infos := make([]domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, *users[i].ToUserInfo())
	}
	return infos, nil
}

// CreateUser lets an admin provision accounts with an explicit role.
func (s *authService) CreateUser(ctx context.Context, actor Actor, req *domain.CreateUserRequest) (*domain.UserInfo, error) {
	if !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin access required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, domain.Internal(err)
	}

	user, err := s.userRepo.Create(ctx, req, hash)
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal(err)
	}

	logger.InfoContext(ctx, "User created", "user_id", user.ID, "role", user.Role)
	return user.ToUserInfo(), nil
}

func (s *authService) UpdateUser(ctx context.Context, actor Actor, id string, req *domain.UpdateUserRequest) (*domain.UserInfo, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return nil, domain.Forbiddenf("you may only update your own account")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Role and active changes are an admin-only concern.
	if (req.Role != nil || req.Active != nil) && !actor.IsAdmin() {
		return nil, domain.Forbiddenf("admin access required")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user not found")
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	updated, err := s.userRepo.Update(ctx, user)
	if err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal(err)
	}
	return updated.ToUserInfo(), nil
}
