package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/travel/pkg/auth"
	"github.com/mamadbah2/travel/services/user-service/internal/domain"
)

// UserRepo is the account store; satisfied by repository.UserRepo.
type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) (*domain.User, error)
	List(ctx context.Context, page, size int, query, role string) ([]domain.User, int64, error)
}

const (
	accessTTL  = time.Hour
	refreshTTL = 30 * 24 * time.Hour
)

// UserService owns accounts and issues the tokens the other services
// validate. Self-registration is traveler or manager; admins are created
// by another admin.
type UserService struct {
	repo      UserRepo
	jwtSecret string
	log       zerolog.Logger
}

func NewUserService(repo UserRepo, jwtSecret string, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, jwtSecret: jwtSecret, log: log}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	role := strings.ToUpper(in.Role)
	if role == "" {
		role = auth.RoleTraveler
	}
	if role != auth.RoleTraveler && role != auth.RoleManager {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user registered")
	return u, nil
}

// Login returns the user plus an access and a refresh token. A wrong
// password and an unknown email are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, string, error) {
	u, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return nil, "", "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", "", domain.ErrInvalidCredentials
	}

	access, err := auth.CreateAccessToken(s.jwtSecret, u.ID, u.Role, u.Email, accessTTL)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := auth.CreateAccessToken(s.jwtSecret, u.ID, u.Role, u.Email, refreshTTL)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.ByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id, firstName, lastName, phone string) (*domain.User, error) {
	fields := map[string]any{}
	if firstName != "" {
		fields["first_name"] = firstName
	}
	if lastName != "" {
		fields["last_name"] = lastName
	}
	if phone != "" {
		fields["phone"] = phone
	}
	return s.repo.UpdateFields(ctx, id, fields)
}

// List is admin-only; the handler enforces the role.
func (s *UserService) List(ctx context.Context, page, size int, query, role string) ([]domain.User, int64, error) {
	return s.repo.List(ctx, page, size, query, role)
}
