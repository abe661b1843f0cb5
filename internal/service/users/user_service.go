package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/repository"
)

const minPasswordLength = 8

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string, expected domain.Role) (*domain.User, error)
	Promote(ctx context.Context, username string) error
	Demote(ctx context.Context, actor, username string) error
	List(ctx context.Context) ([]domain.User, error)
}

type RegisterInput struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	PhoneNo   string      `json:"phone_no"`
	Role      domain.Role `json:"role"`
}

type UserService struct {
	repo repository.UserRepository
	cost int
	log  logrus.FieldLogger
}

type UserServiceOption func(*UserService)

// WithHashCost overrides the bcrypt cost, mainly to keep tests fast.
func WithHashCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.cost = cost
	}
}

func WithLogger(log logrus.FieldLogger) UserServiceOption {
	return func(s *UserService) {
		s.log = log
	}
}

func NewUserService(repo repository.UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{repo: repo, cost: bcrypt.DefaultCost, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if input.Role == "" {
		input.Role = domain.RolePassenger
	}
	switch {
	case !usernamePattern.MatchString(username):
		return nil, fmt.Errorf("%w: username must be 3-32 letters, digits or _.-", domain.ErrValidation)
	case len(input.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	case strings.TrimSpace(input.FirstName) == "":
		return nil, fmt.Errorf("%w: first name is required", domain.ErrValidation)
	case input.PhoneNo != "" && !phonePattern.MatchString(input.PhoneNo):
		return nil, fmt.Errorf("%w: phone number is malformed", domain.ErrValidation)
	case !input.Role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PhoneNo:      input.PhoneNo,
		Role:         input.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"username": username, "role": user.Role}).Info("user registered")
	return user, nil
}

// Authenticate checks the credentials and that the user holds the expected role.
func (s *UserService) Authenticate(ctx context.Context, username, password string, expected domain.Role) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if expected != "" && user.Role != expected {
		return nil, fmt.Errorf("%w: %s is not a %s", domain.ErrForbidden, user.Username, expected)
	}
	return user, nil
}

func (s *UserService) Promote(ctx context.Context, username string) error {
	ok, err := s.repo.UpdateRole(ctx, username, domain.RolePassenger, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no passenger named %q: %w", username, domain.ErrNotFound)
	}
	s.log.WithField("username", username).Info("user promoted to admin")
	return nil
}

// Demote turns an admin back into a passenger. Admins cannot demote themselves.
func (s *UserService) Demote(ctx context.Context, actor, username string) error {
	if actor == username {
		return fmt.Errorf("%w: admins cannot demote themselves", domain.ErrForbidden)
	}
	ok, err := s.repo.UpdateRole(ctx, username, domain.RoleAdmin, domain.RolePassenger)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no admin named %q: %w", username, domain.ErrNotFound)
	}
	s.log.WithFields(logrus.Fields{"username": username, "by": actor}).Info("admin demoted")
	return nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

var _ UserUseCase = (*UserService)(nil)
