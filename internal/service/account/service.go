// Package account handles registration, login and profiles for customers and sellers.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
	accountrepo "localbazaar/internal/repository/account"
	tokenrepo "localbazaar/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

type Service struct {
	repo        accountrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
	logger      *zap.Logger
}

// New creates a Service. A non-positive accessTTL falls back to 48h.
func New(repo accountrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration, logger *zap.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   accessTTL,
		passwordMin: 8,
		logger:      logging.OrNop(logger).Named("account"),
	}
}

// RegisterInput captures fields expected by both signup endpoints.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// ProfileInput carries optional profile changes; nil leaves a field untouched.
type ProfileInput struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// Session is the result of a successful login.
type Session struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

// Register creates an account with the given role.
func (s *Service) Register(ctx context.Context, role domain.Role, in RegisterInput) (*domain.Account, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, domain.Required("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validation(domain.CodeInvalidField, "email is not a valid address")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.Required("username")
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.Validation(domain.CodeInvalidField, "passwords don't match")
	}
	if err := validatePassword(in.Password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	a, err := s.repo.Create(ctx, domain.Account{
		Role:         role,
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.Conflict(domain.CodeEmailTaken, "an account with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("registered account", zap.Int64("account_id", a.ID), zap.String("role", string(role)))
	return a, nil
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, role domain.Role, email, password string) (*Session, error) {
	a, err := s.repo.GetByEmail(ctx, role, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(ctx, a.ID, a.Role, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Account: a, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token into the caller's principal.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	p, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return domain.Principal{}, ErrInvalidToken
	}
	return p, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

func (s *Service) Profile(ctx context.Context, accountID int64) (*domain.Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

func (s *Service) UpdateProfile(ctx context.Context, accountID int64, in ProfileInput) (*domain.Account, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if v == "" {
			return nil, domain.Required("username")
		}
		a.Username = v
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	apply(&a.FirstName, in.FirstName)
	apply(&a.LastName, in.LastName)
	apply(&a.Phone, in.Phone)
	apply(&a.Address, in.Address)
	return s.repo.UpdateProfile(ctx, *a)
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return domain.Validation(domain.CodeInvalidField, fmt.Sprintf("password must be at least %d characters", min))
	}
	if strings.TrimSpace(p) == "" {
		return domain.Validation(domain.CodeInvalidField, "password must not be blank")
	}
	return nil
}
