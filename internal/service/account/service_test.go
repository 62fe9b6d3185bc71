package account

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localbazaar/internal/domain"
	tokenrepo "localbazaar/internal/repository/token"
)

// memoryRepo is a lightweight in-memory account repository for tests.
type memoryRepo struct {
	nextID   int64
	accounts map[int64]domain.Account
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]domain.Account)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryRepo) Create(_ context.Context, a domain.Account) (*domain.Account, error) {
	for _, existing := range r.accounts {
		if existing.Role == a.Role && strings.EqualFold(existing.Email, a.Email) {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.nextID++
	a.ID = r.nextID
	a.IsActive = true
	a.CreatedAt = time.Now()
	r.accounts[a.ID] = a
	return &a, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, role domain.Role, email string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Role == role && strings.EqualFold(a.Email, email) {
			clone := a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepo) UpdateProfile(_ context.Context, a domain.Account) (*domain.Account, error) {
	if _, ok := r.accounts[a.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.accounts[a.ID] = a
	return &a, nil
}

func registration(email string) RegisterInput {
	return RegisterInput{
		Username:        "maria",
		Email:           email,
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
		FirstName:       "Maria",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), time.Hour, nil)
	ctx := context.Background()

	a, err := svc.Register(ctx, domain.RoleCustomer, registration(" Maria@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", a.Email)
	assert.NotEqual(t, "correct horse", a.PasswordHash)

	session, err := svc.Login(ctx, domain.RoleCustomer, "maria@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, 3600, svc.AccessTTLSeconds())

	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{AccountID: a.ID, Role: domain.RoleCustomer}, p)
}

func TestRegister_Validation(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()

	in := registration("a@example.com")
	in.ConfirmPassword = "different"
	_, err := svc.Register(ctx, domain.RoleCustomer, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = registration("a@example.com")
	in.Password, in.ConfirmPassword = "short", "short"
	_, err = svc.Register(ctx, domain.RoleCustomer, in)
	assert.True(t, domain.HasCode(err, domain.CodeInvalidField))

	_, err = svc.Register(ctx, domain.RoleCustomer, registration("not-an-email"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = registration("a@example.com")
	in.Username = " "
	_, err = svc.Register(ctx, domain.RoleCustomer, in)
	assert.True(t, domain.HasCode(err, domain.CodeMissingField))
}

func TestRegister_DuplicateEmailPerRole(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RoleCustomer, registration("dup@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.RoleCustomer, registration("DUP@example.com"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.True(t, domain.HasCode(err, domain.CodeEmailTaken))

	_, err = svc.Register(ctx, domain.RoleSeller, registration("dup@example.com"))
	assert.NoError(t, err, "the same email may hold a seller account")
}

func TestLogin_RejectsWrongPasswordOrRole(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, domain.RoleSeller, registration("shop@example.com"))
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.RoleSeller, "shop@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.RoleCustomer, "shop@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_ExpiredTokenIsDeleted(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, time.Minute, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, domain.RoleCustomer, registration("late@example.com"))
	require.NoError(t, err)
	session, err := svc.Login(ctx, domain.RoleCustomer, "late@example.com", "correct horse")
	require.NoError(t, err)

	svc.tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, tokens.tokens)
}

func TestLogout(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, domain.RoleCustomer, registration("bye@example.com"))
	require.NoError(t, err)
	session, err := svc.Login(ctx, domain.RoleCustomer, "bye@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))
	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfile(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), 0, nil)
	ctx := context.Background()
	a, err := svc.Register(ctx, domain.RoleCustomer, registration("me@example.com"))
	require.NoError(t, err)

	phone := " 555-0100 "
	updated, err := svc.UpdateProfile(ctx, a.ID, ProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, "Maria", updated.FirstName)

	blank := ""
	_, err = svc.UpdateProfile(ctx, a.ID, ProfileInput{Username: &blank})
	assert.True(t, domain.HasCode(err, domain.CodeMissingField))
}
