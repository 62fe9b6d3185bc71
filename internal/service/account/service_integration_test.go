package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localbazaar/internal/db/dbtest"
	"localbazaar/internal/domain"
	accountrepo "localbazaar/internal/repository/account"
	tokenrepo "localbazaar/internal/repository/token"
)

func TestRegisterAndLogin_Integration(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	svc := New(accountrepo.NewPostgres(pool, nil), tokenrepo.NewPostgres(pool), time.Hour, nil)

	a, err := svc.Register(ctx, domain.RoleCustomer, RegisterInput{
		Username:        "integration",
		Email:           "integration@example.com",
		Password:        "Abcdefg1",
		ConfirmPassword: "Abcdefg1",
		Address:         "1 Main Street",
	})
	require.NoError(t, err)
	require.NotZero(t, a.ID)

	_, err = svc.Register(ctx, domain.RoleCustomer, RegisterInput{
		Username:        "again",
		Email:           "INTEGRATION@example.com",
		Password:        "Abcdefg1",
		ConfirmPassword: "Abcdefg1",
	})
	assert.True(t, domain.HasCode(err, domain.CodeEmailTaken))

	session, err := svc.Login(ctx, domain.RoleCustomer, "integration@example.com", "Abcdefg1")
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.AccountID)
	assert.True(t, p.IsCustomer())

	profile, err := svc.Profile(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main Street", profile.Address)
}
