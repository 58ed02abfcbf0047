package users_test

import (
	"context"
	"testing"

	"pet-vaccine-tracker/internal/adapters/storage/memory"
	"pet-vaccine-tracker/internal/domain/users"
	"pet-vaccine-tracker/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingCleaner struct {
	owners []string
}

func (c *recordingCleaner) DeleteByOwner(ctx context.Context, ownerUserID string) error {
	c.owners = append(c.owners, ownerUserID)
	return nil
}

func newService() *users.Service {
	return users.NewService(memory.NewUserRepo(), nil).WithHashCost(bcrypt.MinCost)
}

func register(t *testing.T, svc *users.Service, email string) users.User {
	t.Helper()
	u, err := svc.Register(context.Background(), users.RegisterInput{
		Name:     "Ana",
		Email:    email,
		Password: "secreto",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	u := register(t, svc, "  Ana@Example.com ")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, []byte("secreto"), u.PasswordHash)

	_, err := svc.Register(ctx, users.RegisterInput{Name: "Otra", Email: "ANA@example.com", Password: "x"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	_, err = svc.Register(ctx, users.RegisterInput{Email: "b@example.com", Password: "x"})
	assert.True(t, validation.Is(err, validation.KindMissingField))

	_, err = svc.Register(ctx, users.RegisterInput{Name: "B", Email: "b@example.com"})
	assert.True(t, validation.Is(err, validation.KindMissingField))
}

func TestRegister_DuplicateCPF(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, users.RegisterInput{Name: "A", Email: "a@example.com", CPF: "123", Password: "x"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, users.RegisterInput{Name: "B", Email: "b@example.com", CPF: "123", Password: "x"})
	assert.ErrorIs(t, err, users.ErrCPFTaken)
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u := register(t, svc, "ana@example.com")

	got, err := svc.Authenticate(ctx, "ANA@example.com", "secreto")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@example.com", "otra")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nadie@example.com", "secreto")
	assert.ErrorIs(t, err, users.ErrNotFound)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	u := register(t, svc, "ana@example.com")
	register(t, svc, "beto@example.com")

	name := "Ana María"
	phone := " 555-1234 "
	updated, err := svc.UpdateProfile(ctx, u.ID, users.ProfilePatch{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)
	assert.Equal(t, "555-1234", updated.Phone)
	assert.Equal(t, "ana@example.com", updated.Email)

	taken := "BETO@example.com"
	_, err = svc.UpdateProfile(ctx, u.ID, users.ProfilePatch{Email: &taken})
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	empty := " "
	_, err = svc.UpdateProfile(ctx, u.ID, users.ProfilePatch{Name: &empty})
	assert.True(t, validation.Is(err, validation.KindMissingField))

	assert.True(t, users.ProfilePatch{}.IsEmpty())
}

func TestDelete_Cascades(t *testing.T) {
	svc := newService()
	cleaner := &recordingCleaner{}
	svc.OnDelete(cleaner)
	ctx := context.Background()
	u := register(t, svc, "ana@example.com")

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.Equal(t, []string{u.ID}, cleaner.owners)

	_, err := svc.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, users.ErrNotFound)
}
