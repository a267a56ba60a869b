package impl

import (
	"context"
	"testing"

	"ownerauth/internal/domain/entity"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_BeforeSignup(t *testing.T) {
	f := createAuthFixtures(t)
	ctx := context.Background()

	_, err := f.account.GetAccountSettings(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrOwnerNotCreated)

	_, err = f.account.UpdateAccountSettings(ctx, &usecase.UpdateAccountInput{FullName: "X"})
	assert.ErrorIs(t, err, domainerrors.ErrOwnerNotCreated)
}

func TestAccountService_GetAccountSettings(t *testing.T) {
	f := createAuthFixtures(t)
	f.signupOwner(t)

	settings, err := f.account.GetAccountSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &entity.AccountSettings{
		FullName: "Ada Owner",
		Email:    ownerEmail,
		Role:     entity.RoleOwner,
		Timezone: "Europe/Berlin",
	}, settings)
}

func TestAccountService_UpdateAccountSettings(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.UpdateAccountInput
		want    *entity.AccountSettings
		wantErr error
	}{
		{
			name:  "updates both fields",
			input: usecase.UpdateAccountInput{FullName: "  Grace  ", Timezone: "Asia/Tokyo"},
			want:  &entity.AccountSettings{FullName: "Grace", Email: ownerEmail, Role: entity.RoleOwner, Timezone: "Asia/Tokyo"},
		},
		{
			name:  "empty fields keep stored values",
			input: usecase.UpdateAccountInput{},
			want:  &entity.AccountSettings{FullName: "Ada Owner", Email: ownerEmail, Role: entity.RoleOwner, Timezone: "Europe/Berlin"},
		},
		{
			name:    "unknown timezone",
			input:   usecase.UpdateAccountInput{Timezone: "Nowhere/Land"},
			wantErr: domainerrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createAuthFixtures(t)
			f.signupOwner(t)

			got, err := f.account.UpdateAccountSettings(context.Background(), &tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			stored, err := f.account.GetAccountSettings(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored)
		})
	}
}

func TestAccountService_EmailAndRoleAreImmutable(t *testing.T) {
	f := createAuthFixtures(t)
	f.signupOwner(t)
	ctx := context.Background()

	// A tampered file cannot promote a different role through an update.
	require.NoError(t, f.store.Mutate(ctx, func(record *entity.AuthStoreRecord) error {
		record.Owner.Role = "Admin"

		return nil
	}))

	settings, err := f.account.UpdateAccountSettings(ctx, &usecase.UpdateAccountInput{FullName: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, ownerEmail, settings.Email)
	assert.Equal(t, entity.RoleOwner, settings.Role)
}
