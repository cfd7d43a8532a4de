package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/sbc-auth/internal/auth"
	"github.com/hongminglow/sbc-auth/internal/models"
	"github.com/hongminglow/sbc-auth/internal/storage/memory"
)

const sample = `
users:
  - id: admin1
    name: Admin User
    email: Admin1@example.com
    phone: "+911234567890"
    role: admin
    password: change-me-admin
  - name: Quality Checker
    email: checker2@example.com
    phone: "+911234567892"
    role: checker
    password: change-me-checker
`

func TestLoadAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	accounts, err := Load(path)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	ctx := context.Background()
	store := memory.NewUserStore()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, Apply(ctx, store, hasher, accounts))
	// Re-applying overwrites instead of failing.
	require.NoError(t, Apply(ctx, store, hasher, accounts))

	admin, err := store.FindByEmail(ctx, "admin1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin1", admin.ID)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	ok, err := hasher.Verify("change-me-admin", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	checkers, err := store.FindByRole(ctx, models.RoleChecker)
	require.NoError(t, err)
	require.Len(t, checkers, 1)
	assert.NotEmpty(t, checkers[0].ID)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":     "users: [",
		"unknown role": "users:\n  - {name: A, email: a@x.com, password: p, role: root}\n",
		"no password":  "users:\n  - {name: A, email: a@x.com, role: admin}\n",
		"duplicate":    "users:\n  - {name: A, email: a@x.com, password: p, role: admin}\n  - {name: B, email: A@x.com, password: p, role: owner}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
