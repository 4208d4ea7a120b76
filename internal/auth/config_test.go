package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAdminCredentials(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	LoadAdminCredentials()

	assert.True(t, admin.configured())
	assert.True(t, admin.matches("root", "hunter2"))
	assert.False(t, admin.matches("root", "wrong"))
	assert.False(t, admin.matches("someone", "hunter2"))
}

func TestUnconfiguredCredentialsMatchNothing(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
	LoadAdminCredentials()

	assert.False(t, admin.configured())
	// Empty submitted credentials must not match empty configuration.
	assert.False(t, admin.matches("", ""))
}
