package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/pkg/jwt"
)

const (
	secret = "jwt-test-secret"
	userID = "00000000-0000-0000-0000-000000000001"
	orgID  = "00000000-0000-0000-0000-000000000002"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := jwt.Generate(secret, userID, orgID, "pharmacist", "farmapos", 30)
	require.NoError(t, err)

	u, o, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, userID, u)
	assert.Equal(t, orgID, o)
	assert.Equal(t, "pharmacist", role)
}

func TestParse_RolVacioEsValido(t *testing.T) {
	tok, err := jwt.Generate(secret, userID, orgID, "", "farmapos", 30)
	require.NoError(t, err)

	_, _, role, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestParse_Errores(t *testing.T) {
	expired, err := jwt.Generate(secret, userID, orgID, "admin", "farmapos", -1)
	require.NoError(t, err)
	valid, err := jwt.Generate(secret, userID, orgID, "admin", "farmapos", 30)
	require.NoError(t, err)
	noOrg, err := jwt.Generate(secret, userID, "", "admin", "farmapos", 30)
	require.NoError(t, err)
	noUser, err := jwt.Generate(secret, "", orgID, "admin", "farmapos", 30)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"expirado":         {secret, expired},
		"otro secreto":     {"otro", valid},
		"secreto vacío":    {"", valid},
		"sin organización": {secret, noOrg},
		"sin usuario":      {secret, noUser},
		"basura":           {secret, "no.es.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := jwt.Parse(tc.secret, tc.token)
			assert.Error(t, err)
		})
	}
}

func TestGenerate_SecretoVacio(t *testing.T) {
	_, err := jwt.Generate("", userID, orgID, "admin", "farmapos", 30)
	assert.Error(t, err)
}
