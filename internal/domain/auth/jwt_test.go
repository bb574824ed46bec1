package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmsearch/internal/core/id"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	org := id.New()

	token, expiresAt, err := svc.GenerateAccessToken(TokenSpec{
		UserID:         "user-1",
		OrganizationID: org,
		Email:          "editor@example.com",
		Scopes:         []string{"posts:read:published"},
		APIKey:         true,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, org.String(), user.OrganizationID)
	assert.Equal(t, "editor@example.com", user.Email)
	assert.Equal(t, []string{"posts:read:published"}, user.Scopes)
	assert.True(t, user.APIKey)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "cmsearch",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
			UserID:         "u",
			OrganizationID: id.New().String(),
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil
	foreignIssuer := valid()
	foreignIssuer.Issuer = "someone-else"
	badOrg := valid()
	badOrg.OrganizationID = "acme"
	nilOrg := valid()
	nilOrg.OrganizationID = "00000000-0000-0000-0000-000000000000"
	noUser := valid()
	noUser.UserID = ""

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not.a.token"},
		{"WrongSecret", sign(t, jwt.SigningMethodHS256, []byte("other"), valid())},
		{"NoneAlgorithm", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid())},
		{"Expired", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), expired)},
		{"NoExpiry", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), noExpiry)},
		{"ForeignIssuer", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), foreignIssuer)},
		{"OrganizationNotUUID", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), badOrg)},
		{"NilOrganization", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), nilOrg)},
		{"MissingUser", sign(t, jwt.SigningMethodHS256, []byte("test-secret"), noUser)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, user)
		})
	}
}
