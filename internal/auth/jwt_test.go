package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/registrar/internal/account/entity"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, userID, role string, expiry time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func TestParseToken_Roundtrip(t *testing.T) {
	tok := signToken(t, "2024010001", "student", time.Hour)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "2024010001", claims.UserID)
	assert.Equal(t, "student", claims.Role)
}

func TestParseToken_Expired(t *testing.T) {
	tok := signToken(t, "2024010001", "student", -time.Minute)
	_, err := ParseToken(testSecret, tok)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok := signToken(t, "2024010001", "student", time.Hour)
	_, err := ParseToken("other-secret", tok)
	assert.Error(t, err)
}

func handlerRecordingClaims(got **Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_AttachesClaims(t *testing.T) {
	var got *Claims
	h := Authenticate(testSecret)(handlerRecordingClaims(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "A-00001", "admin", time.Hour))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "A-00001", got.UserID)
	assert.Equal(t, "admin", got.Role)
}

func TestAuthenticate_RejectsMissingAndMalformedHeaders(t *testing.T) {
	var got *Claims
	h := Authenticate(testSecret)(handlerRecordingClaims(&got))

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer bad.token.here"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		assert.Nil(t, got)
	}
}

func TestRequireRoles(t *testing.T) {
	var got *Claims
	chain := Authenticate(testSecret)(
		RequireRoles(entity.RoleSuperAdmin, entity.RoleAdmin)(handlerRecordingClaims(&got)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/create-student", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "2024010001", "student", time.Hour))
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/create-student", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "A-00001", "superAdmin", time.Hour))
	rr = httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRoles_NoClaims(t *testing.T) {
	h := RequireRoles(entity.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
