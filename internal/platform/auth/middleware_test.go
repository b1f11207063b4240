package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signedRS256Token(t *testing.T, key *rsa.PrivateKey, kid string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"commercial_manager"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func jwksServer(t *testing.T, pub *rsa.PublicKey, kid string, hits *int64) *httptest.Server {
	t.Helper()
	jwks := JWKSResponse{Keys: []JWKSKey{{
		Kty: "RSA",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		json.NewEncoder(w).Encode(jwks)
	}))
}

func TestJWTMiddleware_ReusesJWKSCacheAcrossRequests(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	var hits int64
	srv := jwksServer(t, &key.PublicKey, "kid-1", &hits)
	defer srv.Close()

	handler := JWTMiddleware(JWTConfig{JWKSURL: srv.URL})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	tokenStr := signedRS256Token(t, key, "kid-1")
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/negotiations", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		c := e.NewContext(req, httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("expected a single JWKS fetch across requests, got %d", got)
	}
}

func TestJWTMiddleware_RejectsMissingHeader(t *testing.T) {
	handler := JWTMiddleware(JWTConfig{SigningKey: []byte("dev-secret")})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/negotiations", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_HMACClaimsOnContext(t *testing.T) {
	secret := []byte("dev-secret")
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles:      []string{"plan_admin"},
		EntityType: "health_plan",
		EntityID:   "hp-1",
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	var gotUser string
	var gotRoles []string
	var gotKind, gotID string
	handler := JWTMiddleware(JWTConfig{SigningKey: secret})(func(c echo.Context) error {
		ctx := c.Request().Context()
		gotUser = UserIDFromContext(ctx)
		gotRoles = RolesFromContext(ctx)
		gotKind, gotID = EntityFromContext(ctx)
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/negotiations", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotUser != "user-7" {
		t.Errorf("expected subject user-7, got %q", gotUser)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "plan_admin" {
		t.Errorf("expected plan_admin role, got %v", gotRoles)
	}
	if gotKind != "health_plan" || gotID != "hp-1" {
		t.Errorf("expected health_plan/hp-1 entity link, got %s/%s", gotKind, gotID)
	}
}
