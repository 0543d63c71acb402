package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signTestToken(t *testing.T, verifierIssuer string, privateKeySigner interface{}, roles []interface{}) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   "user-123",
		"email": "renter@example.com",
		"iss":   verifierIssuer,
		"exp":   time.Now().Add(1 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"realm_access": map[string]interface{}{
			"roles": roles,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key-id"

	tokenString, err := token.SignedString(privateKeySigner)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}

// TestMiddleware_Success tests that a valid token injects the principal
func TestMiddleware_Success(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	var gotPrincipal *Principal
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrincipal, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, cfg.Issuer, privateKey, []interface{}{"USER"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if gotPrincipal == nil {
		t.Fatal("Expected principal in context")
	}
	if gotPrincipal.UserID != "user-123" {
		t.Errorf("Expected UserID 'user-123', got '%s'", gotPrincipal.UserID)
	}
}

// TestMiddleware_MissingHeader tests requests without an Authorization header
func TestMiddleware_MissingHeader(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

// TestMiddleware_MalformedHeader tests a non-Bearer Authorization header
func TestMiddleware_MalformedHeader(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

// TestMiddleware_InvalidToken tests a garbage bearer token
func TestMiddleware_InvalidToken(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

// TestOptionalMiddleware_NoHeader tests that requests without a token pass
// through anonymously
func TestOptionalMiddleware_NoHeader(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	called := false
	handler := OptionalMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := FromContext(r.Context()); ok {
			t.Error("Expected no principal in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("Expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

// TestOptionalMiddleware_ValidToken tests that a valid token still injects
// the principal
func TestOptionalMiddleware_ValidToken(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	var gotPrincipal *Principal
	handler := OptionalMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrincipal, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, cfg.Issuer, privateKey, []interface{}{"USER"}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if gotPrincipal == nil {
		t.Fatal("Expected principal in context")
	}
	if gotPrincipal.UserID != "user-123" {
		t.Errorf("Expected UserID 'user-123', got '%s'", gotPrincipal.UserID)
	}
}

// TestOptionalMiddleware_InvalidToken tests that a bad token is rejected
// rather than downgraded to anonymous
func TestOptionalMiddleware_InvalidToken(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)

	cfg := Config{Issuer: "https://id.test.example/realms/marketplace"}
	verifier := NewVerifier(cfg, staticKeys{key: publicKey})

	handler := OptionalMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

// TestRequirePermission_Allowed tests a principal with the right permission
func TestRequirePermission_Allowed(t *testing.T) {
	perms := Permissions{"USER": {"listing:create"}}

	handler := RequirePermission("listing:create", perms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	pr := &Principal{UserID: "user-123", Roles: []string{"USER"}}
	req := httptest.NewRequest(http.MethodPost, "/listings", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), pr))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

// TestRequirePermission_Forbidden tests a principal missing the permission
func TestRequirePermission_Forbidden(t *testing.T) {
	perms := Permissions{"USER": {"listing:create"}}

	handler := RequirePermission("category:delete", perms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	pr := &Principal{UserID: "user-123", Roles: []string{"USER"}}
	req := httptest.NewRequest(http.MethodDelete, "/categories/cat-1", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), pr))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

// TestRequirePermission_Unauthenticated tests a request without a principal
func TestRequirePermission_Unauthenticated(t *testing.T) {
	perms := Permissions{"USER": {"listing:create"}}

	handler := RequirePermission("listing:create", perms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/listings", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}
