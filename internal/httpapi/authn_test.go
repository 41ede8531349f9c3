package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhive.org/internal/access"
)

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	handler := RequireRole(access.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = req.WithContext(access.ContextWithCaller(req.Context(), access.Caller{ID: "user-1", Role: access.RoleOwner}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	handler := RequireRole(access.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	req = req.WithContext(access.ContextWithCaller(req.Context(), access.Caller{ID: "user-1", Role: access.RoleViewer}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestRequireRoleRejectsMissingUser(t *testing.T) {
	handler := RequireRole(access.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/internal", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected WWW-Authenticate header set")
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := extractBearerToken("Basic abc"); err == nil {
		t.Fatal("expected error for wrong scheme")
	}
	if _, err := extractBearerToken("Bearer   "); err == nil {
		t.Fatal("expected error for blank token")
	}
	token, err := extractBearerToken("bearer abc.def")
	if err != nil {
		t.Fatalf("case-insensitive scheme should pass: %v", err)
	}
	if token != "abc.def" {
		t.Fatalf("unexpected token: %q", token)
	}
}
