package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/utils"
)

const testSecret = "test-secret"

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := JWTAuth(testSecret)(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "PLAYER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, c := runJWT(t, "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// MapClaims decode numbers as float64.
	if sub, ok := c.Get("account_id").(float64); !ok || sub != 42 {
		t.Fatalf("account_id = %v, want 42", c.Get("account_id"))
	}
	if role, _ := c.Get("role").(string); role != "PLAYER" {
		t.Fatalf("role = %v, want PLAYER", c.Get("role"))
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	wrong, err := utils.NewAccessToken("other-secret", 42, "PLAYER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.jwt",
		"wrong secret":   "Bearer " + wrong.Token,
	} {
		rec, _ := runJWT(t, header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestCallerIDFormatsPlainDecimals(t *testing.T) {
	// Large IDs arrive as float64 from JWT claims and must not render in
	// scientific notation.
	cases := []struct {
		in   any
		want string
	}{
		{float64(12345678), "12345678"},
		{float64(7), "7"},
		{uint64(98765432), "98765432"},
		{int(42), "42"},
		{int64(42), "42"},
		{"42", "42"},
	}
	for _, tc := range cases {
		got, ok := callerID(tc.in)
		if !ok || got != tc.want {
			t.Errorf("callerID(%T %v) = %q, %v; want %q", tc.in, tc.in, got, ok, tc.want)
		}
	}
	for _, v := range []any{nil, "", struct{}{}} {
		if got, ok := callerID(v); ok {
			t.Errorf("callerID(%T %v) = %q, want no match", v, v, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	invoke := func(role any) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		if err := RequireRole("ADMIN")(okHandler)(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		return rec.Code
	}

	if code := invoke("ADMIN"); code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", code)
	}
	if code := invoke("PLAYER"); code != http.StatusForbidden {
		t.Errorf("player on admin route: status = %d, want 403", code)
	}
	if code := invoke(nil); code != http.StatusForbidden {
		t.Errorf("no role: status = %d, want 403", code)
	}
	if code := invoke(123); code != http.StatusForbidden {
		t.Errorf("non-string role: status = %d, want 403", code)
	}
}
