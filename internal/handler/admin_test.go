package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// invokeAdmin runs one AdminHandler method with the given :id param.
// The handler has no repositories wired, so only the validation paths
// that return before any query are exercised here.
func invokeAdmin(t *testing.T, fn func(echo.Context) error, id string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec.Code
}

func TestAdminHandlersRejectBadEventID(t *testing.T) {
	h := &AdminHandler{}
	for name, fn := range map[string]func(echo.Context) error{
		"delete":  h.Delete,
		"archive": h.Archive,
		"publish": h.PublishCredentials,
		"topup":   h.TopUp,
		"block":   h.Block,
	} {
		for _, id := range []string{"", "0", "-1", "abc"} {
			if code := invokeAdmin(t, fn, id); code != http.StatusBadRequest {
				t.Errorf("%s with id %q: status = %d, want 400", name, id, code)
			}
		}
	}
}
