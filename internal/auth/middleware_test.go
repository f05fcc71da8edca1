package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newGateRouter(codec *Codec) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(codec, zerolog.Nop()))
	r.GET("/test", func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.String(http.StatusInternalServerError, "no identity")
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.ID, "email": id.Email, "role": id.Role})
	})
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_MissingToken(t *testing.T) {
	r := newGateRouter(NewCodec("secret", time.Hour))
	for _, h := range []string{"", "Bearer", "Bearer   "} {
		w := doGet(r, h)
		if w.Code != http.StatusForbidden {
			t.Errorf("header %q: expected 403, got %d", h, w.Code)
		}
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	r := newGateRouter(codec)

	wrongSecret, _ := NewCodec("other", time.Hour).Issue(testIdentity())
	expired, _ := codec.IssueTTL(testIdentity(), 0)

	for name, tok := range map[string]string{
		"garbage":      "not.a.valid.jwt",
		"wrong secret": wrongSecret,
		"expired":      expired,
	} {
		w := doGet(r, "Bearer "+tok)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Invalid token") {
			t.Errorf("%s: expected generic message, got %s", name, w.Body.String())
		}
		for _, leak := range []string{"expired", "signature", "malformed"} {
			if strings.Contains(w.Body.String(), leak) {
				t.Errorf("%s: response leaks reason %q: %s", name, leak, w.Body.String())
			}
		}
	}
}

func TestMiddleware_ValidTokenAttachesIdentity(t *testing.T) {
	codec := NewCodec("secret", time.Hour)
	r := newGateRouter(codec)
	token, err := codec.Issue(testIdentity())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	w := doGet(r, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"email":"a@x.com"`) || !strings.Contains(w.Body.String(), `"id":42`) {
		t.Errorf("identity not attached: %s", w.Body.String())
	}
}

func TestMiddleware_NilCodecFailsClosed(t *testing.T) {
	r := newGateRouter(nil)
	w := doGet(r, "Bearer something")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 when verification cannot run, got %d", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"Bearer  abc def": "abc",
	}
	for header, want := range cases {
		got, ok := bearerToken(header)
		if !ok || got != want {
			t.Errorf("bearerToken(%q) = %q, %v; want %q", header, got, ok, want)
		}
	}
	if _, ok := bearerToken("abc"); ok {
		t.Errorf("single segment should be treated as missing")
	}
}

func TestMiddleware_StoresOnlyIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := NewCodec("secret", time.Hour)
	var keys []any
	r := gin.New()
	r.Use(Middleware(codec, zerolog.Nop()))
	r.GET("/test", func(c *gin.Context) {
		for k := range c.Keys {
			keys = append(keys, k)
		}
		c.Status(http.StatusOK)
	})
	token, _ := codec.Issue(testIdentity())
	if w := doGet(r, "Bearer "+token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(keys) != 1 || keys[0] != identityKey {
		t.Errorf("expected only %q in context, got %v", identityKey, keys)
	}
}
