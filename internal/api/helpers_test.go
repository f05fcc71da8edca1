package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"user-api/internal/auth"
	"user-api/internal/avatar"
	"user-api/internal/db"
	"user-api/internal/user"
)

type fakeImageHost struct {
	keys []string
	err  error
}

func (f *fakeImageHost) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, body)
	f.keys = append(f.keys, key)
	return "https://img.test/" + key, nil
}

type testEnv struct {
	deps *Deps
	conn *gorm.DB
	host *fakeImageHost
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenSQLite("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	host := &fakeImageHost{}
	return &testEnv{
		conn: conn,
		host: host,
		deps: &Deps{
			Users:       user.NewStore(conn),
			Hasher:      user.NewHasher(bcrypt.MinCost),
			Tokens:      auth.NewCodec("test-secret", time.Hour),
			Avatars:     avatar.NewUploader(host, "avatars", 1024),
			CORSOrigins: []string{"http://localhost:3000"},
			Log:         zerolog.Nop(),
		},
	}
}

func (e *testEnv) router() *gin.Engine {
	return SetupRouter(e.deps)
}

func (e *testEnv) seedUser(t *testing.T, username, email, password string) *user.User {
	t.Helper()
	hash, err := e.deps.Hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &user.User{Username: username, Email: email, PasswordHash: hash}
	if err := e.deps.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *user.User) string {
	t.Helper()
	token, err := e.deps.Tokens.Issue(auth.Identity{ID: u.ID, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}
