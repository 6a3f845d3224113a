package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret-0123456789abcdef"

// testEnv is a server on an in-memory database without redis.
type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
	app *fiber.App
}

func newTestEnv(t *testing.T, configure ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Port:                 "0",
		Env:                  "test",
		JWTSecret:            testSecret,
		MediaDir:             t.TempDir(),
		ImageMaxUploadSizeMB: 1,
		PageCacheTTLSeconds:  60,
		FeatureFlags:         "page_cache=off",
	}
	for _, fn := range configure {
		fn(cfg)
	}

	db := testutil.OpenTestDB(t)
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testEnv{t: t, db: db, srv: srv, app: srv.NewApp()}
}

// sessionCookie signs user in for a single request.
func (e *testEnv) sessionCookie(user *models.User) *http.Cookie {
	e.t.Helper()
	token, _, err := e.srv.tokens.Issue(user)
	require.NoError(e.t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) do(req *http.Request, user *models.User) (*http.Response, string) {
	e.t.Helper()
	if user != nil {
		req.AddCookie(e.sessionCookie(user))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (e *testEnv) get(target string, user *models.User) (*http.Response, string) {
	e.t.Helper()
	return e.do(httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (e *testEnv) postForm(target string, user *models.User, form url.Values) (*http.Response, string) {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return e.do(req, user)
}

func (e *testEnv) postMultipart(target string, user *models.User, fields map[string]string, files ...testutil.FormFile) (*http.Response, string) {
	e.t.Helper()
	body, contentType := testutil.MultipartBody(e.t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	return e.do(req, user)
}

func (e *testEnv) countPosts() int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(&models.Post{}).Count(&n).Error)
	return n
}

func (e *testEnv) countComments() int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func (e *testEnv) countFollowers(author *models.User) int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(&models.Follow{}).Where("author_id = ?", author.ID).Count(&n).Error)
	return n
}
