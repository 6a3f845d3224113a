package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("response did not set %s", auth.CookieName)
	return nil
}

func TestSignupThenLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get("/auth/signup/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password2"`)

	resp, _ = env.postForm("/auth/signup/", nil, url.Values{
		"first_name": {"Sarah"},
		"last_name":  {"Connor"},
		"username":   {"sarah"},
		"email":      {"connor@skynet.com"},
		"password1":  {"no-fate-1984"},
		"password2":  {"no-fate-1984"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/", resp.Header.Get("Location"))

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "sarah").First(&user).Error)
	assert.Equal(t, "Sarah Connor", user.FullName())
	assert.NotEqual(t, "no-fate-1984", user.Password)

	resp, _ = env.postForm("/auth/login/", nil, url.Values{
		"username": {"sarah"},
		"password": {"no-fate-1984"},
		"next":     {"/new/"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new/", resp.Header.Get("Location"))
	cookie := sessionFrom(t, resp)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/new/", nil)
	req.AddCookie(cookie)
	resp, body = env.do(req, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Log out")
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.postForm("/auth/signup/", nil, url.Values{
		"username": {"sarah"}, "password1": {"no-fate-1984"}, "password2": {"no-fate-1984"},
	})

	resp, body := env.postForm("/auth/signup/", nil, url.Values{
		"username": {"sarah"}, "password1": {"no-fate-1984"}, "password2": {"no-fate-1984"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A user with that username already exists.")

	resp, body = env.postForm("/auth/signup/", nil, url.Values{
		"username": {"new"}, "email": {"nope"}, "password1": {"x"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Enter a valid email address.")
	assert.Contains(t, body, validation.MsgRequired)
	assert.NotContains(t, body, `value="x"`)

	var n int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSignup_FlagOff(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.FeatureFlags = "signup=off" })

	resp, _ := env.get("/auth/signup/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.postForm("/auth/signup/", nil, url.Values{
		"username": {"sarah"}, "password1": {"no-fate-1984"}, "password2": {"no-fate-1984"},
	})

	resp, body := env.get("/auth/login/?next=/follow/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="next" value="/follow/"`)

	resp, body = env.postForm("/auth/login/", nil, url.Values{"username": {"sarah"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter a correct username and password.")
	assert.Empty(t, resp.Cookies())

	resp, body = env.postForm("/auth/login/", nil, url.Values{"username": {""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, validation.MsgRequired)
}

func TestLogin_RejectsOffsiteNext(t *testing.T) {
	env := newTestEnv(t)
	env.postForm("/auth/signup/", nil, url.Values{
		"username": {"sarah"}, "password1": {"no-fate-1984"}, "password2": {"no-fate-1984"},
	})

	for _, next := range []string{"", "https://evil.example/", "//evil.example/"} {
		resp, _ := env.postForm("/auth/login/", nil, url.Values{
			"username": {"sarah"}, "password": {"no-fate-1984"}, "next": {next},
		})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"), next)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t)
	srv, err := NewServerWithDeps(env.srv.config, env.db, rdb)
	require.NoError(t, err)
	env.srv, env.app = srv, srv.NewApp()

	user := &models.User{Username: "sarah", Password: "!"}
	require.NoError(t, env.db.Create(user).Error)
	cookie := env.sessionCookie(user)

	withCookie := func(method, target string) *http.Response {
		req := httptest.NewRequest(method, target, nil)
		req.AddCookie(cookie)
		resp, _ := env.do(req, nil)
		return resp
	}

	assert.Equal(t, http.StatusOK, withCookie(http.MethodGet, "/follow/").StatusCode)

	resp := withCookie(http.MethodPost, "/auth/logout/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	var revoked int
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "blacklist:") {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked)

	resp = withCookie(http.MethodGet, "/follow/")
	assert.Equal(t, http.StatusFound, resp.StatusCode, "a revoked session is anonymous")
}
