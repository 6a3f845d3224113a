package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewManager("test-secret-that-is-long-enough-123", time.Hour, rdb), mr
}

func TestManager_IssueAndParse(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	token, expires, err := m.Issue(&models.User{ID: 42, Username: "leo"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Parse(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "leo", claims.Username)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestManager_ParseRejectsForeignTokens(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	other := NewManager("another-secret-that-is-long-enough", time.Hour, nil)
	token, _, err := other.Issue(&models.User{ID: 1, Username: "x"})
	require.NoError(t, err)

	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongAud := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := wrongAud.SignedString(m.secret)
	require.NoError(t, err)
	_, err = m.Parse(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Revoke(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, _, err := m.Issue(&models.User{ID: 7, Username: "anna"})
	require.NoError(t, err)
	claims, err := m.Parse(ctx, token)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))

	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestFromCtx(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		assert.Nil(t, FromCtx(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/user", func(c *fiber.Ctx) error {
		c.Locals(LocalsKey, &Principal{ID: 3, Username: "boris"})
		p := FromCtx(c)
		require.NotNil(t, p)
		assert.True(t, p.IsAuthenticated())
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, path := range []string{"/anon", "/user"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	var p *Principal
	assert.False(t, p.IsAuthenticated())
}
