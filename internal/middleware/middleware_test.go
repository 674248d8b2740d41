package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func identityRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", Identity(testSecret), func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": sess.UserID, "token": sess.Token()})
	})
	return r
}

func TestIdentity_ValidToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"user_id": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	identityRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"user-1"`)
}

func TestIdentity_Anonymous(t *testing.T) {
	w := httptest.NewRecorder()
	identityRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestIdentity_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bad scheme", "Token abc", "Invalid Authorization header"},
		{"expired", "Bearer " + signedToken(t, jwt.MapClaims{"user_id": "u", "exp": time.Now().Add(-time.Minute).Unix()}), "Session expired, please login again"},
		{"no user", "Bearer " + signedToken(t, jwt.MapClaims{"email": "a@b.co"}), "User ID is missing"},
		{"garbage", "Bearer not.a.jwt", "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			identityRouter().ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestCheckoutSession_StableAcrossRequests(t *testing.T) {
	r := gin.New()
	r.Use(CheckoutSession(NewCookieStore("0123456789abcdef0123456789abcdef", false)))
	r.GET("/slot", func(c *gin.Context) {
		c.String(http.StatusOK, CheckoutSlot(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slot", nil))
	first := w.Body.String()
	require.NotEmpty(t, first)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, checkoutCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/slot", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, first, w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeLimiter) IncrementRateLimit(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiter) RateLimitTTL(context.Context, string) time.Duration {
	return 42 * time.Second
}

func TestCheckoutRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/checkout", CheckoutRateLimit(&fakeLimiter{counts: map[string]int64{}}, 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "42", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"retry_after":42`)
}
