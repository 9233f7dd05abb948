package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/teamforge/teamforge-api/internal/constants"
)

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("teamforge_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.SessionKeyUserID, uint64(42))
		if err := session.Save(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/protected", RequireAuth(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	return r
}

func TestRequireAuth_RejectsWithoutSession(t *testing.T) {
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_PassesSessionUserToContext(t *testing.T) {
	r := newAuthTestRouter()

	login := httptest.NewRecorder()
	r.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, login.Code)
	require.NotEmpty(t, login.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "42")
}

func TestGetUserID_NormalizesIntegerTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		value  interface{}
		wantID uint64
		wantOK bool
	}{
		{"uint64", uint64(7), 7, true},
		{"int", 7, 7, true},
		{"int64", int64(7), 7, true},
		{"zero", uint64(0), 0, false},
		{"negative", -1, 0, false},
		{"string", "7", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(constants.ContextKeyUserID, tc.value)

			id, ok := GetUserID(c)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantID, id)
		})
	}
}
