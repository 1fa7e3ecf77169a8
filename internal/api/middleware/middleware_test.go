package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"school-portal/config"
	"school-portal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-2026",
		Issuer:         "school-portal-auth",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func protectedRouter(mgr *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuth(mgr, nil, zap.NewNop())}
	if len(roles) > 0 {
		handlers = append(handlers, RoleAuth(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	valid, _ := mgr.GenerateAccessToken("u-1", jwt.RoleTeacher)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"缺少认证头", "", http.StatusUnauthorized},
		{"格式错误", "Token " + valid, http.StatusUnauthorized},
		{"Token 无效", "Bearer not-a-token", http.StatusUnauthorized},
		{"合法 Token", "Bearer " + valid, http.StatusOK},
	}

	r := protectedRouter(mgr)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("期望 %d，实际 %d", tt.status, w.Code)
			}
			if tt.status == http.StatusOK && w.Body.String() != "u-1" {
				t.Errorf("user_id 未注入上下文，实际=%q", w.Body.String())
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	r := protectedRouter(mgr, jwt.RoleAdmin, jwt.RoleTeacher)

	for role, status := range map[string]int{
		jwt.RoleAdmin:   http.StatusOK,
		jwt.RoleTeacher: http.StatusOK,
		jwt.RoleStudent: http.StatusForbidden,
	} {
		token, _ := mgr.GenerateAccessToken("u-"+role, role)
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != status {
			t.Errorf("角色 %s 期望 %d，实际 %d", role, status, w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"沿用外部 ID", "abc-123", true},
		{"缺失时生成", "", false},
		{"过长时重新生成", strings.Repeat("x", requestIDMaxLen+1), false},
		{"含空白时重新生成", "abc 123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" || got != w.Body.String() {
				t.Fatalf("响应头与上下文中的 ID 应一致：header=%q body=%q", got, w.Body.String())
			}
			if (got == tt.incoming) != tt.keep {
				t.Errorf("期望沿用=%v，实际 ID=%q", tt.keep, got)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.String(http.StatusOK, string(b))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader("short")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限请求期望 200，实际 %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限请求期望 413，实际 %d", w.Code)
	}
}

func TestRateLimit_WithoutRedis(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("无 Redis 时应放行，第 %d 次实际 %d", i+1, w.Code)
		}
	}
}
