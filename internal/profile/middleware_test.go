package profile

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newMiddlewareRouter(mw gin.HandlerFunc, capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", mw, func(c *gin.Context) {
		*capture = c.GetString(UserIDKey)
		c.Status(http.StatusOK)
	})
	return r
}

// TestEnsureUserCookieFirstContact 验证首次访问（无cookie）时，
// 中间件签发新cookie的同时把同一个ID放入上下文，
// 下游handler不会拿到空的用户身份。
func TestEnsureUserCookieFirstContact(t *testing.T) {
	var seenID string
	router := newMiddlewareRouter(EnsureUserCookieMiddleware(), &seenID)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seenID == "" {
		t.Fatal("首次访问时上下文中的userID为空，下游handler无法识别用户")
	}
	if !IsValidUUID(seenID) {
		t.Fatalf("上下文中的userID不是合法UUID: %q", seenID)
	}

	setCookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, CookieName+"="+seenID) {
		t.Fatalf("签发的cookie与上下文中的ID不一致: %q vs %q", setCookie, seenID)
	}
}

// TestEnsureUserCookieExistingIdentity 验证携带合法cookie的请求
// 直接复用原有身份，上下文中的ID与cookie一致。
func TestEnsureUserCookieExistingIdentity(t *testing.T) {
	existing, err := CreateProvisionalUser()
	if err != nil {
		t.Fatalf("无法生成测试用UUID: %v", err)
	}

	var seenID string
	router := newMiddlewareRouter(EnsureUserCookieMiddleware(), &seenID)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: existing})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seenID != existing {
		t.Fatalf("上下文中的userID与cookie不一致: got %q, want %q", seenID, existing)
	}
	if strings.Contains(w.Header().Get("Set-Cookie"), CookieName+"=") && !strings.Contains(w.Header().Get("Set-Cookie"), existing) {
		t.Fatalf("合法cookie不应被替换: %q", w.Header().Get("Set-Cookie"))
	}
}

// TestLoadUserMiddlewareInvalidCookie 验证加载中间件对非法cookie的降级：
// 上下文中的userID为空字符串而不是报错。
func TestLoadUserMiddlewareInvalidCookie(t *testing.T) {
	var seenID string
	router := newMiddlewareRouter(LoadUserMiddleware(), &seenID)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seenID != "" {
		t.Fatalf("非法cookie应得到空userID, got %q", seenID)
	}
}
