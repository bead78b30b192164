package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type staticValidator struct {
	claims *models.JWTClaims
}

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newProtectedRouter(claims *models.JWTClaims, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{JWT(staticValidator{claims: claims})}, guards...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/teachers/:id/availability", chain...)
	return router
}

func serve(router *gin.Engine, path, token string) int {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestJWTRejectsMissingAndBadTokens(t *testing.T) {
	router := newProtectedRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})

	if code := serve(router, "/teachers/t1/availability", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing token: unexpected status %d", code)
	}
	if code := serve(router, "/teachers/t1/availability", "bad"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: unexpected status %d", code)
	}
	if code := serve(router, "/teachers/t1/availability", "good"); code != http.StatusNoContent {
		t.Fatalf("good token: unexpected status %d", code)
	}
}

func TestRBACRolesAndSelf(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"admin allowed", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, "/teachers/t1/availability", http.StatusNoContent},
		{"teacher self", &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}, "/teachers/t1/availability", http.StatusNoContent},
		{"teacher other", &models.JWTClaims{UserID: "t2", Role: models.RoleTeacher}, "/teachers/t1/availability", http.StatusForbidden},
		{"sales denied", &models.JWTClaims{UserID: "s1", Role: models.RoleSales}, "/teachers/t1/availability", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newProtectedRouter(tc.claims, RBAC(string(models.RoleAdmin), Self))
			if code := serve(router, tc.path, "good"); code != tc.want {
				t.Fatalf("unexpected status: got %d want %d", code, tc.want)
			}
		})
	}
}

func TestRateLimiterPerCaller(t *testing.T) {
	limiter := NewRateLimiter(2, nil)
	first := newProtectedRouter(&models.JWTClaims{UserID: "s1", Role: models.RoleSales}, limiter.Middleware())
	second := newProtectedRouter(&models.JWTClaims{UserID: "s2", Role: models.RoleSales}, limiter.Middleware())

	for i := 0; i < 2; i++ {
		if code := serve(first, "/teachers/t1/availability", "good"); code != http.StatusNoContent {
			t.Fatalf("request %d: unexpected status %d", i, code)
		}
	}
	if code := serve(first, "/teachers/t1/availability", "good"); code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %d", code)
	}
	if code := serve(second, "/teachers/t1/availability", "good"); code != http.StatusNoContent {
		t.Fatalf("other caller should not be limited, got %d", code)
	}
}

func TestMetricsLabelsRouteTemplates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics, "/health"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/teachers/:id/availability", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, "/teachers/teacher-abc/availability", "")
	serve(router, "/teachers/teacher-xyz/availability", "")
	serve(router, "/wp-login.php", "")
	serve(router, "/health", "")

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := recorder.Body.String()

	if !strings.Contains(body, `route="/teachers/:id/availability",status="200"} 2`) {
		t.Fatalf("expected templated route with two observations, got:\n%s", body)
	}
	if !strings.Contains(body, `route="unmatched"`) {
		t.Fatalf("expected unmatched route label")
	}
	if strings.Contains(body, `route="/health"`) {
		t.Fatalf("skipped path was recorded")
	}
	if strings.Contains(body, "teacher-abc") {
		t.Fatalf("raw path leaked into labels")
	}
}
