package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMetricsAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		user     string
		pass     string
		setAuth  bool
		want     int
	}{
		{"disabled without password", "", "", "", false, http.StatusOK},
		{"valid credentials", "secret123", "prometheus", "secret123", true, http.StatusOK},
		{"missing header", "secret123", "", "", false, http.StatusUnauthorized},
		{"wrong password", "secret123", "prometheus", "nope", true, http.StatusUnauthorized},
		{"wrong user", "secret123", "grafana", "secret123", true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := gin.New()
			router.GET("/metrics", metricsAuthMiddleware("prometheus", tt.password), func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="metrics"`, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
