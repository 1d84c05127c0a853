package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/opencampus/registrar-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, path string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRBACAllowsRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}
	code := performRBAC(t, claims, "/students/s1", "ADMIN", "TEACHER")
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACDeniesRole(t *testing.T) {
	studentID := "s9"
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, StudentID: &studentID}
	code := performRBAC(t, claims, "/students/s1", "ADMIN", "TEACHER")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACSelfMatchesStudentID(t *testing.T) {
	studentID := "s1"
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, StudentID: &studentID}

	assert.Equal(t, http.StatusOK, performRBAC(t, claims, "/students/s1", "ADMIN", "SELF"))
	assert.Equal(t, http.StatusForbidden, performRBAC(t, claims, "/students/s2", "ADMIN", "SELF"))
}

func TestRBACMissingClaims(t *testing.T) {
	code := performRBAC(t, nil, "/students/s1", "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, code)
}
