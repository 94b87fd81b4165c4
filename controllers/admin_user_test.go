package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAdminCreateUserRejectsWeakPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/users",
		strings.NewReader(`{"username":"dave","password":"short"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	AdminCreateUser(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "at least 8 characters") {
		t.Fatalf("expected password-length error, got %s", w.Body.String())
	}
}
