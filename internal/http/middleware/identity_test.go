package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

func newIdentityDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:identity_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestIdentity_NoHeader_NoOp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newIdentityDB(t)

	r := gin.New()
	r.Use(Identity(db))
	r.GET("/", func(c *gin.Context) {
		if _, ok := c.Get(ctxKeyUserID); ok {
			t.Fatalf("userID should not be set without header")
		}
		if _, ok := c.Get(ctxKeyUserRole); ok {
			t.Fatalf("userRole should not be set without header")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdentity_KnownUser_SetsIDAndRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newIdentityDB(t)
	u := &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAgent}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := gin.New()
	r.Use(Identity(db))
	r.GET("/", func(c *gin.Context) {
		if got := c.GetString(ctxKeyUserID); got != "u1" {
			t.Fatalf("userID = %q", got)
		}
		role, ok := c.Get(ctxKeyUserRole)
		if !ok || role.(domain.Role) != domain.RoleAgent {
			t.Fatalf("userRole = %v ok=%v", role, ok)
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, " u1 ") // trimmed
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestIdentity_UnknownUser_SetsIDOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newIdentityDB(t)

	r := gin.New()
	r.Use(Identity(db))
	r.GET("/", func(c *gin.Context) {
		if got := c.GetString(ctxKeyUserID); got != "ghost" {
			t.Fatalf("userID = %q", got)
		}
		if _, ok := c.Get(ctxKeyUserRole); ok {
			t.Fatalf("userRole should not be set for unknown user")
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "ghost")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}
