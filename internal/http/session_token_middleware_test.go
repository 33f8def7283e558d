package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kanji-quiz/internal/service"
)

func protectedRouter(tokens *service.SessionTokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/sessions/:session_id", SessionTokenMiddleware(tokens), func(c *gin.Context) {
		if tokens.Enabled() {
			claims, ok := GetSessionClaims(c)
			if !ok || claims.SessionID != c.Param("session_id") {
				c.Status(http.StatusUnauthorized)
				return
			}
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestSessionTokenMiddleware_AllowsMatchingToken(t *testing.T) {
	tokens := service.NewSessionTokenService("secret", time.Hour)
	sessionID := uuid.NewString()
	token, _, err := tokens.Issue(sessionID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSessionTokenMiddleware_RejectsMissingToken(t *testing.T) {
	tokens := service.NewSessionTokenService("secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionTokenMiddleware_RejectsTokenFromOtherSecret(t *testing.T) {
	tokens := service.NewSessionTokenService("secret", time.Hour)
	other := service.NewSessionTokenService("other", time.Hour)
	sessionID := uuid.NewString()
	token, _, _ := other.Issue(sessionID)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedRouter(tokens).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionTokenMiddleware_DisabledPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	protectedRouter(nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
