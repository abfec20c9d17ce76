package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbite/quizbite/config"
)

func TestPreflightAllowsConfiguredTokenHeader(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.TokenHeader = "X-Custom-Auth"

	router := NewGinEngine(cfg)
	router.GET("/api/v1/question", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/question", nil)
	req.Header.Set("Origin", "https://quizbite.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, allowed, "x-custom-auth")
}
