package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLoggedRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestLogger(zerolog.New(buf)))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})
	router.GET("/broken", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	})
	return router
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expectedCode  int
		expectedLevel string
	}{
		{"Success logged at info", "/ok", http.StatusOK, "info"},
		{"Client error logged at warn", "/missing", http.StatusNotFound, "warn"},
		{"Server error logged at error", "/broken", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			router := setupLoggedRouter(&buf)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, "http", entry["component"])
			assert.Equal(t, http.MethodGet, entry["method"])
			assert.Equal(t, tt.path, entry["path"])
			assert.Equal(t, float64(tt.expectedCode), entry["status"])
			assert.NotEmpty(t, entry["request_id"])
		})
	}
}

func TestRequestLoggerKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := setupLoggedRouter(&buf)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.True(t, strings.Contains(buf.String(), `"request_id":"req-123"`))
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	router := setupLoggedRouter(&buf)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
