package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/config"
	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router   *gin.Engine
	handlers *Handlers
	notifier *services.MockNotifier
	backups  *services.MockBackupStore
}

// setupTestApp wires the handlers over an in-memory SQLite store
func setupTestApp(t *testing.T, withBackups bool) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.Nop()
	db, err := config.ConnectDatabase(":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	kv := store.NewGormStore(db, store.DefaultQuotaBytes)
	orderRepo := repositories.NewOrderRepository(kv, logger)
	staffRepo := repositories.NewStaffRepository(kv, logger)
	settings := repositories.NewSettingsStore(kv, logger)

	app := &testApp{notifier: services.NewMockNotifier()}
	var backups services.BackupStore
	if withBackups {
		app.backups = services.NewMockBackupStore()
		backups = app.backups
	}

	app.handlers = &Handlers{
		Orders: services.NewOrderService(orderRepo, staffRepo, settings, services.OrderServiceOptions{
			Factory:  &models.OrderFactory{Links: models.SignatureLinkBuilder{BaseURL: "http://localhost:8080"}},
			Notifier: app.notifier,
		}, logger),
		Staff:    services.NewStaffService(staffRepo, nil, logger),
		Data:     services.NewDataService(kv, orderRepo, staffRepo, settings, backups, nil, logger),
		Settings: settings,
		Store:    kv,
		Logger:   logger,
	}

	app.router = gin.New()
	app.handlers.RegisterRoutes(app.router.Group("/api/v1"))
	return app
}

// do sends a JSON request and decodes the JSON response envelope
func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		_ = json.Unmarshal(w.Body.Bytes(), &response)
	}
	return w, response
}

// createOrder posts a valid order and returns its number
func (a *testApp) createOrder(t *testing.T, overrides map[string]interface{}) string {
	t.Helper()

	body := validOrderBody()
	for k, v := range overrides {
		body[k] = v
	}
	w, response := a.do(t, http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return response["data"].(map[string]interface{})["orderNumber"].(string)
}

func validOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"site":     "Park",
		"building": "A",
		"floor":    "3",
		"unit":     "301",
		"reason":   "water leak",
		"staff":    "Lee",
		"amount":   1500,
	}
}

func errorCode(t *testing.T, response map[string]interface{}) string {
	t.Helper()
	assert.False(t, response["success"].(bool))
	return response["error"].(map[string]interface{})["code"].(string)
}
