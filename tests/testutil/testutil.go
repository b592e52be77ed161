package testutil

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/config"
	"github.com/kendall-kelly/maintenance-orders-api/controllers"
	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)
}

// NewTestDB opens a migrated in-memory SQLite database
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.ConnectDatabase(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

// AppOptions adjusts the application built by NewTestApp
type AppOptions struct {
	QuotaBytes        int64
	RequireKnownStaff bool
	WithBackups       bool
}

// TestApp is the full HTTP application over an in-memory database with mock
// collaborators
type TestApp struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Handlers *controllers.Handlers
	Notifier *services.MockNotifier
	Backups  *services.MockBackupStore
}

// NewTestApp wires every route the way the server does
func NewTestApp(t *testing.T, opts AppOptions) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.Nop()
	db := NewTestDB(t)

	quota := opts.QuotaBytes
	if quota == 0 {
		quota = store.DefaultQuotaBytes
	}
	kv := store.NewGormStore(db, quota)

	orders := repositories.NewOrderRepository(kv, logger)
	staff := repositories.NewStaffRepository(kv, logger)
	settings := repositories.NewSettingsStore(kv, logger)

	app := &TestApp{DB: db, Notifier: services.NewMockNotifier()}

	var backups services.BackupStore
	if opts.WithBackups {
		app.Backups = services.NewMockBackupStore()
		backups = app.Backups
	}

	app.Handlers = &controllers.Handlers{
		Orders: services.NewOrderService(orders, staff, settings, services.OrderServiceOptions{
			Factory:           &models.OrderFactory{Links: models.SignatureLinkBuilder{BaseURL: "http://localhost:8080"}},
			Notifier:          app.Notifier,
			RequireKnownStaff: opts.RequireKnownStaff,
		}, logger),
		Staff:    services.NewStaffService(staff, nil, logger),
		Data:     services.NewDataService(kv, orders, staff, settings, backups, nil, logger),
		Settings: settings,
		Store:    kv,
		Logger:   logger,
	}

	app.Router = gin.New()
	app.Router.Use(gin.Recovery())
	app.Handlers.RegisterRoutes(app.Router.Group("/api/v1"))
	return app
}

// Close releases the database connection
func (a *TestApp) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
