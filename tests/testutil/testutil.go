package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dfierro/tavola-api/config"
	"github.com/dfierro/tavola-api/models"
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

// RequireTestEnvironmentOrSkip is similar to RequireTestEnvironment but skips the test
// instead of failing it. Use this for optional tests that should only run in test environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// SetupTestConfig installs an in-memory configuration with a signing secret
// so token generation works without any environment setup
func SetupTestConfig() {
	config.SetConfig(&config.Config{
		GoEnv:     "test",
		JWTSecret: "test-secret-key",
		Port:      "8080",
	})
}

// OpenTestDB opens an in-memory database with the full schema migrated
// and installs it as the active connection
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Invoice{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

// SeedStaff creates a staff member with a fixed password hash. Use the
// login endpoint only when the test needs real credential checking.
func SeedStaff(t *testing.T, db *gorm.DB, name, email, role string) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfortestingonly000000000000000000000000000000",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed staff user %s: %v", email, err)
	}
	return user
}
