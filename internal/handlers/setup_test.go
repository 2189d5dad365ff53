package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/database"
	"github.com/example/foodlink/internal/handlers"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/routes"
	"github.com/example/foodlink/internal/utils"
)

// testPasswordHash is a bcrypt hash of "password123", precomputed so every
// seeded user does not pay the bcrypt cost.
var testPasswordHash string

func init() {
	hash, err := utils.HashPassword("password123")
	if err != nil {
		panic(err)
	}
	testPasswordHash = hash
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		AppPort:          "0",
		Env:              "test",
		JWTSecret:        "test-secret",
		TokenExpires:     time.Hour,
		OrderTaxRate:     0.05,
		OrderShippingFee: 100,
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.NewErrorHandler(cfg),
	})
	routes.Register(app, db, cfg)

	return app, db, cfg
}

func createUser(t *testing.T, db *gorm.DB, role models.Role, status models.AccountStatus, email string) models.User {
	t.Helper()

	user := models.User{
		FirstName:    "Test",
		LastName:     string(role),
		Email:        email,
		PasswordHash: testPasswordHash,
		Role:         role,
		Status:       status,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createVendorProfile(t *testing.T, db *gorm.DB, user models.User) models.VendorProfile {
	t.Helper()

	profile := models.VendorProfile{
		UserID:       user.ID,
		BusinessName: "Test Kitchen",
		ContactName:  user.DisplayName(),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create vendor profile: %v", err)
	}
	return profile
}

func createSupplierProfile(t *testing.T, db *gorm.DB, user models.User) models.SupplierProfile {
	t.Helper()

	profile := models.SupplierProfile{
		UserID:       user.ID,
		BusinessName: "Test Farms",
		ContactName:  user.DisplayName(),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create supplier profile: %v", err)
	}
	return profile
}

func createProduct(t *testing.T, db *gorm.DB, supplier models.User, name string, price float64) models.Product {
	t.Helper()

	product := models.Product{
		SupplierID: supplier.ID,
		Name:       name,
		Category:   "vegetables",
		Unit:       models.UnitKg,
		Price:      price,
		Quantity:   100,
		Available:  true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func bearer(t *testing.T, cfg *config.Config, user models.User) string {
	t.Helper()

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, string(user.Role), cfg.TokenExpires)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

// doRequest drives the app with a JSON request and decodes the JSON response
// envelope.
func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		t.Fatalf("decode response: %v", err)
	}

	return resp.StatusCode, payload
}

func dataField(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", payload)
	}
	return data
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
