package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/example/foodlink/internal/models"
)

func seedOrderAt(t *testing.T, db *gorm.DB, seq int, vendor, supplier models.User, status models.OrderStatus, total float64, placedAt time.Time) {
	t.Helper()

	order := models.Order{
		OrderNumber:   fmt.Sprintf("ORD-STATS-%04d", seq),
		VendorID:      vendor.ID,
		SupplierID:    supplier.ID,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		GrandTotal:    total,
		PlacedAt:      placedAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func TestDashboardStatsRevenueWindows(t *testing.T) {
	app, db, cfg := setupApp(t)

	admin := createUser(t, db, models.RoleAdmin, models.StatusActive, "admin@example.com")
	vendor := createUser(t, db, models.RoleVendor, models.StatusActive, "vendor@example.com")
	supplier := createUser(t, db, models.RoleSupplier, models.StatusActive, "supplier@example.com")

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// One order just before the local day boundary, one just after, one
	// cancelled today. Only the second counts toward today's revenue and
	// the cancelled one counts toward neither window.
	seedOrderAt(t, db, 1, vendor, supplier, models.OrderDelivered, 500, midnight.Add(-30*time.Minute))
	seedOrderAt(t, db, 2, vendor, supplier, models.OrderPending, 200, midnight.Add(30*time.Minute))
	seedOrderAt(t, db, 3, vendor, supplier, models.OrderCancelled, 999, midnight.Add(time.Hour))

	code, payload := doRequest(t, app, http.MethodGet, "/api/admin/stats", nil, bearer(t, cfg, admin))
	if code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %v", code, payload)
	}

	data := dataField(t, payload)
	if total, _ := data["total_revenue"].(float64); !approxEqual(total, 700) {
		t.Fatalf("expected total revenue 700, got %v", data["total_revenue"])
	}
	if today, _ := data["today_revenue"].(float64); !approxEqual(today, 200) {
		t.Fatalf("expected today revenue 200, got %v", data["today_revenue"])
	}
	if orders, _ := data["total_orders"].(float64); orders != 3 {
		t.Fatalf("expected 3 orders, got %v", data["total_orders"])
	}
}
