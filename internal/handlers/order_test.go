package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/models"
)

type orderFixture struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	vendor   models.User
	supplier models.User
	riceID   string
	oilID    string
}

func setupOrderFixture(t *testing.T) orderFixture {
	t.Helper()

	app, db, cfg := setupApp(t)

	fx := orderFixture{app: app, db: db, cfg: cfg}
	fx.vendor = createUser(t, db, models.RoleVendor, models.StatusActive, "vendor@example.com")
	createVendorProfile(t, db, fx.vendor)
	fx.supplier = createUser(t, db, models.RoleSupplier, models.StatusActive, "supplier@example.com")
	createSupplierProfile(t, db, fx.supplier)

	rice := createProduct(t, db, fx.supplier, "Basmati Rice", 38)
	oil := createProduct(t, db, fx.supplier, "Cottonseed Oil", 30)
	fx.riceID = rice.ID.String()
	fx.oilID = oil.ID.String()

	return fx
}

func (fx orderFixture) token(t *testing.T, user models.User) string {
	return bearer(t, fx.cfg, user)
}

func placeOrder(t *testing.T, fx orderFixture, vendorToken string) string {
	t.Helper()

	code, payload := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{{"product_id": fx.riceID, "quantity": 1}},
	}, vendorToken)
	if code != http.StatusCreated {
		t.Fatalf("place order: expected 201 got %d: %v", code, payload)
	}
	id, _ := dataField(t, payload)["id"].(string)
	if id == "" {
		t.Fatal("order id missing from response")
	}
	return id
}

func TestCreateOrderComputesTotals(t *testing.T) {
	fx := setupOrderFixture(t)

	code, payload := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items": []map[string]interface{}{
			{"product_id": fx.riceID, "quantity": 2},
			{"product_id": fx.oilID, "quantity": 1},
		},
		"delivery_address": "12 Navoi street",
		"payment_method":   "cash",
	}, fx.token(t, fx.vendor))
	if code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %v", code, payload)
	}

	data := dataField(t, payload)
	checks := map[string]float64{
		"subtotal":     106,
		"tax":          5.3,
		"shipping_fee": 100,
		"discount":     0,
		"grand_total":  211.3,
	}
	for field, want := range checks {
		got, _ := data[field].(float64)
		if !approxEqual(got, want) {
			t.Fatalf("%s: expected %v got %v", field, want, got)
		}
	}

	number, _ := data["order_number"].(string)
	if !strings.HasPrefix(number, "ORD-") {
		t.Fatalf("unexpected order number %q", number)
	}

	if data["status"] != string(models.OrderPending) {
		t.Fatalf("expected Pending status, got %v", data["status"])
	}

	// Status history starts with the placement entry.
	var events []models.OrderStatusEvent
	fx.db.Find(&events)
	if len(events) != 1 || events[0].Status != models.OrderPending || events[0].Note != "Order placed" {
		t.Fatalf("unexpected status history: %+v", events)
	}
}

func TestCreateOrderLineItemsAreSnapshots(t *testing.T) {
	fx := setupOrderFixture(t)

	code, payload := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{{"product_id": fx.riceID, "quantity": 3}},
	}, fx.token(t, fx.vendor))
	if code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %v", code, payload)
	}

	// Mutate the product after the order; the item keeps the old price.
	fx.db.Model(&models.Product{}).Where("id = ?", fx.riceID).Update("price", 99)

	var item models.OrderItem
	if err := fx.db.First(&item).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if !approxEqual(item.UnitPrice, 38) || !approxEqual(item.LineTotal, 114) {
		t.Fatalf("snapshot lost: price=%v line=%v", item.UnitPrice, item.LineTotal)
	}
	if item.ProductName != "Basmati Rice" || item.Unit != models.UnitKg {
		t.Fatalf("snapshot fields wrong: %+v", item)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)

	// Unknown supplier.
	code, _ := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": "11111111-1111-1111-1111-111111111111",
		"items":       []map[string]interface{}{{"product_id": fx.riceID, "quantity": 1}},
	}, vendorToken)
	if code != http.StatusNotFound {
		t.Fatalf("unknown supplier: expected 404 got %d", code)
	}

	// Unknown product.
	code, _ = doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items": []map[string]interface{}{
			{"product_id": "22222222-2222-2222-2222-222222222222", "quantity": 1},
		},
	}, vendorToken)
	if code != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404 got %d", code)
	}

	// Quantity below 1.
	code, _ = doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{{"product_id": fx.riceID, "quantity": 0}},
	}, vendorToken)
	if code != http.StatusBadRequest {
		t.Fatalf("zero quantity: expected 400 got %d", code)
	}

	// Empty item list.
	code, _ = doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{},
	}, vendorToken)
	if code != http.StatusBadRequest {
		t.Fatalf("empty items: expected 400 got %d", code)
	}

	// None of the failed attempts left a partial order behind.
	var count int64
	fx.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no orders persisted, got %d", count)
	}
}

func TestCreateOrderProductSupplierMismatch(t *testing.T) {
	fx := setupOrderFixture(t)

	other := createUser(t, fx.db, models.RoleSupplier, models.StatusActive, "other-supplier@example.com")
	createSupplierProfile(t, fx.db, other)
	foreign := createProduct(t, fx.db, other, "Foreign Item", 10)

	code, _ := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{{"product_id": foreign.ID.String(), "quantity": 1}},
	}, fx.token(t, fx.vendor))
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", code)
	}
}

func TestCreateOrderRequiresVendorProfile(t *testing.T) {
	fx := setupOrderFixture(t)

	// Active vendor account without a vendor profile.
	bare := createUser(t, fx.db, models.RoleVendor, models.StatusActive, "bare-vendor@example.com")

	code, payload := doRequest(t, fx.app, http.MethodPost, "/api/orders/", map[string]interface{}{
		"supplier_id": fx.supplier.ID.String(),
		"items":       []map[string]interface{}{{"product_id": fx.riceID, "quantity": 1}},
	}, fx.token(t, bare))
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %v", code, payload)
	}
}

func TestOrderStatusTransitionsOverHTTP(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)
	supplierToken := fx.token(t, fx.supplier)

	orderID := placeOrder(t, fx, vendorToken)
	statusPath := "/api/orders/" + orderID + "/status"

	// Pending -> Shipped is not an edge.
	code, _ := doRequest(t, fx.app, http.MethodPut, statusPath,
		map[string]interface{}{"status": "Shipped"}, supplierToken)
	if code != http.StatusConflict {
		t.Fatalf("Pending->Shipped: expected 409 got %d", code)
	}

	// Pending -> Processing -> Shipped -> Delivered.
	for _, status := range []string{"Processing", "Shipped", "Delivered"} {
		code, payload := doRequest(t, fx.app, http.MethodPut, statusPath,
			map[string]interface{}{"status": status}, supplierToken)
		if code != http.StatusOK {
			t.Fatalf("-> %s: expected 200 got %d: %v", status, code, payload)
		}
	}

	// Delivered stamps the actual delivery date.
	var order models.Order
	if err := fx.db.First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.ActualDeliveryDate == nil {
		t.Fatal("expected actual_delivery_date to be stamped")
	}

	// Delivered -> Processing is rejected and leaves state unchanged.
	code, _ = doRequest(t, fx.app, http.MethodPut, statusPath,
		map[string]interface{}{"status": "Processing"}, supplierToken)
	if code != http.StatusConflict {
		t.Fatalf("Delivered->Processing: expected 409 got %d", code)
	}
	if err := fx.db.First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.Status != models.OrderDelivered {
		t.Fatalf("status changed after rejected transition: %s", order.Status)
	}

	// History: placement plus the three transitions.
	var events int64
	fx.db.Model(&models.OrderStatusEvent{}).Where("order_id = ?", orderID).Count(&events)
	if events != 4 {
		t.Fatalf("expected 4 history entries, got %d", events)
	}
}

func TestOrderStatusVendorCannotUpdate(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)

	orderID := placeOrder(t, fx, vendorToken)

	code, _ := doRequest(t, fx.app, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]interface{}{"status": "Processing"}, vendorToken)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", code)
	}
}

func TestOrderStatusForeignSupplierCannotUpdate(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)

	orderID := placeOrder(t, fx, vendorToken)

	intruder := createUser(t, fx.db, models.RoleSupplier, models.StatusActive, "intruder@example.com")
	code, _ := doRequest(t, fx.app, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]interface{}{"status": "Processing"}, fx.token(t, intruder))
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", code)
	}
}

func TestCancelOrder(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)
	supplierToken := fx.token(t, fx.supplier)

	orderID := placeOrder(t, fx, vendorToken)
	cancelPath := "/api/orders/" + orderID + "/cancel"

	// Another vendor cannot cancel on the placing vendor's behalf.
	otherVendor := createUser(t, fx.db, models.RoleVendor, models.StatusActive, "other-vendor@example.com")
	code, _ := doRequest(t, fx.app, http.MethodPut, cancelPath,
		map[string]interface{}{"reason": "not mine"}, fx.token(t, otherVendor))
	if code != http.StatusForbidden {
		t.Fatalf("foreign vendor cancel: expected 403 got %d", code)
	}

	// Vendor cancels from Pending.
	code, payload := doRequest(t, fx.app, http.MethodPut, cancelPath,
		map[string]interface{}{"reason": "changed my mind"}, vendorToken)
	if code != http.StatusOK {
		t.Fatalf("cancel: expected 200 got %d: %v", code, payload)
	}

	// Cancelled is terminal for the supplier too.
	code, _ = doRequest(t, fx.app, http.MethodPut, "/api/orders/"+orderID+"/status",
		map[string]interface{}{"status": "Processing"}, supplierToken)
	if code != http.StatusConflict {
		t.Fatalf("Cancelled->Processing: expected 409 got %d", code)
	}

	// A shipped order cannot be cancelled.
	secondID := placeOrder(t, fx, vendorToken)
	for _, status := range []string{"Processing", "Shipped"} {
		code, _ = doRequest(t, fx.app, http.MethodPut, "/api/orders/"+secondID+"/status",
			map[string]interface{}{"status": status}, supplierToken)
		if code != http.StatusOK {
			t.Fatalf("-> %s: expected 200 got %d", status, code)
		}
	}
	code, _ = doRequest(t, fx.app, http.MethodPut, "/api/orders/"+secondID+"/cancel",
		map[string]interface{}{}, vendorToken)
	if code != http.StatusConflict {
		t.Fatalf("cancel shipped: expected 409 got %d", code)
	}
}

func TestUpdatePaymentAdminOnly(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)
	supplierToken := fx.token(t, fx.supplier)

	orderID := placeOrder(t, fx, vendorToken)
	paymentPath := "/api/orders/" + orderID + "/payment"

	code, _ := doRequest(t, fx.app, http.MethodPut, paymentPath,
		map[string]interface{}{"payment_status": "Paid"}, supplierToken)
	if code != http.StatusForbidden {
		t.Fatalf("supplier payment update: expected 403 got %d", code)
	}

	admin := createUser(t, fx.db, models.RoleAdmin, models.StatusActive, "admin@example.com")
	adminToken := fx.token(t, admin)

	code, payload := doRequest(t, fx.app, http.MethodPut, paymentPath,
		map[string]interface{}{"payment_status": "Paid", "payment_method": "bank_transfer"}, adminToken)
	if code != http.StatusOK {
		t.Fatalf("admin payment update: expected 200 got %d: %v", code, payload)
	}

	var order models.Order
	if err := fx.db.First(&order, "id = ?", orderID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid || order.PaymentMethod != "bank_transfer" {
		t.Fatalf("unexpected payment state: %s / %s", order.PaymentStatus, order.PaymentMethod)
	}

	// Unknown payment status rejected.
	code, _ = doRequest(t, fx.app, http.MethodPut, paymentPath,
		map[string]interface{}{"payment_status": "Settled"}, adminToken)
	if code != http.StatusBadRequest {
		t.Fatalf("bad payment status: expected 400 got %d", code)
	}
}

func TestListOrdersScopedByRole(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)
	supplierToken := fx.token(t, fx.supplier)

	placeOrder(t, fx, vendorToken)
	placeOrder(t, fx, vendorToken)

	otherVendor := createUser(t, fx.db, models.RoleVendor, models.StatusActive, "other-vendor@example.com")
	createVendorProfile(t, fx.db, otherVendor)
	otherToken := fx.token(t, otherVendor)

	code, payload := doRequest(t, fx.app, http.MethodGet, "/api/orders/", nil, vendorToken)
	if code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if count, _ := payload["count"].(float64); count != 2 {
		t.Fatalf("vendor should see 2 orders, got %v", payload["count"])
	}

	code, payload = doRequest(t, fx.app, http.MethodGet, "/api/orders/", nil, otherToken)
	if code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if count, _ := payload["count"].(float64); count != 0 {
		t.Fatalf("other vendor should see 0 orders, got %v", payload["count"])
	}

	code, payload = doRequest(t, fx.app, http.MethodGet, "/api/orders/", nil, supplierToken)
	if code != http.StatusOK {
		t.Fatalf("expected 200 got %d", code)
	}
	if count, _ := payload["count"].(float64); count != 2 {
		t.Fatalf("supplier should see 2 orders, got %v", payload["count"])
	}
}

func TestGetOrderVisibility(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)

	orderID := placeOrder(t, fx, vendorToken)
	path := "/api/orders/" + orderID

	outsider := createUser(t, fx.db, models.RoleVendor, models.StatusActive, "outsider@example.com")
	code, _ := doRequest(t, fx.app, http.MethodGet, path, nil, fx.token(t, outsider))
	if code != http.StatusForbidden {
		t.Fatalf("outsider: expected 403 got %d", code)
	}

	for _, u := range []models.User{fx.vendor, fx.supplier} {
		code, payload := doRequest(t, fx.app, http.MethodGet, path, nil, fx.token(t, u))
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %v", u.Email, code, payload)
		}
	}
}

func TestOrderNumbersAreSequential(t *testing.T) {
	fx := setupOrderFixture(t)
	vendorToken := fx.token(t, fx.vendor)

	first := placeOrder(t, fx, vendorToken)
	second := placeOrder(t, fx, vendorToken)

	var a, b models.Order
	if err := fx.db.First(&a, "id = ?", first).Error; err != nil {
		t.Fatalf("reload first: %v", err)
	}
	if err := fx.db.First(&b, "id = ?", second).Error; err != nil {
		t.Fatalf("reload second: %v", err)
	}

	if !strings.HasSuffix(a.OrderNumber, "-0001") || !strings.HasSuffix(b.OrderNumber, "-0002") {
		t.Fatalf("unexpected order numbers %q %q", a.OrderNumber, b.OrderNumber)
	}
}
