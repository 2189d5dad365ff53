package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/logger"
	"github.com/example/foodlink/internal/metrics"
	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// orderNumberAttempts bounds the retry loop when a concurrent creation grabs
// the same sequence number.
const orderNumberAttempts = 3

// OrderHandler manages the order lifecycle.
type OrderHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, cfg *config.Config) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	SupplierID      string             `json:"supplier_id"`
	Items           []orderItemRequest `json:"items"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryCity    string             `json:"delivery_city"`
	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
}

// CreateOrder places an order for the authenticated vendor. Line items
// snapshot the product name, unit and price at creation time; all money
// fields are derived, never taken from the request.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid supplier_id")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}

	var supplier models.User
	if err := h.db.First(&supplier, "id = ? AND role = ?", supplierID, models.RoleSupplier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	var vendorProfileCount int64
	if err := h.db.Model(&models.VendorProfile{}).
		Where("user_id = ?", principal.ID).
		Count(&vendorProfileCount).Error; err != nil {
		return err
	}
	if vendorProfileCount == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "vendor profile missing")
	}

	var supplierProfileCount int64
	if err := h.db.Model(&models.SupplierProfile{}).
		Where("user_id = ?", supplierID).
		Count(&supplierProfileCount).Error; err != nil {
		return err
	}
	if supplierProfileCount == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "supplier profile missing")
	}

	var subtotal float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "item quantity must be at least 1")
		}

		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
		}

		var product models.Product
		if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "product not found: "+line.ProductID)
			}
			return err
		}

		if product.SupplierID != supplierID {
			return fiber.NewError(fiber.StatusBadRequest,
				"product does not belong to this supplier: "+product.Name)
		}

		lineTotal := utils.Round2(product.Price * float64(line.Quantity))
		pid := product.ID
		items = append(items, models.OrderItem{
			ProductID:   &pid,
			ProductName: product.Name,
			Unit:        product.Unit,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			LineTotal:   lineTotal,
		})
		subtotal += lineTotal
	}

	subtotal = utils.Round2(subtotal)
	tax := utils.Round2(subtotal * h.cfg.OrderTaxRate)
	shipping := h.cfg.OrderShippingFee
	discount := 0.0
	grandTotal := utils.Round2(subtotal + tax + shipping - discount)

	order := models.Order{
		VendorID:        principal.ID,
		SupplierID:      supplierID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingFee:     shipping,
		Discount:        discount,
		GrandTotal:      grandTotal,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryCity:    req.DeliveryCity,
		Notes:           req.Notes,
		PlacedAt:        time.Now(),
		Items:           items,
		StatusHistory: []models.OrderStatusEvent{
			{Status: models.OrderPending, Note: "Order placed"},
		},
	}

	if err := h.createWithOrderNumber(&order); err != nil {
		return err
	}

	metrics.OrdersCreatedTotal.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"subtotal":     order.Subtotal,
			"tax":          order.Tax,
			"shipping_fee": order.ShippingFee,
			"discount":     order.Discount,
			"grand_total":  order.GrandTotal,
			"placed_at":    order.PlacedAt,
		},
	})
}

// createWithOrderNumber derives the sequential number from the collection
// count and persists the order. The count-then-write pair is not atomic, so
// the unique index on order_number backstops it: a collision gets a fresh
// sequence and another attempt.
func (h *OrderHandler) createWithOrderNumber(order *models.Order) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		var count int64
		if err := h.db.Model(&models.Order{}).Count(&count).Error; err != nil {
			return err
		}

		order.OrderNumber = fmt.Sprintf("ORD-%s-%04d",
			time.Now().Format("060102"), count+1+int64(attempt))

		err := h.db.Create(order).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		logger.L().Warn("order number collision, retrying",
			zap.String("order_number", order.OrderNumber))
		order.ID = uuid.Nil
	}

	return fiber.NewError(fiber.StatusConflict, "could not allocate order number")
}

// ListOrders returns the caller's orders: placed orders for vendors,
// received orders for suppliers, everything for admins.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	switch principal.Role {
	case models.RoleVendor:
		query = query.Where("vendor_id = ?", principal.ID)
	case models.RoleSupplier:
		query = query.Where("supplier_id = ?", principal.ID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns one order, visible only to its vendor, its supplier or an
// admin.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("StatusHistory").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if principal.Role != models.RoleAdmin &&
		order.VendorID != principal.ID && order.SupplierID != principal.ID {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to view this order")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	Status               string `json:"status"`
	Note                 string `json:"note"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
}

// UpdateStatus moves an order along the status graph. Only the order's
// supplier or an admin may call it; any edge outside the transition table is
// rejected leaving the order untouched.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next, valid := models.ParseOrderStatus(req.Status)
	if !valid {
		return fiber.NewError(fiber.StatusBadRequest, "unknown order status")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if principal.Role != models.RoleAdmin && order.SupplierID != principal.ID {
		return fiber.NewError(fiber.StatusForbidden, "only the order's supplier may update status")
	}

	if !order.Status.CanTransitionTo(next) {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("invalid status transition from %s to %s", order.Status, next))
	}

	previous := order.Status
	order.Status = next

	if next == models.OrderDelivered {
		now := time.Now()
		order.ActualDeliveryDate = &now
	}

	if req.ExpectedDeliveryDate != "" {
		expected, err := time.Parse("2006-01-02", req.ExpectedDeliveryDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected_delivery_date must be YYYY-MM-DD")
		}
		order.ExpectedDeliveryDate = &expected
	}

	note := req.Note
	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", previous, next)
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		event := models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  next,
			Note:    note,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return err
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(next)).Inc()

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		},
	})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Cancel lets the placing vendor cancel an order that has not shipped yet.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if order.VendorID != principal.ID {
		return fiber.NewError(fiber.StatusForbidden, "only the placing vendor may cancel")
	}

	if !order.Status.CanCancel() {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("order in status %s can no longer be cancelled", order.Status))
	}

	order.Status = models.OrderCancelled

	note := "Cancelled by vendor"
	if req.Reason != "" {
		note = "Cancelled by vendor: " + req.Reason
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		event := models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  models.OrderCancelled,
			Note:    note,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return err
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(models.OrderCancelled)).Inc()

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		},
	})
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
	Note          string `json:"note"`
}

// UpdatePayment sets the payment status. There is no transition table for
// payments; the history entry records the order status at the time of the
// change.
func (h *OrderHandler) UpdatePayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	next, valid := models.ParsePaymentStatus(req.PaymentStatus)
	if !valid {
		return fiber.NewError(fiber.StatusBadRequest, "unknown payment status")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	order.PaymentStatus = next
	if req.PaymentMethod != "" {
		order.PaymentMethod = req.PaymentMethod
	}

	note := fmt.Sprintf("Payment status set to %s (order %s)", next, order.Status)
	if req.Note != "" {
		note += ": " + req.Note
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		event := models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    note,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":             order.ID,
			"order_number":   order.OrderNumber,
			"payment_status": order.PaymentStatus,
		},
	})
}
