package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/logger"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// AdminHandler manages admin-only endpoints: account approval and
// platform-wide listings.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

type approvalRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// SetApproval applies an approve or reject decision to an account.
// Re-applying the same decision is allowed and is a no-op. Approval also
// brings a suspended or rejected account back to active.
func (h *AdminHandler) SetApproval(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req approvalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return err
	}

	switch req.Decision {
	case "approve":
		user.Status = models.StatusActive
		user.RejectionReason = ""
	case "reject":
		user.Status = models.StatusRejected
		user.RejectionReason = req.Reason
	default:
		return fiber.NewError(fiber.StatusBadRequest, "decision must be approve or reject")
	}

	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	logger.L().Info("account approval decision",
		zap.String("account_id", user.ID.String()),
		zap.String("decision", req.Decision),
		zap.String("status", string(user.Status)),
	)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":               user.ID,
			"status":           user.Status,
			"rejection_reason": user.RejectionReason,
		},
	})
}

// Suspend moves an account into the suspended state. SetApproval(approve)
// lifts it again.
func (h *AdminHandler) Suspend(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return err
	}

	user.Status = models.StatusSuspended
	if err := h.db.Save(&user).Error; err != nil {
		return err
	}

	logger.L().Info("account suspended", zap.String("account_id", user.ID.String()))

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"id": user.ID, "status": user.Status},
	})
}

// ListPendingAccounts returns accounts awaiting an approval decision.
func (h *AdminHandler) ListPendingAccounts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{}).Where("status = ?", models.StatusPending)

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Preload("VendorProfile").Preload("SupplierProfile").
		Order("created_at asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    users,
	})
}

// ListAllUsers returns all accounts with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		q := "%" + search + "%"
		query = query.Where(
			"LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)",
			q, q, q,
		)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListAllOrders returns all orders with pagination and filtering.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := c.Query("search"); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(order_number) LIKE LOWER(?)", q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Vendor").Preload("Supplier").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var pendingAccounts int64
	if err := h.db.Model(&models.User{}).
		Where("status = ?", models.StatusPending).
		Count(&pendingAccounts).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderCancelled).
		Select("COALESCE(SUM(grand_total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	// Day boundary computed here instead of in SQL to stay portable across
	// the postgres and sqlite drivers. time.Date keeps it in local time
	// where Truncate would snap to the UTC day.
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ? AND placed_at >= ?", models.OrderCancelled, startOfDay).
		Select("COALESCE(SUM(grand_total), 0)").
		Scan(&todayRevenue).Error; err != nil {
		return err
	}

	var totalSuppliers int64
	if err := h.db.Model(&models.Supplier{}).Count(&totalSuppliers).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"pending_accounts": pendingAccounts,
			"total_orders":     totalOrders,
			"total_suppliers":  totalSuppliers,
			"total_products":   totalProducts,
			"total_revenue":    totalRevenue,
			"today_revenue":    todayRevenue,
			"orders_by_status": ordersByStatus,
		},
	})
}
