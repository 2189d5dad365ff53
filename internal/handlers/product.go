package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// ProductHandler manages product CRUD and search.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if v := c.Query("supplier_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			query = query.Where("supplier_id = ?", id)
		}
	}

	if category := c.Query("category"); category != "" && category != "all" {
		query = query.Where("LOWER(category) LIKE LOWER(?)", "%"+category+"%")
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", q, q)
	}

	if minPrice := c.Query("min_price"); minPrice != "" {
		if val, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", val)
		}
	}

	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if val, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", val)
		}
	}

	if c.Query("available") == "true" {
		query = query.Where("available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct loads a single product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// Trending returns products ranked by ordered volume, most ordered first.
// The signal comes from order item snapshots, so deleted products drop out
// of the ranking while past orders keep their history.
func (h *ProductHandler) Trending(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	var products []models.Product
	if err := h.db.Model(&models.Product{}).
		Select("products.*").
		Joins("JOIN order_items ON order_items.product_id = products.id").
		Group("products.id").
		Order("SUM(order_items.quantity) desc").
		Limit(limit).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(products),
		"data":    products,
	})
}

// ListBySupplier returns a supplier account's products.
func (h *ProductHandler) ListBySupplier(c *fiber.Ctx) error {
	supplierID, err := uuid.Parse(c.Params("supplierId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid supplier id")
	}

	var products []models.Product
	if err := h.db.Where("supplier_id = ?", supplierID).
		Order("name asc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(products),
		"data":    products,
	})
}

type productRequest struct {
	SupplierID  string   `json:"supplier_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Unit        string   `json:"unit"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Available   *bool    `json:"available"`
	Image       string   `json:"image"`
}

// CreateProduct creates a product owned by the calling supplier. Admins may
// create on behalf of a supplier by passing supplier_id.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	unit, ok := models.ParseUnit(req.Unit)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid unit")
	}

	if req.Price == nil || *req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be zero or greater")
	}

	quantity := 0
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be zero or greater")
		}
		quantity = *req.Quantity
	}

	supplierID := principal.ID
	if principal.Role == models.RoleAdmin {
		if req.SupplierID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "supplier_id is required")
		}
		id, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid supplier_id")
		}
		var owner models.User
		if err := h.db.First(&owner, "id = ? AND role = ?", id, models.RoleSupplier).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "supplier not found")
			}
			return err
		}
		supplierID = id
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	product := models.Product{
		SupplierID:  supplierID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Unit:        unit,
		Price:       *req.Price,
		Quantity:    quantity,
		Available:   available,
		Image:       req.Image,
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates a product owned by the caller (or any product when
// called by an admin).
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if principal.Role != models.RoleAdmin && product.SupplierID != principal.ID {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to manage this product")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Unit != "" {
		unit, ok := models.ParseUnit(req.Unit)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid unit")
		}
		product.Unit = unit
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price must be zero or greater")
		}
		product.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be zero or greater")
		}
		product.Quantity = *req.Quantity
	}
	if req.Available != nil {
		product.Available = *req.Available
	}
	if req.Image != "" {
		product.Image = req.Image
	}

	if err := h.db.Save(&product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product owned by the caller (or any product when
// called by an admin). Existing order items keep their snapshots.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if principal.Role != models.RoleAdmin && product.SupplierID != principal.ID {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to manage this product")
	}

	if err := h.db.Delete(&product).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}
