package handlers

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/geo"
	"github.com/example/foodlink/internal/logger"
	"github.com/example/foodlink/internal/metrics"
	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// SupplierHandler manages the catalog supplier directory: CRUD, proximity
// search, verification and ratings.
type SupplierHandler struct {
	db *gorm.DB
}

// NewSupplierHandler constructs SupplierHandler.
func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{db: db}
}

// ListSuppliers returns paginated suppliers with optional filters.
func (h *SupplierHandler) ListSuppliers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Supplier{})

	if category := c.Query("category"); category != "" && category != "all" {
		query = query.Where("LOWER(category) LIKE LOWER(?)", "%"+category+"%")
	}
	if verified := c.Query("verified"); verified == "true" {
		query = query.Where("verification_status = ?", models.VerificationVerified)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", q, q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var suppliers []models.Supplier
	if err := query.Order("rating desc, name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&suppliers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    suppliers,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetSupplier returns one catalog supplier.
func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

type supplierRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// CreateSupplier creates a catalog supplier record. A supplier account gets
// linked to the record it creates; the unique user index limits each account
// to one record.
func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req supplierRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	supplier := models.Supplier{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		City:               req.City,
		Category:           req.Category,
		Description:        req.Description,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		VerificationStatus: models.VerificationNotRequested,
	}

	if principal.Role == models.RoleSupplier {
		id := principal.ID
		supplier.UserID = &id
	}

	if err := h.db.Create(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "supplier record already exists for this account")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": supplier})
}

// UpdateSupplier updates a catalog supplier. Only the owning account or an
// admin may do so. Verification and rating fields are managed by their own
// endpoints and are not touched here.
func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	if !h.canManage(principal, &supplier) {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to manage this supplier")
	}

	var req supplierRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		supplier.Name = req.Name
	}
	if req.Email != "" {
		supplier.Email = req.Email
	}
	if req.Phone != "" {
		supplier.Phone = req.Phone
	}
	if req.Address != "" {
		supplier.Address = req.Address
	}
	if req.City != "" {
		supplier.City = req.City
	}
	if req.Category != "" {
		supplier.Category = req.Category
	}
	if req.Description != "" {
		supplier.Description = req.Description
	}
	if req.Latitude != nil {
		supplier.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		supplier.Longitude = req.Longitude
	}

	if err := h.db.Save(&supplier).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

// DeleteSupplier removes a catalog supplier together with its ratings.
func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	if !h.canManage(principal, &supplier) {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to manage this supplier")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("supplier_id = ?", supplier.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Delete(&supplier).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *SupplierHandler) canManage(principal middleware.Principal, supplier *models.Supplier) bool {
	if principal.Role == models.RoleAdmin {
		return true
	}
	return supplier.UserID != nil && *supplier.UserID == principal.ID
}

// nearbySupplier is a supplier annotated with its distance from the query
// point.
type nearbySupplier struct {
	models.Supplier
	Distance float64 `json:"distance"`
}

// Nearby finds suppliers within a radius of the query point, sorted by
// ascending distance. The category filter narrows the candidate set in the
// store; the distance computation and sort happen here, so no geospatial
// index is assumed.
func (h *SupplierHandler) Nearby(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	radius, radiusErr := strconv.ParseFloat(c.Query("radius", "10"), 64)
	if latErr != nil || lngErr != nil || radiusErr != nil {
		return fiber.NewError(fiber.StatusBadRequest, "lat, lng and radius must be valid numbers")
	}

	query := h.db.Model(&models.Supplier{})
	if category := c.Query("category"); category != "" && category != "all" {
		query = query.Where("LOWER(category) LIKE LOWER(?)", "%"+category+"%")
	}

	var candidates []models.Supplier
	if err := query.Find(&candidates).Error; err != nil {
		return err
	}

	results := make([]nearbySupplier, 0, len(candidates))
	for _, supplier := range candidates {
		// Suppliers without a location are skipped, not an error.
		if supplier.Latitude == nil || supplier.Longitude == nil {
			continue
		}

		distance := geo.Distance(lat, lng, *supplier.Latitude, *supplier.Longitude)
		if distance > radius {
			continue
		}

		results = append(results, nearbySupplier{
			Supplier: supplier,
			Distance: utils.Round2(distance),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(results),
		"data":    results,
	})
}

type verificationRequest struct {
	RegistrationNumber string   `json:"registration_number"`
	TaxID              string   `json:"tax_id"`
	Documents          []string `json:"documents"`
}

// RequestVerification submits a verification request for a catalog supplier.
// Allowed only before a first submission or after a rejection.
func (h *SupplierHandler) RequestVerification(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	if !h.canManage(principal, &supplier) {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to manage this supplier")
	}

	if !supplier.VerificationStatus.CanRequest() {
		return fiber.NewError(fiber.StatusConflict,
			"verification already "+string(supplier.VerificationStatus))
	}

	var req verificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.RegistrationNumber == "" || req.TaxID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "registration_number and tax_id are required")
	}

	now := time.Now()
	supplier.VerificationStatus = models.VerificationPending
	supplier.RegistrationNumber = req.RegistrationNumber
	supplier.TaxID = req.TaxID
	supplier.DocumentPaths = strings.Join(req.Documents, ",")
	supplier.SubmittedAt = &now
	supplier.ReviewedAt = nil
	supplier.ReviewerID = nil
	supplier.ReviewNote = ""

	if err := h.db.Save(&supplier).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

type verificationDecisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// ReviewVerification records an admin decision on a pending verification
// request.
func (h *SupplierHandler) ReviewVerification(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req verificationDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var decision models.VerificationStatus
	switch req.Decision {
	case "verified", "approve":
		decision = models.VerificationVerified
	case "rejected", "reject":
		decision = models.VerificationRejected
	default:
		return fiber.NewError(fiber.StatusBadRequest, "decision must be verified or rejected")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	if supplier.VerificationStatus != models.VerificationPending {
		return fiber.NewError(fiber.StatusConflict, "no pending verification request")
	}

	now := time.Now()
	reviewer := principal.ID
	supplier.VerificationStatus = decision
	supplier.ReviewedAt = &now
	supplier.ReviewerID = &reviewer
	supplier.ReviewNote = req.Note

	if err := h.db.Save(&supplier).Error; err != nil {
		return err
	}

	logger.L().Info("supplier verification reviewed",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("decision", string(decision)),
	)

	return c.JSON(fiber.Map{"success": true, "data": supplier})
}

type ratingRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// SubmitRating records or updates the caller's rating for a supplier, then
// recomputes the supplier's denormalized average and count with a full scan.
// Concurrent submissions can leave the aggregate briefly stale; it converges
// on the next write.
func (h *SupplierHandler) SubmitRating(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	supplierID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req ratingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Score < 1 || req.Score > 5 {
		return fiber.NewError(fiber.StatusBadRequest, "score must be between 1 and 5")
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, "id = ?", supplierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "supplier not found")
		}
		return err
	}

	var rating models.Rating
	err = h.db.Where("supplier_id = ? AND user_id = ?", supplierID, principal.ID).
		First(&rating).Error
	switch {
	case err == nil:
		rating.Score = req.Score
		rating.Review = req.Review
		if err := h.db.Save(&rating).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		var rater models.User
		if err := h.db.First(&rater, "id = ?", principal.ID).Error; err != nil {
			return err
		}
		rating = models.Rating{
			SupplierID: supplierID,
			UserID:     principal.ID,
			UserName:   rater.DisplayName(),
			Score:      req.Score,
			Review:     req.Review,
		}
		if err := h.db.Create(&rating).Error; err != nil {
			return err
		}
	default:
		return err
	}

	if err := h.recomputeRating(supplierID); err != nil {
		return err
	}

	metrics.RatingsSubmittedTotal.Inc()

	var updated models.Supplier
	if err := h.db.First(&updated, "id = ?", supplierID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"rating":       rating,
			"average":      updated.Rating,
			"rating_count": updated.RatingCount,
		},
	})
}

func (h *SupplierHandler) recomputeRating(supplierID uuid.UUID) error {
	var ratings []models.Rating
	if err := h.db.Where("supplier_id = ?", supplierID).Find(&ratings).Error; err != nil {
		return err
	}

	var average float64
	if len(ratings) > 0 {
		var sum int
		for _, r := range ratings {
			sum += r.Score
		}
		average = utils.Round1(float64(sum) / float64(len(ratings)))
	}

	return h.db.Model(&models.Supplier{}).
		Where("id = ?", supplierID).
		Updates(map[string]interface{}{
			"rating":       average,
			"rating_count": len(ratings),
		}).Error
}

// ListRatings returns all ratings for a supplier.
func (h *SupplierHandler) ListRatings(c *fiber.Ctx) error {
	supplierID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var ratings []models.Rating
	if err := h.db.Where("supplier_id = ?", supplierID).
		Order("created_at desc").
		Find(&ratings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(ratings),
		"data":    ratings,
	})
}
