package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and profile
// endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type profileRequest struct {
	BusinessName string   `json:"business_name"`
	ContactName  string   `json:"contact_name"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Address      string   `json:"address"`
	FoodTypes    string   `json:"food_types"`
	Categories   string   `json:"categories"`
	PaymentTerms string   `json:"payment_terms"`
	Description  string   `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type registerRequest struct {
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Password  string         `json:"password"`
	Role      string         `json:"role"`
	Address   string         `json:"address"`
	Latitude  *float64       `json:"latitude"`
	Longitude *float64       `json:"longitude"`
	Profile   profileRequest `json:"profile"`
}

// Register creates a vendor or supplier account together with its role
// profile. Both records are created in one transaction so a profile failure
// never leaves an orphaned account behind. New accounts start pending and
// cannot log in until an admin approves them.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	role, ok := models.ParseRole(req.Role)
	if !ok || role == models.RoleAdmin {
		return fiber.NewError(fiber.StatusBadRequest, "role must be vendor or supplier")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       models.StatusPending,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		switch role {
		case models.RoleVendor:
			profile := models.VendorProfile{
				UserID:       user.ID,
				BusinessName: req.Profile.BusinessName,
				ContactName:  req.Profile.ContactName,
				Phone:        req.Profile.Phone,
				Email:        req.Profile.Email,
				Address:      req.Profile.Address,
				FoodTypes:    req.Profile.FoodTypes,
				Description:  req.Profile.Description,
				Latitude:     req.Profile.Latitude,
				Longitude:    req.Profile.Longitude,
			}
			return tx.Create(&profile).Error
		case models.RoleSupplier:
			profile := models.SupplierProfile{
				UserID:       user.ID,
				BusinessName: req.Profile.BusinessName,
				ContactName:  req.Profile.ContactName,
				Phone:        req.Profile.Phone,
				Email:        req.Profile.Email,
				Address:      req.Profile.Address,
				Categories:   req.Profile.Categories,
				PaymentTerms: req.Profile.PaymentTerms,
				Description:  req.Profile.Description,
				Latitude:     req.Profile.Latitude,
				Longitude:    req.Profile.Longitude,
			}
			return tx.Create(&profile).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":     user.ID,
			"email":  user.Email,
			"role":   user.Role,
			"status": user.Status,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an account. The status gate runs after the credential
// check, so a pending or rejected account learns why it is locked out instead
// of getting a generic credentials error.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	err := h.db.Preload("VendorProfile").Preload("SupplierProfile").
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	if err := user.AccessGate(); err != nil {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, string(user.Role), h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    loginSummary(&user),
	})
}

func loginSummary(user *models.User) fiber.Map {
	summary := fiber.Map{
		"id":     user.ID,
		"name":   user.DisplayName(),
		"email":  user.Email,
		"role":   user.Role,
		"status": user.Status,
	}
	if user.VendorProfile != nil {
		summary["profile"] = user.VendorProfile
	}
	if user.SupplierProfile != nil {
		summary["profile"] = user.SupplierProfile
	}
	return summary
}

// GetProfile returns the authenticated account with its role profile.
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("VendorProfile").Preload("SupplierProfile").
		First(&user, "id = ?", principal.ID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateProfileRequest struct {
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Profile   *profileRequest `json:"profile"`
}

// UpdateProfile updates account fields and, when provided, the role profile.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", principal.ID).Error; err != nil {
		return err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.Latitude != nil {
		user.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		user.Longitude = req.Longitude
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		if req.Profile == nil {
			return nil
		}
		switch principal.Role {
		case models.RoleVendor:
			return h.applyVendorProfile(tx, &user, req.Profile)
		case models.RoleSupplier:
			return h.applySupplierProfile(tx, &user, req.Profile)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

func (h *AuthHandler) applyVendorProfile(tx *gorm.DB, user *models.User, req *profileRequest) error {
	var profile models.VendorProfile
	if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return err
	}

	if req.BusinessName != "" {
		profile.BusinessName = req.BusinessName
	}
	if req.ContactName != "" {
		profile.ContactName = req.ContactName
	}
	if req.Phone != "" {
		profile.Phone = req.Phone
	}
	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.FoodTypes != "" {
		profile.FoodTypes = req.FoodTypes
	}
	if req.Description != "" {
		profile.Description = req.Description
	}
	if req.Latitude != nil {
		profile.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		profile.Longitude = req.Longitude
	}

	return tx.Save(&profile).Error
}

func (h *AuthHandler) applySupplierProfile(tx *gorm.DB, user *models.User, req *profileRequest) error {
	var profile models.SupplierProfile
	if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return err
	}

	if req.BusinessName != "" {
		profile.BusinessName = req.BusinessName
	}
	if req.ContactName != "" {
		profile.ContactName = req.ContactName
	}
	if req.Phone != "" {
		profile.Phone = req.Phone
	}
	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.Categories != "" {
		profile.Categories = req.Categories
	}
	if req.PaymentTerms != "" {
		profile.PaymentTerms = req.PaymentTerms
	}
	if req.Description != "" {
		profile.Description = req.Description
	}
	if req.Latitude != nil {
		profile.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		profile.Longitude = req.Longitude
	}

	return tx.Save(&profile).Error
}
