package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

// FoodHandler manages the food reference catalog and its recipes.
type FoodHandler struct {
	db *gorm.DB
}

// NewFoodHandler constructs FoodHandler.
func NewFoodHandler(db *gorm.DB) *FoodHandler {
	return &FoodHandler{db: db}
}

// ListFoods returns paginated foods with optional filters.
func (h *FoodHandler) ListFoods(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Food{})

	if category := c.Query("category"); category != "" && category != "all" {
		query = query.Where("LOWER(category) LIKE LOWER(?)", "%"+category+"%")
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?)", q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var foods []models.Food
	if err := query.Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&foods).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   total,
		"data":    foods,
	})
}

// Trending returns the highest-scoring foods.
func (h *FoodHandler) Trending(c *fiber.Ctx) error {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var foods []models.Food
	if err := h.db.Order("trending_score desc").
		Limit(limit).
		Find(&foods).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(foods),
		"data":    foods,
	})
}

// GetFood loads one food with its recipes.
func (h *FoodHandler) GetFood(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var food models.Food
	if err := h.db.Preload("Recipes").First(&food, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "food not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": food})
}

type foodRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Origin        string `json:"origin"`
	Image         string `json:"image"`
	TrendingScore *int   `json:"trending_score"`
}

// CreateFood adds a food catalog entry.
func (h *FoodHandler) CreateFood(c *fiber.Ctx) error {
	var req foodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	food := models.Food{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Origin:      req.Origin,
		Image:       req.Image,
	}
	if req.TrendingScore != nil {
		food.TrendingScore = *req.TrendingScore
	}

	if err := h.db.Create(&food).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": food})
}

// UpdateFood updates a food catalog entry.
func (h *FoodHandler) UpdateFood(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var food models.Food
	if err := h.db.First(&food, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "food not found")
		}
		return err
	}

	var req foodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		food.Name = req.Name
	}
	if req.Category != "" {
		food.Category = req.Category
	}
	if req.Description != "" {
		food.Description = req.Description
	}
	if req.Origin != "" {
		food.Origin = req.Origin
	}
	if req.Image != "" {
		food.Image = req.Image
	}
	if req.TrendingScore != nil {
		food.TrendingScore = *req.TrendingScore
	}

	if err := h.db.Save(&food).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": food})
}

// DeleteFood removes a food entry and its recipes.
func (h *FoodHandler) DeleteFood(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("food_id = ?", id).Delete(&models.Recipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Food{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListRecipes returns all recipes for a food.
func (h *FoodHandler) ListRecipes(c *fiber.Ctx) error {
	foodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var recipes []models.Recipe
	if err := h.db.Where("food_id = ?", foodID).
		Order("created_at desc").
		Find(&recipes).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(recipes),
		"data":    recipes,
	})
}

type recipeRequest struct {
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	PrepMinutes  int    `json:"prep_minutes"`
}

// AddRecipe attaches a recipe to a food entry.
func (h *FoodHandler) AddRecipe(c *fiber.Ctx) error {
	foodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var food models.Food
	if err := h.db.First(&food, "id = ?", foodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "food not found")
		}
		return err
	}

	var req recipeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	recipe := models.Recipe{
		FoodID:       food.ID,
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepMinutes:  req.PrepMinutes,
	}

	if err := h.db.Create(&recipe).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": recipe})
}
