package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/handlers"
	"github.com/example/foodlink/internal/middleware"
	"github.com/example/foodlink/internal/models"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db)
	supplierHandler := handlers.NewSupplierHandler(db)
	productHandler := handlers.NewProductHandler(db)
	orderHandler := handlers.NewOrderHandler(db, cfg)
	foodHandler := handlers.NewFoodHandler(db)

	authenticated := middleware.AuthMiddleware(db, cfg)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	supplierOrAdmin := middleware.RequireRoles(models.RoleSupplier, models.RoleAdmin)
	vendorOnly := middleware.RequireRoles(models.RoleVendor)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/profile", authenticated, authHandler.GetProfile)
	api.Put("/profile", authenticated, authHandler.UpdateProfile)

	// Account approval (admin)
	accounts := api.Group("/accounts", authenticated, adminOnly)
	accounts.Get("/", adminHandler.ListAllUsers)
	accounts.Get("/pending", adminHandler.ListPendingAccounts)
	accounts.Put("/:id/approval", adminHandler.SetApproval)
	accounts.Put("/:id/suspend", adminHandler.Suspend)

	admin := api.Group("/admin", authenticated, adminOnly)
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)

	// Supplier directory
	suppliers := api.Group("/suppliers")
	suppliers.Get("/", supplierHandler.ListSuppliers)
	suppliers.Get("/nearby", supplierHandler.Nearby)
	suppliers.Get("/:id", supplierHandler.GetSupplier)
	suppliers.Get("/:id/ratings", supplierHandler.ListRatings)
	suppliers.Post("/", authenticated, supplierOrAdmin, supplierHandler.CreateSupplier)
	suppliers.Put("/:id", authenticated, supplierOrAdmin, supplierHandler.UpdateSupplier)
	suppliers.Delete("/:id", authenticated, supplierOrAdmin, supplierHandler.DeleteSupplier)
	suppliers.Post("/:id/verify", authenticated, supplierOrAdmin, supplierHandler.RequestVerification)
	suppliers.Put("/:id/verification", authenticated, adminOnly, supplierHandler.ReviewVerification)
	suppliers.Post("/:id/ratings", authenticated, vendorOnly, supplierHandler.SubmitRating)

	// Products
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/trending", productHandler.Trending)
	products.Get("/supplier/:supplierId", productHandler.ListBySupplier)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", authenticated, supplierOrAdmin, productHandler.CreateProduct)
	products.Put("/:id", authenticated, supplierOrAdmin, productHandler.UpdateProduct)
	products.Delete("/:id", authenticated, supplierOrAdmin, productHandler.DeleteProduct)

	// Orders
	orders := api.Group("/orders", authenticated)
	orders.Post("/", vendorOnly, orderHandler.CreateOrder)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", supplierOrAdmin, orderHandler.UpdateStatus)
	orders.Put("/:id/cancel", vendorOnly, orderHandler.Cancel)
	orders.Put("/:id/payment", adminOnly, orderHandler.UpdatePayment)

	// Food reference catalog
	foods := api.Group("/foods")
	foods.Get("/", foodHandler.ListFoods)
	foods.Get("/trending", foodHandler.Trending)
	foods.Get("/:id", foodHandler.GetFood)
	foods.Get("/:id/recipes", foodHandler.ListRecipes)
	foods.Post("/", authenticated, adminOnly, foodHandler.CreateFood)
	foods.Put("/:id", authenticated, adminOnly, foodHandler.UpdateFood)
	foods.Delete("/:id", authenticated, adminOnly, foodHandler.DeleteFood)
	foods.Post("/:id/recipes", authenticated, adminOnly, foodHandler.AddRecipe)
}
