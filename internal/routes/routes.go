package routes

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/snowstore/internal/config"
	"github.com/example/snowstore/internal/handlers"
	"github.com/example/snowstore/internal/middleware"
	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/storage"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	disk := storage.NewDisk(cfg.WebRoot)
	assets := services.NewAssetManager(disk, cfg.MaxUploadBytes)

	engine := services.NewCatalogEngine(db)
	productService := services.NewProductService(db, assets)
	categoryService := services.NewCategoryService(db)
	brandService := services.NewBrandService(db, assets)
	bannerService := services.NewBannerService(db, assets)
	userService := services.NewUserService(db)

	storefront := handlers.NewStorefrontHandler(engine, productService, categoryService, brandService, bannerService)
	authHandler := handlers.NewAuthHandler(userService, cfg)
	adminHandler := handlers.NewAdminHandler(db)
	adminProducts := handlers.NewAdminProductHandler(engine, productService, categoryService, brandService)
	catalogHandler := handlers.NewCatalogHandler(categoryService, brandService)
	marketingHandler := handlers.NewMarketingHandler(bannerService)
	userHandler := handlers.NewUserHandler(userService)

	app.Static("/uploads", filepath.Join(disk.Root(), "uploads"))
	app.Static("/images", filepath.Join(disk.Root(), "images"))

	app.Use(middleware.Session(cfg))

	app.Get(middleware.AccessDeniedPath, authHandler.AccessDenied)

	api := app.Group("/api")

	// Storefront
	products := api.Group("/products")
	products.Get("/", storefront.ListProducts)
	products.Get("/more", storefront.MoreProducts)
	products.Get("/search", storefront.Search)
	products.Get("/search/more", storefront.MoreProducts)
	products.Get("/filter", storefront.FilterProducts)
	products.Get("/suggestions", storefront.Suggestions)
	products.Get("/quick-search", storefront.QuickSearch)
	products.Get("/price-range", storefront.PriceRange)
	products.Get("/brand-counts", storefront.BrandCounts)
	products.Get("/category/:name", storefront.CategoryProducts)
	products.Get("/brand/:name", storefront.BrandProducts)
	products.Get("/:id", storefront.ProductDetails)

	api.Get("/banners/active", storefront.ActiveBanners)

	// Account
	account := api.Group("/account")
	account.Post("/register", authHandler.Register)
	account.Post("/login", authHandler.Login)
	account.Post("/logout", authHandler.Logout)
	account.Get("/me", middleware.RequireLogin(), authHandler.Me)

	// Back office
	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/dashboard", adminHandler.DashboardStats)

	adminProductRoutes := admin.Group("/products")
	adminProductRoutes.Get("/", adminProducts.ListProducts)
	adminProductRoutes.Get("/export", adminProducts.Export)
	adminProductRoutes.Post("/", adminProducts.CreateProduct)
	adminProductRoutes.Post("/bulk-delete", adminProducts.BulkDelete)
	adminProductRoutes.Post("/bulk-status", adminProducts.BulkUpdateStatus)
	adminProductRoutes.Get("/:id", adminProducts.GetProduct)
	adminProductRoutes.Put("/:id", adminProducts.UpdateProduct)
	adminProductRoutes.Delete("/:id", adminProducts.DeleteProduct)
	adminProductRoutes.Put("/:id/main-image", adminProducts.ReplaceMainImage)
	adminProductRoutes.Post("/:id/images", adminProducts.AddImages)
	adminProductRoutes.Put("/:id/images/order", adminProducts.ReorderImages)
	adminProductRoutes.Delete("/:id/images/:imageId", adminProducts.DeleteImage)
	adminProductRoutes.Post("/:id/images/:imageId/main", adminProducts.SetMainImage)

	categories := admin.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Post("/", catalogHandler.CreateCategory)
	categories.Post("/bulk-delete", catalogHandler.BulkDeleteCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Put("/:id", catalogHandler.UpdateCategory)
	categories.Delete("/:id", catalogHandler.DeleteCategory)

	brands := admin.Group("/brands")
	brands.Get("/", catalogHandler.ListBrands)
	brands.Post("/", catalogHandler.CreateBrand)
	brands.Post("/bulk-delete", catalogHandler.BulkDeleteBrands)
	brands.Get("/:id", catalogHandler.GetBrand)
	brands.Put("/:id", catalogHandler.UpdateBrand)
	brands.Delete("/:id", catalogHandler.DeleteBrand)

	banners := admin.Group("/banners")
	banners.Get("/", marketingHandler.ListBanners)
	banners.Post("/", marketingHandler.CreateBanner)
	banners.Post("/bulk-delete", marketingHandler.BulkDeleteBanners)
	banners.Get("/:id", marketingHandler.GetBanner)
	banners.Put("/:id", marketingHandler.UpdateBanner)
	banners.Post("/:id/toggle", marketingHandler.ToggleBanner)
	banners.Delete("/:id", marketingHandler.DeleteBanner)

	users := admin.Group("/users")
	users.Get("/", userHandler.ListUsers)
	users.Post("/", userHandler.CreateUser)
	users.Get("/generate-password", userHandler.GeneratePassword)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.EditUser)
	users.Delete("/:id", userHandler.DeleteUser)
}
