package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/snowstore/internal/models"
)

const dashboardHotLimit = 5

// AdminHandler serves the back-office dashboard.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns entity counts and the newest hot products.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	counts := map[string]interface{}{
		"totalProducts":   &models.Product{},
		"totalUsers":      &models.User{},
		"totalCategories": &models.Category{},
		"totalBrands":     &models.Brand{},
	}
	stats := fiber.Map{}
	for key, model := range counts {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			return err
		}
		stats[key] = n
	}

	var activeBanners int64
	if err := db.Model(&models.PopupBanner{}).Where("status = ?", models.BannerActive).Count(&activeBanners).Error; err != nil {
		return err
	}
	stats["activeBanners"] = activeBanners

	var outOfStock int64
	if err := db.Model(&models.Product{}).Where("stock_quantity <= 0").Count(&outOfStock).Error; err != nil {
		return err
	}
	stats["outOfStock"] = outOfStock

	var hot []models.Product
	if err := db.Preload("Category").Preload("Brand").
		Where("is_hot = ?", true).
		Order("created_at DESC").Order("id DESC").
		Limit(dashboardHotLimit).
		Find(&hot).Error; err != nil {
		return err
	}
	stats["hotProducts"] = toProductItems(hot)

	return c.JSON(fiber.Map{"success": true, "data": stats})
}
