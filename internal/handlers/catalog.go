package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

// CatalogHandler manages categories and brands.
type CatalogHandler struct {
	categories *services.CategoryService
	brands     *services.BrandService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(categories *services.CategoryService, brands *services.BrandService) *CatalogHandler {
	return &CatalogHandler{categories: categories, brands: brands}
}

type categoryPayload struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func listParams(c *fiber.Ctx) (services.ListParams, utils.Pagination) {
	pg := utils.ParsePagination(c, services.AdminPageSize, false)
	return services.ListParams{
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		Page:     pg.Page,
		PageSize: pg.Limit,
	}, pg
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	params, pg := listParams(c)
	items, total, err := h.categories.List(c.UserContext(), params)
	if err != nil {
		return err
	}

	return c.JSON(ListResponse[models.Category]{
		Success:    true,
		Data:       items,
		Pagination: utils.NewPaginationMeta(pg, total),
	})
}

// GetCategory returns a single category with its product count.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	category, err := h.categories.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	count, err := h.categories.ProductCount(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": category, "productCount": count})
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload categoryPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	category, err := h.categories.Create(c.UserContext(), services.CategoryInput(payload))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(DataResponse[*models.Category]{Success: true, Data: category})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var payload categoryPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	category, err := h.categories.Update(c.UserContext(), id, services.CategoryInput(payload))
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.Category]{Success: true, Data: category})
}

// DeleteCategory removes a category. Its products become uncategorized.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.categories.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "category deleted"})
}

// BulkDeleteCategories deletes the listed categories.
func (h *CatalogHandler) BulkDeleteCategories(c *fiber.Ctx) error {
	req, err := parseBulkRequest(c)
	if err != nil {
		return err
	}
	return c.JSON(batchResponse(h.categories.BulkDelete(c.UserContext(), req.IDs), "categories"))
}

// ListBrands returns paginated brands.
func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	params, pg := listParams(c)
	items, total, err := h.brands.List(c.UserContext(), params)
	if err != nil {
		return err
	}

	return c.JSON(ListResponse[models.Brand]{
		Success:    true,
		Data:       items,
		Pagination: utils.NewPaginationMeta(pg, total),
	})
}

// GetBrand returns a single brand.
func (h *CatalogHandler) GetBrand(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	brand, err := h.brands.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.Brand]{Success: true, Data: brand})
}

// CreateBrand accepts a multipart form with name and an optional logo.
func (h *CatalogHandler) CreateBrand(c *fiber.Ctx) error {
	brand, err := h.brands.Create(c.UserContext(), services.BrandInput{Name: c.FormValue("name")}, formFile(c, "logo"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(DataResponse[*models.Brand]{Success: true, Data: brand})
}

// UpdateBrand renames a brand and optionally replaces its logo.
func (h *CatalogHandler) UpdateBrand(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	brand, err := h.brands.Update(c.UserContext(), id, services.BrandInput{Name: c.FormValue("name")}, formFile(c, "logo"))
	if err != nil {
		return err
	}
	return c.JSON(DataResponse[*models.Brand]{Success: true, Data: brand})
}

// DeleteBrand removes a brand and its logo file.
func (h *CatalogHandler) DeleteBrand(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	issue, err := h.brands.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(messageWithIssue("brand deleted", issue))
}

// BulkDeleteBrands deletes the listed brands.
func (h *CatalogHandler) BulkDeleteBrands(c *fiber.Ctx) error {
	req, err := parseBulkRequest(c)
	if err != nil {
		return err
	}
	return c.JSON(batchResponse(h.brands.BulkDelete(c.UserContext(), req.IDs), "brands"))
}
