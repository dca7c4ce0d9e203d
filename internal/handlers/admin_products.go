package handlers

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

// AdminProductHandler manages products in the back office.
type AdminProductHandler struct {
	engine     *services.CatalogEngine
	products   *services.ProductService
	categories *services.CategoryService
	brands     *services.BrandService
}

// NewAdminProductHandler constructs AdminProductHandler.
func NewAdminProductHandler(engine *services.CatalogEngine, products *services.ProductService, categories *services.CategoryService, brands *services.BrandService) *AdminProductHandler {
	return &AdminProductHandler{engine: engine, products: products, categories: categories, brands: brands}
}

// AdminProductListResponse is the back-office product table.
type AdminProductListResponse struct {
	Success     bool                 `json:"success"`
	Products    []ProductItem        `json:"products"`
	Pagination  utils.PaginationMeta `json:"pagination"`
	AllProducts int64                `json:"allProducts"`
	Categories  []models.Category    `json:"categories"`
	Brands      []models.Brand       `json:"brands"`
	Filters     AppliedFilters       `json:"filters"`
}

// ListProducts returns a filtered page of products.
func (h *AdminProductHandler) ListProducts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	q := services.ParseProductQuery(c.Queries(), services.AdminPageSize)

	page, err := h.engine.List(ctx, q)
	if err != nil {
		return err
	}
	categories, err := h.categories.All(ctx)
	if err != nil {
		return err
	}
	brands, err := h.brands.All(ctx)
	if err != nil {
		return err
	}

	return c.JSON(AdminProductListResponse{
		Success:     true,
		Products:    toProductItems(page.Products),
		Pagination:  utils.NewPaginationMeta(utils.Pagination{Page: q.Page, Limit: q.PageSize}, page.TotalFiltered),
		AllProducts: page.TotalAll,
		Categories:  categories,
		Brands:      brands,
		Filters:     appliedFilters(q),
	})
}

// GetProduct returns a product with its gallery.
func (h *AdminProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toProductDetail(*product), "images": toImageItems(product.Images)})
}

// CreateProduct handles a multipart form with mainImage and additionalImages.
func (h *AdminProductHandler) CreateProduct(c *fiber.Ctx) error {
	in, err := productInputFromForm(c)
	if err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), in, formFile(c, "mainImage"), formFiles(c, "additionalImages"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "product created",
		"data":    toProductDetail(*product),
		"images":  toImageItems(product.Images),
	})
}

// UpdateProduct applies field edits, main image replacement and gallery changes.
func (h *AdminProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	in, err := productInputFromForm(c)
	if err != nil {
		return err
	}

	product, issues, err := h.products.Update(c.UserContext(), id, services.ProductUpdate{
		ProductInput:   in,
		Main:           formFile(c, "mainImage"),
		RemoveImageIDs: formIDs(c, "deletedImageIds"),
		Gallery:        formFiles(c, "additionalImages"),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "product updated",
		"data":       toProductDetail(*product),
		"images":     toImageItems(product.Images),
		"fileIssues": issues,
	})
}

// ReplaceMainImage swaps only the main image.
func (h *AdminProductHandler) ReplaceMainImage(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	ref, err := h.products.ReplaceMainImage(c.UserContext(), id, formFile(c, "mainImage"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "imageUrl": ref})
}

// AddImages appends gallery images.
func (h *AdminProductHandler) AddImages(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	images, err := h.products.AddGalleryImages(c.UserContext(), id, formFiles(c, "images"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": toImageItems(images)})
}

// DeleteImage removes one gallery image.
func (h *AdminProductHandler) DeleteImage(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := utils.ParseID(c, "imageId")
	if err != nil {
		return err
	}

	issue, err := h.products.DeleteImage(c.UserContext(), id, imageID)
	if err != nil {
		return err
	}
	return c.JSON(messageWithIssue("image deleted", issue))
}

// ReorderImages accepts {"imageIds": [...]} in display order.
func (h *AdminProductHandler) ReorderImages(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req reorderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.products.ReorderImages(c.UserContext(), id, req.ImageIDs); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "image order updated"})
}

// SetMainImage promotes a gallery image to the main image.
func (h *AdminProductHandler) SetMainImage(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := utils.ParseID(c, "imageId")
	if err != nil {
		return err
	}

	issue, err := h.products.SetMainImage(c.UserContext(), id, imageID)
	if err != nil {
		return err
	}
	return c.JSON(messageWithIssue("main image updated", issue))
}

// DeleteProduct removes a product and its files.
func (h *AdminProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	issues, err := h.products.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "product deleted", FileIssues: issues})
}

// BulkDelete deletes the listed products.
func (h *AdminProductHandler) BulkDelete(c *fiber.Ctx) error {
	req, err := parseBulkRequest(c)
	if err != nil {
		return err
	}
	result := h.products.BulkDelete(c.UserContext(), req.IDs)
	return c.JSON(batchResponse(result, "products"))
}

// BulkUpdateStatus sets or clears hot/bestseller on the listed products.
func (h *AdminProductHandler) BulkUpdateStatus(c *fiber.Ctx) error {
	req, err := parseBulkRequest(c)
	if err != nil {
		return err
	}
	result, err := h.products.BulkUpdateStatus(c.UserContext(), req.IDs, req.Action)
	if err != nil {
		return err
	}
	return c.JSON(batchResponse(result, "products"))
}

var exportHeader = []string{"ID", "Name", "Category", "Brand", "Price", "Stock", "Hot", "Best seller", "Image", "Created"}

// Export streams the filtered catalog as CSV.
func (h *AdminProductHandler) Export(c *fiber.Ctx) error {
	q := services.ParseProductQuery(c.Queries(), services.AdminPageSize)
	products, err := h.engine.All(c.UserContext(), q)
	if err != nil {
		return err
	}

	body, err := ProductsCSV(products)
	if err != nil {
		return err
	}

	filename := "products_" + time.Now().Format("20060102_150405") + ".csv"
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(filename)
	return c.Send(body)
}

// ProductsCSV renders products as UTF-8 CSV with a byte order mark so
// spreadsheet tools detect the encoding.
func ProductsCSV(products []models.Product) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, p := range products {
		record := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			categoryName(p),
			brandName(p),
			p.Price.StringFixed(2),
			strconv.Itoa(p.StockQuantity),
			strconv.FormatBool(p.IsHot),
			strconv.FormatBool(p.IsBestSeller),
			p.ImageURL,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func messageWithIssue(msg string, issue *services.FileIssue) MessageResponse {
	resp := MessageResponse{Success: true, Message: msg}
	if issue != nil {
		resp.FileIssues = []services.FileIssue{*issue}
	}
	return resp
}
