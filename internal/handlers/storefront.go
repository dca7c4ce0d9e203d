package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

const (
	suggestionLimit  = 8
	quickSearchLimit = 10
	relatedLimit     = 8
)

// StorefrontHandler serves the public catalog.
type StorefrontHandler struct {
	engine     *services.CatalogEngine
	products   *services.ProductService
	categories *services.CategoryService
	brands     *services.BrandService
	banners    *services.BannerService
}

// NewStorefrontHandler constructs StorefrontHandler.
func NewStorefrontHandler(engine *services.CatalogEngine, products *services.ProductService, categories *services.CategoryService, brands *services.BrandService, banners *services.BannerService) *StorefrontHandler {
	return &StorefrontHandler{engine: engine, products: products, categories: categories, brands: brands, banners: banners}
}

// ListProducts returns the first page render data: products, facets and lookups.
func (h *StorefrontHandler) ListProducts(c *fiber.Ctx) error {
	q := services.ParseProductQuery(c.Queries(), services.StorefrontPageSize)
	return h.catalogPage(c, q)
}

// CategoryProducts lists products of one category addressed by name.
func (h *StorefrontHandler) CategoryProducts(c *fiber.Ctx) error {
	category, err := h.categories.FindByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	q := services.ParseProductQuery(c.Queries(), services.StorefrontPageSize)
	q.Category = strings.ToLower(category.Name)
	return h.catalogPage(c, q)
}

// BrandProducts lists products of one brand addressed by name.
func (h *StorefrontHandler) BrandProducts(c *fiber.Ctx) error {
	brand, err := h.brands.FindByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	q := services.ParseProductQuery(c.Queries(), services.StorefrontPageSize)
	q.Brands = []string{strings.ToLower(brand.Name)}
	return h.catalogPage(c, q)
}

func (h *StorefrontHandler) catalogPage(c *fiber.Ctx, q services.ProductQuery) error {
	ctx := c.UserContext()

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
	brandCounts, err := h.engine.BrandCounts(ctx, q)
	if err != nil {
		return err
	}
	categoryCounts, err := h.engine.CategoryCounts(ctx, q)
	if err != nil {
		return err
	}
	bounds, err := h.engine.PriceRange(ctx, q)
	if err != nil {
		return err
	}

	return c.JSON(CatalogPageResponse{
		ProductListResponse: toListResponse(page, q.SearchTerm),
		Categories:          categories,
		Brands:              brands,
		BrandCounts:         brandCounts,
		CategoryCounts:      categoryCounts,
		PriceRange:          bounds,
		Filters:             appliedFilters(q),
	})
}

// MoreProducts returns the next page for incremental loading. Without a
// page parameter it serves page 2, the page after the initial render.
func (h *StorefrontHandler) MoreProducts(c *fiber.Ctx) error {
	params := c.Queries()
	if strings.TrimSpace(params["page"]) == "" {
		params["page"] = "2"
	}
	return h.incremental(c, services.ParseProductQuery(params, services.StorefrontPageSize))
}

// Search runs the multi-term search with the usual filters.
func (h *StorefrontHandler) Search(c *fiber.Ctx) error {
	return h.incremental(c, services.ParseProductQuery(c.Queries(), services.StorefrontPageSize))
}

// FilterProducts applies filters dynamically without a page reload.
func (h *StorefrontHandler) FilterProducts(c *fiber.Ctx) error {
	return h.incremental(c, services.ParseProductQuery(c.Queries(), services.StorefrontPageSize))
}

func (h *StorefrontHandler) incremental(c *fiber.Ctx, q services.ProductQuery) error {
	page, err := h.engine.List(c.UserContext(), q)
	if err != nil {
		log.Printf("catalog page %d failed: %v", q.Page, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ProductListResponse{
			Success:     false,
			Products:    []ProductItem{},
			CurrentPage: q.Page,
			Message:     "failed to load products",
		})
	}
	return c.JSON(toListResponse(page, q.SearchTerm))
}

// Suggestions serves autocomplete entries for a partial term.
func (h *StorefrontHandler) Suggestions(c *fiber.Ctx) error {
	products, err := h.engine.Suggestions(c.UserContext(), c.Query("term"), suggestionLimit)
	if err != nil {
		return err
	}

	items := make([]SuggestionItem, 0, len(products))
	for _, p := range products {
		items = append(items, SuggestionItem{
			ID:    p.ID,
			Name:  p.Name,
			Price: utils.FormatPrice(p.Price),
			Image: p.ImageURL,
			Brand: brandName(p),
			URL:   productURL(p.ID),
		})
	}
	return c.JSON(fiber.Map{"success": true, "suggestions": items})
}

// QuickSearch returns a short list of matches for the header search box.
func (h *StorefrontHandler) QuickSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.JSON(fiber.Map{"success": false, "message": "query is required", "products": []ProductItem{}})
	}

	products, err := h.engine.QuickSearch(c.UserContext(), query, quickSearchLimit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "products": toProductItems(products), "count": len(products)})
}

// PriceRange reports min and max price for the current filters.
func (h *StorefrontHandler) PriceRange(c *fiber.Ctx) error {
	q := services.ParseProductQuery(c.Queries(), services.StorefrontPageSize)
	bounds, err := h.engine.PriceRange(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": bounds})
}

// BrandCounts reports per-brand product counts for the current filters.
func (h *StorefrontHandler) BrandCounts(c *fiber.Ctx) error {
	q := services.ParseProductQuery(c.Queries(), services.StorefrontPageSize)
	counts, err := h.engine.BrandCounts(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": counts})
}

// ProductDetails returns one product with its gallery and related products.
func (h *StorefrontHandler) ProductDetails(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	related, err := h.engine.Related(c.UserContext(), *product, relatedLimit)
	if err != nil {
		return err
	}

	resp := ProductDetailResponse{
		Success: true,
		Product: toProductDetail(*product),
		Related: toProductItems(related),
		Images:  toImageItems(product.Images),
	}
	if product.Category != nil {
		resp.CategoryName = product.Category.Name
	}
	if product.Brand != nil {
		resp.BrandName = product.Brand.Name
	}
	return c.JSON(resp)
}

// ActiveBanners lists the popup banners currently shown.
func (h *StorefrontHandler) ActiveBanners(c *fiber.Ctx) error {
	banners, err := h.banners.Active(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": banners})
}
