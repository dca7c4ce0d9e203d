package handlers

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/utils"
)

// Fallback labels for products without a category or brand.
const (
	NoCategoryLabel = "Uncategorized"
	NoBrandLabel    = "Unknown brand"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse acknowledges a command.
type MessageResponse struct {
	Success    bool                 `json:"success"`
	Message    string               `json:"message"`
	FileIssues []services.FileIssue `json:"fileIssues,omitempty"`
}

// ProductItem is a product summary for listings.
type ProductItem struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Price         string          `json:"price"`
	RawPrice      decimal.Decimal `json:"rawPrice"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	IsHot         bool            `json:"isHot"`
	IsBestSeller  bool            `json:"isBestSeller"`
	StockQuantity int             `json:"stockQuantity"`
	URL           string          `json:"url"`
}

// ProductListResponse is a page of products for incremental loading.
type ProductListResponse struct {
	Success       bool          `json:"success"`
	Products      []ProductItem `json:"products"`
	TotalProducts int64         `json:"totalProducts"`
	AllProducts   int64         `json:"allProducts"`
	CurrentPage   int           `json:"currentPage"`
	TotalPages    int           `json:"totalPages"`
	HasMore       bool          `json:"hasMore"`
	Message       string        `json:"message"`
	SearchQuery   string        `json:"searchQuery,omitempty"`
}

// CatalogPageResponse backs the full listing page: the product page plus
// everything the filter sidebar needs.
type CatalogPageResponse struct {
	ProductListResponse
	Categories     []models.Category     `json:"categories"`
	Brands         []models.Brand        `json:"brands"`
	BrandCounts    []services.FacetCount `json:"brandCounts"`
	CategoryCounts []services.FacetCount `json:"categoryCounts"`
	PriceRange     services.PriceBounds  `json:"priceRange"`
	Filters        AppliedFilters        `json:"filters"`
}

// AppliedFilters echoes the parsed filters back to the client.
type AppliedFilters struct {
	SearchTerm string   `json:"searchTerm,omitempty"`
	Category   string   `json:"category,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	MinPrice   *string  `json:"minPrice,omitempty"`
	MaxPrice   *string  `json:"maxPrice,omitempty"`
	Status     string   `json:"status,omitempty"`
	SortBy     string   `json:"sortBy"`
}

// ProductDetailResponse is a single product with its gallery and related products.
type ProductDetailResponse struct {
	Success      bool                  `json:"success"`
	Product      ProductDetail         `json:"product"`
	Related      []ProductItem         `json:"related"`
	CategoryName string                `json:"categoryName,omitempty"`
	BrandName    string                `json:"brandName,omitempty"`
	Images       []ProductImageItem    `json:"images"`
}

// ProductImageItem is one gallery image in display order.
type ProductImageItem struct {
	ID        uint   `json:"id"`
	ProductID uint   `json:"productId"`
	URL       string `json:"url"`
	SortOrder int    `json:"sortOrder"`
}

// ProductDetail is the full product record for detail and admin views.
type ProductDetail struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	FormattedPrice string          `json:"formattedPrice"`
	StockQuantity  int             `json:"stockQuantity"`
	IsHot          bool            `json:"isHot"`
	IsBestSeller   bool            `json:"isBestSeller"`
	ImageURL       string          `json:"imageUrl"`
	CategoryID     *uint           `json:"categoryId"`
	BrandID        *uint           `json:"brandId"`
	Category       string          `json:"category"`
	Brand          string          `json:"brand"`
	CreatedAt      string          `json:"createdAt"`
}

// SuggestionItem is one autocomplete entry.
type SuggestionItem struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
	Brand string `json:"brand"`
	URL   string `json:"url"`
}

// BatchResponse reports a bulk operation.
type BatchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*services.BatchResult
}

// ListResponse is a page of admin rows.
type ListResponse[T any] struct {
	Success    bool                 `json:"success"`
	Data       []T                  `json:"data"`
	Pagination utils.PaginationMeta `json:"pagination"`
}

// DataResponse wraps a single record.
type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func productURL(id uint) string {
	return "/products/" + strconv.FormatUint(uint64(id), 10)
}

func categoryName(p models.Product) string {
	if p.Category != nil && p.Category.Name != "" {
		return p.Category.Name
	}
	return NoCategoryLabel
}

func brandName(p models.Product) string {
	if p.Brand != nil && p.Brand.Name != "" {
		return p.Brand.Name
	}
	return NoBrandLabel
}

func toProductItem(p models.Product) ProductItem {
	return ProductItem{
		ID:            p.ID,
		Name:          p.Name,
		Price:         utils.FormatPrice(p.Price),
		RawPrice:      p.Price,
		Image:         p.ImageURL,
		Category:      categoryName(p),
		Brand:         brandName(p),
		IsHot:         p.IsHot,
		IsBestSeller:  p.IsBestSeller,
		StockQuantity: p.StockQuantity,
		URL:           productURL(p.ID),
	}
}

func toProductItems(products []models.Product) []ProductItem {
	items := make([]ProductItem, 0, len(products))
	for _, p := range products {
		items = append(items, toProductItem(p))
	}
	return items
}

func toImageItems(images []models.ProductImage) []ProductImageItem {
	items := make([]ProductImageItem, 0, len(images))
	for _, img := range images {
		item := ProductImageItem{ID: img.ID, URL: img.URL, SortOrder: img.SortOrder}
		if img.ProductID != nil {
			item.ProductID = *img.ProductID
		}
		items = append(items, item)
	}
	return items
}

func toProductDetail(p models.Product) ProductDetail {
	return ProductDetail{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		FormattedPrice: utils.FormatPrice(p.Price),
		StockQuantity:  p.StockQuantity,
		IsHot:          p.IsHot,
		IsBestSeller:   p.IsBestSeller,
		ImageURL:       p.ImageURL,
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		Category:       categoryName(p),
		Brand:          brandName(p),
		CreatedAt:      p.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func toListResponse(page *services.ProductPage, searchQuery string) ProductListResponse {
	msg := "loaded"
	if len(page.Products) == 0 {
		msg = "no products found"
	}
	return ProductListResponse{
		Success:       true,
		Products:      toProductItems(page.Products),
		TotalProducts: page.TotalFiltered,
		AllProducts:   page.TotalAll,
		CurrentPage:   page.Page,
		TotalPages:    page.TotalPages,
		HasMore:       page.HasMore,
		Message:       msg,
		SearchQuery:   searchQuery,
	}
}

func appliedFilters(q services.ProductQuery) AppliedFilters {
	f := AppliedFilters{
		SearchTerm: q.SearchTerm,
		Category:   q.Category,
		Brands:     q.Brands,
		Status:     q.Status,
		SortBy:     q.SortBy,
	}
	if q.MinPrice != nil {
		s := q.MinPrice.String()
		f.MinPrice = &s
	}
	if q.MaxPrice != nil {
		s := q.MaxPrice.String()
		f.MaxPrice = &s
	}
	return f
}

func batchResponse(result *services.BatchResult, noun string) BatchResponse {
	return BatchResponse{
		Success:     len(result.Errors) == 0 || result.Succeeded > 0,
		Message:     result.Summary(noun),
		BatchResult: result,
	}
}
