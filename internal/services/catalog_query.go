package services

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/snowstore/internal/models"
)

// Page sizes used by the storefront and the back office.
const (
	StorefrontPageSize = 12
	AdminPageSize      = 10
)

// Stock/flag filters accepted in the status parameter.
const (
	StatusInStock    = "instock"
	StatusOutOfStock = "outofstock"
	StatusHot        = "hot"
	StatusBestSeller = "bestseller"
)

const defaultSort = "name"

var productSorts = map[string]string{
	"name":       "products.name ASC",
	"name_asc":   "products.name ASC",
	"name_desc":  "products.name DESC",
	"price_asc":  "products.price ASC",
	"price_desc": "products.price DESC",
	"newest":     "products.created_at DESC",
	"oldest":     "products.created_at ASC",
	"stock_asc":  "products.stock_quantity ASC",
	"stock_desc": "products.stock_quantity DESC",
	"id_asc":     "products.id ASC",
	"id_desc":    "products.id DESC",
	"brand_asc":  "brands.name ASC NULLS LAST, products.name ASC",
	"brand_desc": "brands.name DESC NULLS LAST, products.name ASC",
	"hot":        "products.is_hot DESC, products.is_best_seller DESC, products.name ASC",
	"bestseller": "products.is_best_seller DESC, products.name ASC",
}

// ProductQuery is the parsed form of a catalog listing request.
type ProductQuery struct {
	SearchTerm string
	ProductID  uint
	Category   string
	CategoryID uint
	Brands     []string
	BrandID    uint
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Status     string
	SortBy     string
	Page       int
	PageSize   int
}

// ParseProductQuery reads listing parameters. Unknown or malformed values
// fall back to "no constraint" rather than failing the request.
func ParseProductQuery(params map[string]string, pageSize int) ProductQuery {
	q := ProductQuery{
		SearchTerm: strings.TrimSpace(firstNonEmpty(params["searchTerm"], params["query"])),
		ProductID:  parseID(params["productId"]),
		Category:   strings.ToLower(strings.TrimSpace(params["category"])),
		CategoryID: parseID(params["categoryId"]),
		Brands:     splitNames(firstNonEmpty(params["brands"], params["brand"])),
		BrandID:    parseID(params["brandId"]),
		Status:     normalizeStatus(params["status"]),
		SortBy:     NormalizeSort(params["sortBy"]),
		Page:       parsePage(params["page"]),
		PageSize:   pageSize,
	}

	q.MinPrice, q.MaxPrice = ParsePriceRange(params["priceRange"])
	if v, ok := parseDecimal(params["minPrice"]); ok {
		q.MinPrice = &v
	}
	if v, ok := parseDecimal(params["maxPrice"]); ok {
		q.MaxPrice = &v
	}

	if q.PageSize <= 0 {
		q.PageSize = StorefrontPageSize
	}
	return q
}

// ParsePriceRange splits "<min>-<max>". Either side may be empty, and a
// side that does not parse as a number is left unbounded.
func ParsePriceRange(raw string) (min, max *decimal.Decimal) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	lo, hi, found := strings.Cut(raw, "-")
	if !found {
		return nil, nil
	}

	if v, ok := parseDecimal(lo); ok {
		min = &v
	}
	if v, ok := parseDecimal(hi); ok {
		max = &v
	}
	return min, max
}

// NormalizeSort maps a sortBy value to a known key, defaulting to name.
func NormalizeSort(sortBy string) string {
	key := strings.ToLower(strings.TrimSpace(sortBy))
	if _, ok := productSorts[key]; ok {
		return key
	}
	return defaultSort
}

// SearchTerms splits free text into lowercase terms.
func SearchTerms(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// ProductPage is one page of a filtered, sorted listing.
type ProductPage struct {
	Products      []models.Product
	TotalFiltered int64
	TotalAll      int64
	Page          int
	PageSize      int
	TotalPages    int
	HasMore       bool
}

// FacetCount is a group-by bucket for the filter sidebar.
type FacetCount struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// PriceBounds summarises prices of the matching products.
type PriceBounds struct {
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Count int64           `json:"count"`
}

// CatalogEngine answers product listing, search and facet queries.
type CatalogEngine struct {
	db *gorm.DB
}

// NewCatalogEngine constructs CatalogEngine.
func NewCatalogEngine(db *gorm.DB) *CatalogEngine {
	return &CatalogEngine{db: db}
}

type facet int

const (
	facetNone facet = iota
	facetCategory
	facetBrand
	facetPrice
)

func (e *CatalogEngine) base(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx).
		Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Joins("LEFT JOIN brands ON brands.id = products.brand_id")
}

// Filtered returns the base query narrowed by q, without ordering or paging.
func (e *CatalogEngine) Filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	return q.apply(e.base(ctx), facetNone)
}

// apply narrows tx by every filter in q except the one named by skip.
func (q ProductQuery) apply(tx *gorm.DB, skip facet) *gorm.DB {
	if q.ProductID != 0 {
		tx = tx.Where("products.id = ?", q.ProductID)
	} else {
		tx = tx.Scopes(matchAllTerms(SearchTerms(q.SearchTerm)))
	}

	if skip != facetCategory {
		if q.Category != "" {
			tx = tx.Where("LOWER(categories.name) = LOWER(?)", q.Category)
		}
		if q.CategoryID != 0 {
			tx = tx.Where("products.category_id = ?", q.CategoryID)
		}
	}

	if skip != facetBrand {
		if len(q.Brands) > 0 {
			tx = tx.Where("LOWER(brands.name) IN (SELECT LOWER(b) FROM unnest(?::text[]) AS b)", pq.Array(q.Brands))
		}
		if q.BrandID != 0 {
			tx = tx.Where("products.brand_id = ?", q.BrandID)
		}
	}

	if skip != facetPrice {
		if q.MinPrice != nil {
			tx = tx.Where("products.price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			tx = tx.Where("products.price <= ?", *q.MaxPrice)
		}
	}

	switch q.Status {
	case StatusInStock:
		tx = tx.Where("products.stock_quantity > 0")
	case StatusOutOfStock:
		tx = tx.Where("products.stock_quantity = 0")
	case StatusHot:
		tx = tx.Where("products.is_hot = ?", true)
	case StatusBestSeller:
		tx = tx.Where("products.is_best_seller = ?", true)
	}

	return tx
}

// matchAllTerms requires every term to appear in the product name,
// description, category name or brand name.
func matchAllTerms(terms []string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, term := range terms {
			pattern := likePattern(term)
			tx = tx.Where(
				"(LOWER(products.name) LIKE LOWER(?) OR LOWER(COALESCE(products.description, '')) LIKE LOWER(?) OR LOWER(COALESCE(categories.name, '')) LIKE LOWER(?) OR LOWER(COALESCE(brands.name, '')) LIKE LOWER(?))",
				pattern, pattern, pattern, pattern,
			)
		}
		return tx
	}
}

// ordered applies the sort key with id as a stable tiebreak.
func ordered(tx *gorm.DB, sortBy string) *gorm.DB {
	orderBy, ok := productSorts[sortBy]
	if !ok {
		orderBy = productSorts[defaultSort]
	}
	return tx.Order(orderBy).Order("products.id ASC")
}

// List returns the requested page. Pages outside 1..TotalPages yield an
// empty product list with HasMore false.
func (e *CatalogEngine) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page := &ProductPage{Page: q.Page, PageSize: q.PageSize, Products: []models.Product{}}

	if err := e.base(ctx).Count(&page.TotalAll).Error; err != nil {
		return nil, err
	}
	if err := e.Filtered(ctx, q).Count(&page.TotalFiltered).Error; err != nil {
		return nil, err
	}

	page.TotalPages = TotalPages(page.TotalFiltered, q.PageSize)
	if q.Page < 1 || q.Page > page.TotalPages {
		return page, nil
	}

	tx := ordered(e.Filtered(ctx, q), q.SortBy).
		Select("products.*").
		Preload("Category").
		Preload("Brand").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize)
	if err := tx.Find(&page.Products).Error; err != nil {
		return nil, err
	}

	page.HasMore = q.Page < page.TotalPages
	return page, nil
}

// All returns every matching product in sort order, for exports.
func (e *CatalogEngine) All(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	var products []models.Product
	err := ordered(e.Filtered(ctx, q), q.SortBy).
		Select("products.*").
		Preload("Category").
		Preload("Brand").
		Find(&products).Error
	return products, err
}

// BrandCounts groups the products matching q (ignoring its brand filter) by brand.
func (e *CatalogEngine) BrandCounts(ctx context.Context, q ProductQuery) ([]FacetCount, error) {
	var out []FacetCount
	err := q.apply(e.base(ctx), facetBrand).
		Where("products.brand_id IS NOT NULL").
		Select("brands.id AS id, brands.name AS name, COUNT(*) AS count").
		Group("brands.id, brands.name").
		Order("brands.name ASC").
		Scan(&out).Error
	return out, err
}

// CategoryCounts groups the products matching q (ignoring its category filter) by category.
func (e *CatalogEngine) CategoryCounts(ctx context.Context, q ProductQuery) ([]FacetCount, error) {
	var out []FacetCount
	err := q.apply(e.base(ctx), facetCategory).
		Where("products.category_id IS NOT NULL").
		Select("categories.id AS id, categories.name AS name, COUNT(*) AS count").
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&out).Error
	return out, err
}

// PriceRange reports the price bounds of products matching q, ignoring its price filter.
func (e *CatalogEngine) PriceRange(ctx context.Context, q ProductQuery) (PriceBounds, error) {
	var bounds PriceBounds
	err := q.apply(e.base(ctx), facetPrice).
		Select("COALESCE(MIN(products.price), 0) AS min, COALESCE(MAX(products.price), 0) AS max, COUNT(*) AS count").
		Scan(&bounds).Error
	return bounds, err
}

// Suggestions returns up to limit products whose name, description or
// brand contains term. Terms shorter than two characters return nothing.
func (e *CatalogEngine) Suggestions(ctx context.Context, term string, limit int) ([]models.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len([]rune(term)) < 2 {
		return []models.Product{}, nil
	}

	pattern := likePattern(term)
	var products []models.Product
	err := e.base(ctx).
		Where("(LOWER(products.name) LIKE LOWER(?) OR LOWER(COALESCE(products.description, '')) LIKE LOWER(?) OR LOWER(COALESCE(brands.name, '')) LIKE LOWER(?))", pattern, pattern, pattern).
		Select("products.*").
		Preload("Brand").
		Order("products.name ASC").
		Order("products.id ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// QuickSearch runs the multi-term search and returns at most limit hits.
func (e *CatalogEngine) QuickSearch(ctx context.Context, text string, limit int) ([]models.Product, error) {
	terms := SearchTerms(text)
	if len(terms) == 0 {
		return []models.Product{}, nil
	}

	var products []models.Product
	err := e.base(ctx).
		Scopes(matchAllTerms(terms)).
		Select("products.*").
		Preload("Category").
		Preload("Brand").
		Order("products.name ASC").
		Order("products.id ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

// Related ranks other products by shared category, shared brand, then the
// hot and bestseller flags.
func (e *CatalogEngine) Related(ctx context.Context, product models.Product, limit int) ([]models.Product, error) {
	var products []models.Product
	err := e.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Where("id <> ?", product.ID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL: "CASE WHEN category_id IS NOT DISTINCT FROM ? THEN 0 ELSE 1 END, " +
				"CASE WHEN brand_id IS NOT DISTINCT FROM ? THEN 0 ELSE 1 END, " +
				"is_hot DESC, is_best_seller DESC, id ASC",
			Vars:               []interface{}{nullableID(product.CategoryID), nullableID(product.BrandID)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&products).Error
	return products, err
}

func nullableID(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return int64(*id)
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func likePattern(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

func splitNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func normalizeStatus(raw string) string {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case StatusInStock, StatusOutOfStock, StatusHot, StatusBestSeller:
		return s
	default:
		return ""
	}
}

func parsePage(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}

func parseID(raw string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
