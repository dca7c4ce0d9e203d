//go:build integration

package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/snowstore/internal/database"
	"github.com/example/snowstore/internal/models"
	"github.com/example/snowstore/internal/services"
	"github.com/example/snowstore/internal/storage"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("snowstore"),
		postgres.WithUsername("snowstore"),
		postgres.WithPassword("snowstore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	testDB, err = database.Open(dsn, "silent")
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}
	os.Exit(code)
}

type fixture struct {
	disk       *storage.Disk
	engine     *services.CatalogEngine
	products   *services.ProductService
	categories *services.CategoryService
	brands     *services.BrandService
	banners    *services.BannerService
	users      *services.UserService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, testDB.Exec("TRUNCATE product_images, products, categories, brands, popup_banners, users RESTART IDENTITY CASCADE").Error)

	disk := storage.NewDisk(t.TempDir())
	assets := services.NewAssetManager(disk, 5<<20)
	return &fixture{
		disk:       disk,
		engine:     services.NewCatalogEngine(testDB),
		products:   services.NewProductService(testDB, assets),
		categories: services.NewCategoryService(testDB),
		brands:     services.NewBrandService(testDB, assets),
		banners:    services.NewBannerService(testDB, assets),
		users:      services.NewUserService(testDB),
	}
}

// image builds a real multipart file header the way a form upload arrives.
func image(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image bytes for " + name))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func images(t *testing.T, n int) []*multipart.FileHeader {
	files := make([]*multipart.FileHeader, n)
	for i := range files {
		files[i] = image(t, fmt.Sprintf("g%d.png", i))
	}
	return files
}

func (f *fixture) product(t *testing.T, name string, price int64, categoryID, brandID *uint) *models.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), services.ProductInput{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		StockQuantity: 3,
		CategoryID:    categoryID,
		BrandID:       brandID,
	}, nil, nil)
	require.NoError(t, err)
	return p
}

func TestFilterIntersectionAndFacets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	boards, err := f.categories.Create(ctx, services.CategoryInput{Name: "Boards"})
	require.NoError(t, err)
	jackets, err := f.categories.Create(ctx, services.CategoryInput{Name: "Jackets"})
	require.NoError(t, err)
	burton, err := f.brands.Create(ctx, services.BrandInput{Name: "Burton"}, nil)
	require.NoError(t, err)
	nike, err := f.brands.Create(ctx, services.BrandInput{Name: "Nike"}, nil)
	require.NoError(t, err)

	f.product(t, "Custom", 500, &boards.ID, &burton.ID)
	f.product(t, "Process", 450, &boards.ID, &burton.ID)
	f.product(t, "SB Board", 300, &boards.ID, &nike.ID)
	f.product(t, "Shell", 200, &jackets.ID, &burton.ID)
	f.product(t, "Loose", 100, nil, nil)

	q := services.ParseProductQuery(map[string]string{
		"category":   "BOARDS",
		"brands":     "burton",
		"priceRange": "400-",
	}, services.StorefrontPageSize)

	page, err := f.engine.List(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalFiltered)
	assert.EqualValues(t, 5, page.TotalAll)
	for _, p := range page.Products {
		require.NotNil(t, p.Category)
		require.NotNil(t, p.Brand)
		assert.Equal(t, "Boards", p.Category.Name)
		assert.Equal(t, "Burton", p.Brand.Name)
		assert.True(t, p.Price.GreaterThanOrEqual(decimal.NewFromInt(400)))
	}

	// brand facet ignores the brand filter but keeps the category filter
	brandCounts, err := f.engine.BrandCounts(ctx, services.ParseProductQuery(map[string]string{"category": "boards", "brands": "burton"}, 12))
	require.NoError(t, err)
	assert.Equal(t, []services.FacetCount{
		{ID: burton.ID, Name: "Burton", Count: 2},
		{ID: nike.ID, Name: "Nike", Count: 1},
	}, brandCounts)

	bounds, err := f.engine.PriceRange(ctx, services.ParseProductQuery(map[string]string{"category": "boards", "priceRange": "0-1"}, 12))
	require.NoError(t, err)
	assert.True(t, bounds.Min.Equal(decimal.NewFromInt(300)))
	assert.True(t, bounds.Max.Equal(decimal.NewFromInt(500)))
}

func TestPaginationBounds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 13; i++ {
		f.product(t, fmt.Sprintf("Product %02d", i), int64(100+i), nil, nil)
	}

	first, err := f.engine.List(ctx, services.ParseProductQuery(map[string]string{"sortBy": "name"}, 12))
	require.NoError(t, err)
	assert.Len(t, first.Products, 12)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasMore)
	assert.Equal(t, "Product 00", first.Products[0].Name)

	second, err := f.engine.List(ctx, services.ParseProductQuery(map[string]string{"sortBy": "name", "page": "2"}, 12))
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "Product 12", second.Products[0].Name)
	assert.False(t, second.HasMore)

	beyond, err := f.engine.List(ctx, services.ParseProductQuery(map[string]string{"page": "3"}, 12))
	require.NoError(t, err)
	assert.Empty(t, beyond.Products)
	assert.False(t, beyond.HasMore)
	assert.EqualValues(t, 13, beyond.TotalFiltered)
}

func TestSearchMatchesEveryTermAcrossFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	burton, err := f.brands.Create(ctx, services.BrandInput{Name: "Burton"}, nil)
	require.NoError(t, err)
	f.product(t, "Ván trượt tuyết Custom", 500, nil, &burton.ID)
	f.product(t, "Ván trượt tuyết Nitro", 400, nil, nil)
	f.product(t, "Găng tay 100%_wool", 50, nil, nil)

	page, err := f.engine.List(ctx, services.ParseProductQuery(map[string]string{"searchTerm": "TRƯỢT burton"}, 12))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Ván trượt tuyết Custom", page.Products[0].Name)

	page, err = f.engine.List(ctx, services.ParseProductQuery(map[string]string{"searchTerm": "ván"}, 12))
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalFiltered)

	// wildcards in the term are literal
	page, err = f.engine.List(ctx, services.ParseProductQuery(map[string]string{"searchTerm": "%_"}, 12))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Găng tay 100%_wool", page.Products[0].Name)

	// mixed-case accented letters fold the same on both sides
	f.product(t, "Áo khoác đỏ", 900, nil, nil)
	page, err = f.engine.List(ctx, services.ParseProductQuery(map[string]string{"searchTerm": "áo đỏ"}, 12))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Áo khoác đỏ", page.Products[0].Name)

	page, err = f.engine.List(ctx, services.ParseProductQuery(map[string]string{"searchTerm": "áo xanh"}, 12))
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	suggestions, err := f.engine.Suggestions(ctx, "v", 8)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGalleryCapIsEnforced(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board", Price: decimal.NewFromInt(10)}, image(t, "main.png"), images(t, 5))
	require.NoError(t, err)
	require.Len(t, p.Images, 5)

	_, err = f.products.AddGalleryImages(ctx, p.ID, images(t, 1))
	require.Error(t, err)
	assert.True(t, services.IsValidation(err))
	assert.Contains(t, err.Error(), "current: 5")

	// removing one frees a slot in the same edit
	updated, _, err := f.products.Update(ctx, p.ID, services.ProductUpdate{
		ProductInput:   services.ProductInput{Name: "Board", Price: decimal.NewFromInt(10)},
		RemoveImageIDs: []uint{p.Images[0].ID},
		Gallery:        images(t, 1),
	})
	require.NoError(t, err)
	assert.Len(t, updated.Images, 5)
	assert.False(t, f.disk.Exists(p.Images[0].URL))

	_, err = f.products.Create(ctx, services.ProductInput{Name: "Too many"}, nil, images(t, 6))
	assert.True(t, services.IsValidation(err))
}

func TestReorderAndSetMain(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board"}, image(t, "main.png"), images(t, 3))
	require.NoError(t, err)
	a, b, c := p.Images[0], p.Images[1], p.Images[2]

	require.NoError(t, f.products.ReorderImages(ctx, p.ID, []uint{c.ID, a.ID, b.ID}))

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	order := map[uint]int{}
	for _, img := range got.Images {
		order[img.ID] = img.SortOrder
	}
	assert.Equal(t, map[uint]int{c.ID: 1, a.ID: 2, b.ID: 3}, order)

	oldMain := got.ImageURL
	issue, err := f.products.SetMainImage(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, issue)

	got, err = f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, b.URL, got.ImageURL)
	assert.Len(t, got.Images, 2)
	assert.False(t, f.disk.Exists(oldMain))
	assert.True(t, f.disk.Exists(b.URL))
}

func TestReplaceMainImageKeepsOldOnRejectedUpload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board"}, image(t, "main.png"), nil)
	require.NoError(t, err)

	_, err = f.products.ReplaceMainImage(ctx, p.ID, image(t, "virus.exe"))
	require.Error(t, err)

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ImageURL, got.ImageURL)
	assert.True(t, f.disk.Exists(p.ImageURL))

	ref, err := f.products.ReplaceMainImage(ctx, p.ID, image(t, "new.jpg"))
	require.NoError(t, err)
	assert.True(t, f.disk.Exists(ref))
	assert.False(t, f.disk.Exists(p.ImageURL))
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	boards, err := f.categories.Create(ctx, services.CategoryInput{Name: "Boards"})
	require.NoError(t, err)
	members := []*models.Product{
		f.product(t, "Custom", 500, &boards.ID, nil),
		f.product(t, "Process", 450, &boards.ID, nil),
		f.product(t, "Feelgood", 400, &boards.ID, nil),
	}

	require.NoError(t, f.categories.Delete(ctx, boards.ID))

	for _, p := range members {
		got, err := f.products.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID, p.Name)
	}

	err = f.categories.Delete(ctx, boards.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDeleteBrandDetachesProductsAndRemovesLogo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	burton, err := f.brands.Create(ctx, services.BrandInput{Name: "Burton"}, image(t, "burton.png"))
	require.NoError(t, err)
	require.True(t, f.disk.Exists(burton.LogoURL))
	members := []*models.Product{
		f.product(t, "Custom", 500, nil, &burton.ID),
		f.product(t, "Process", 450, nil, &burton.ID),
	}

	issue, err := f.brands.Delete(ctx, burton.ID)
	require.NoError(t, err)
	assert.Nil(t, issue)
	assert.False(t, f.disk.Exists(burton.LogoURL))

	for _, p := range members {
		got, err := f.products.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got.BrandID, p.Name)
	}

	_, err = f.brands.Get(ctx, burton.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestBulkDeleteBrands(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	burton, err := f.brands.Create(ctx, services.BrandInput{Name: "Burton"}, image(t, "burton.png"))
	require.NoError(t, err)
	nitro, err := f.brands.Create(ctx, services.BrandInput{Name: "Nitro"}, nil)
	require.NoError(t, err)
	p := f.product(t, "Team", 300, nil, &nitro.ID)

	result := f.brands.BulkDelete(ctx, []uint{burton.ID, nitro.ID, 9999})

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, uint(9999), result.Errors[0].ID)
	assert.Empty(t, result.FileIssues)
	assert.False(t, f.disk.Exists(burton.LogoURL))

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BrandID)
}

// refusingUpdates returns a handle on the test database whose UPDATE
// statements always fail, so a replacement upload can never be committed.
func refusingUpdates(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, err := testDB.DB()
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:refuse_update", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("update refused"))
	}))
	return db
}

func TestReplaceBrandLogo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	brand, err := f.brands.Create(ctx, services.BrandInput{Name: "Burton"}, image(t, "old.png"))
	require.NoError(t, err)
	oldLogo := brand.LogoURL

	_, err = f.brands.Update(ctx, brand.ID, services.BrandInput{Name: "Burton Snowboards"}, image(t, "logo.exe"))
	require.Error(t, err)
	assert.True(t, services.IsValidation(err))

	got, err := f.brands.Get(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, "Burton", got.Name)
	assert.Equal(t, oldLogo, got.LogoURL)
	assert.True(t, f.disk.Exists(oldLogo))

	// the old logo survives when the row cannot be updated
	refusing := services.NewBrandService(refusingUpdates(t), services.NewAssetManager(f.disk, 5<<20))
	_, err = refusing.Update(ctx, brand.ID, services.BrandInput{Name: "Burton Snowboards"}, image(t, "new.png"))
	require.Error(t, err)
	got, err = f.brands.Get(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, oldLogo, got.LogoURL)
	assert.True(t, f.disk.Exists(oldLogo))
	logos, err := os.ReadDir(filepath.Dir(mustPath(t, f.disk, oldLogo)))
	require.NoError(t, err)
	assert.Len(t, logos, 1)

	updated, err := f.brands.Update(ctx, brand.ID, services.BrandInput{Name: "Burton Snowboards"}, image(t, "new.png"))
	require.NoError(t, err)
	assert.Equal(t, "Burton Snowboards", updated.Name)
	assert.NotEqual(t, oldLogo, updated.LogoURL)
	assert.True(t, f.disk.Exists(updated.LogoURL))
	assert.False(t, f.disk.Exists(oldLogo))

	got, err = f.brands.Get(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.LogoURL, got.LogoURL)
}

func TestReplaceBannerImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	banner, err := f.banners.Create(ctx, services.BannerInput{Title: "Sale", Active: true}, image(t, "sale.png"))
	require.NoError(t, err)
	oldImage := banner.ImageURL

	_, err = f.banners.Update(ctx, banner.ID, services.BannerInput{Title: "Big sale"}, image(t, "sale.exe"))
	require.Error(t, err)
	got, err := f.banners.Get(ctx, banner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sale", got.Title)
	assert.True(t, got.IsActive())
	assert.Equal(t, oldImage, got.ImageURL)
	assert.True(t, f.disk.Exists(oldImage))

	refusing := services.NewBannerService(refusingUpdates(t), services.NewAssetManager(f.disk, 5<<20))
	_, err = refusing.Update(ctx, banner.ID, services.BannerInput{Title: "Big sale"}, image(t, "big.webp"))
	require.Error(t, err)
	got, err = f.banners.Get(ctx, banner.ID)
	require.NoError(t, err)
	assert.Equal(t, oldImage, got.ImageURL)
	assert.True(t, f.disk.Exists(oldImage))
	files, err := os.ReadDir(filepath.Dir(mustPath(t, f.disk, oldImage)))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	updated, err := f.banners.Update(ctx, banner.ID, services.BannerInput{Title: "Big sale", DisplayOrder: 4}, image(t, "big.webp"))
	require.NoError(t, err)
	assert.Equal(t, "Big sale", updated.Title)
	assert.Equal(t, 4, updated.DisplayOrder)
	assert.False(t, updated.IsActive())
	assert.True(t, f.disk.Exists(updated.ImageURL))
	assert.False(t, f.disk.Exists(oldImage))
}

func mustPath(t *testing.T, disk *storage.Disk, ref string) string {
	t.Helper()
	full, err := disk.Path(ref)
	require.NoError(t, err)
	return full
}

func TestDeleteImageRemovesRowAndFile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board"}, nil, images(t, 2))
	require.NoError(t, err)
	gone, kept := p.Images[0], p.Images[1]

	other := f.product(t, "Other", 10, nil, nil)
	_, err = f.products.DeleteImage(ctx, other.ID, gone.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.True(t, f.disk.Exists(gone.URL))

	issue, err := f.products.DeleteImage(ctx, p.ID, gone.ID)
	require.NoError(t, err)
	assert.Nil(t, issue)
	assert.False(t, f.disk.Exists(gone.URL))
	assert.True(t, f.disk.Exists(kept.URL))

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, kept.ID, got.Images[0].ID)

	var rows int64
	require.NoError(t, testDB.Model(&models.ProductImage{}).Where("id = ?", gone.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestUpdateWithMainImageDiscardsSupersededFile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board", Price: decimal.NewFromInt(10)}, image(t, "main.png"), nil)
	require.NoError(t, err)
	oldMain := p.ImageURL

	_, _, err = f.products.Update(ctx, p.ID, services.ProductUpdate{
		ProductInput: services.ProductInput{Name: "Board v2", Price: decimal.NewFromInt(12)},
		Main:         image(t, "main.bmp"),
	})
	require.Error(t, err)
	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Board", got.Name)
	assert.Equal(t, oldMain, got.ImageURL)
	assert.True(t, f.disk.Exists(oldMain))

	updated, issues, err := f.products.Update(ctx, p.ID, services.ProductUpdate{
		ProductInput: services.ProductInput{Name: "Board v2", Price: decimal.NewFromInt(12)},
		Main:         image(t, "main.jpg"),
	})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "Board v2", updated.Name)
	assert.NotEqual(t, oldMain, updated.ImageURL)
	assert.True(t, f.disk.Exists(updated.ImageURL))
	assert.False(t, f.disk.Exists(oldMain))
}

func TestDeleteProductRemovesFiles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.products.Create(ctx, services.ProductInput{Name: "Board"}, image(t, "main.png"), images(t, 2))
	require.NoError(t, err)
	refs := []string{p.ImageURL, p.Images[0].URL, p.Images[1].URL}
	for _, ref := range refs {
		require.True(t, f.disk.Exists(ref))
	}

	issues, err := f.products.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, issues)
	for _, ref := range refs {
		assert.False(t, f.disk.Exists(ref), ref)
	}

	_, err = f.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	var orphans int64
	require.NoError(t, testDB.Model(&models.ProductImage{}).Where("product_id = ?", p.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestBulkDeleteContinuesPastFileFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stuck, err := f.products.Create(ctx, services.ProductInput{Name: "Stuck"}, image(t, "main.png"), nil)
	require.NoError(t, err)
	plain := f.product(t, "Plain", 10, nil, nil)

	// a non-empty directory in place of the file cannot be removed
	full, err := f.disk.Path(stuck.ImageURL)
	require.NoError(t, err)
	require.NoError(t, os.Remove(full))
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, "keep"), []byte("x"), 0o644))

	result := f.products.BulkDelete(ctx, []uint{stuck.ID, plain.ID, 9999})

	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, uint(9999), result.Errors[0].ID)
	require.Len(t, result.FileIssues, 1)
	assert.Equal(t, stuck.ImageURL, result.FileIssues[0].Ref)

	var left int64
	require.NoError(t, testDB.Model(&models.Product{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestBulkUpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a := f.product(t, "A", 1, nil, nil)
	b := f.product(t, "B", 1, nil, nil)

	result, err := f.products.BulkUpdateStatus(ctx, []uint{a.ID, b.ID}, "setHot")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)

	page, err := f.engine.List(ctx, services.ParseProductQuery(map[string]string{"status": "hot"}, 12))
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalFiltered)

	_, err = f.products.BulkUpdateStatus(ctx, []uint{a.ID}, "explode")
	assert.True(t, services.IsValidation(err))
}

func TestBannerLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.banners.Create(ctx, services.BannerInput{Title: "Sale", Active: true}, image(t, "sale.webp"))
	require.NoError(t, err)
	second, err := f.banners.Create(ctx, services.BannerInput{Title: "New"}, image(t, "new.png"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.DisplayOrder)
	assert.Equal(t, 2, second.DisplayOrder)

	pinned, err := f.banners.Create(ctx, services.BannerInput{Title: "Pinned", DisplayOrder: 7}, image(t, "pinned.png"))
	require.NoError(t, err)
	assert.Equal(t, 7, pinned.DisplayOrder)
	after, err := f.banners.Create(ctx, services.BannerInput{Title: "After"}, image(t, "after.png"))
	require.NoError(t, err)
	assert.Equal(t, 8, after.DisplayOrder)
	result := f.banners.BulkDelete(ctx, []uint{pinned.ID, after.ID})
	require.Equal(t, 2, result.Succeeded)

	active, err := f.banners.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Sale", active[0].Title)

	toggled, err := f.banners.ToggleStatus(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive())

	_, total, err := f.banners.List(ctx, services.BannerFilterInactive, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	result = f.banners.BulkDelete(ctx, []uint{first.ID, second.ID})
	assert.Equal(t, 2, result.Succeeded)
	assert.False(t, f.disk.Exists(first.ImageURL))
}

func TestUserRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.users.EnsureAdmin(ctx, "Administrator", "admin@snowstore.com", "Admin@123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.users.EnsureAdmin(ctx, "Other", "other@snowstore.com", "Admin@123")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := f.users.Authenticate(ctx, "ADMIN@snowstore.com", "Admin@123")
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, "admin@snowstore.com", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	customer, err := f.users.Register(ctx, services.RegisterInput{Name: "Lan", Email: "lan@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, customer.Role)

	_, err = f.users.Register(ctx, services.RegisterInput{Name: "Lan 2", Email: "LAN@example.com", Password: "secret1"})
	assert.True(t, services.IsValidation(err))

	// an admin cannot demote themselves
	edited, err := f.users.Edit(ctx, admin.ID, admin.ID, services.UserEdit{Name: "Root", Email: admin.Email, Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, edited.Role)
	assert.Equal(t, "Root", edited.Name)

	assert.True(t, services.IsValidation(f.users.Delete(ctx, admin.ID, admin.ID)))
	require.NoError(t, f.users.Delete(ctx, admin.ID, customer.ID))

	manager, err := f.users.Create(ctx, services.UserInput{Name: "M", Email: "m@example.com", Password: "Manag3r!x", Role: models.RoleManager})
	require.NoError(t, err)
	_, err = f.users.Edit(ctx, admin.ID, manager.ID, services.UserEdit{Name: "M", Email: "m@example.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, services.ErrForbidden)
}
