package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"gorm.io/gorm"

	"github.com/example/snowstore/internal/models"
)

var categorySorts = map[string]string{
	"name":      "name ASC",
	"name_desc": "name DESC",
	"id":        "id ASC",
	"id_desc":   "id DESC",
}

// CategoryInput carries editable category fields.
type CategoryInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
}

// ListParams are the common admin listing parameters.
type ListParams struct {
	Search   string
	SortBy   string
	Page     int
	PageSize int
}

func (p ListParams) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// CategoryService manages categories.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService constructs CategoryService.
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// All returns every category by name.
func (s *CategoryService) All(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// List searches name and description and returns a page plus the total.
func (s *CategoryService) List(ctx context.Context, p ListParams) ([]models.Category, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Category{})
	if term := strings.TrimSpace(p.Search); term != "" {
		pattern := likePattern(strings.ToLower(term))
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(COALESCE(description, '')) LIKE LOWER(?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy, ok := categorySorts[strings.ToLower(p.SortBy)]
	if !ok {
		orderBy = categorySorts["name"]
	}

	var items []models.Category
	err := query.Order(orderBy).Order("id ASC").Offset(p.offset()).Limit(p.PageSize).Find(&items).Error
	return items, total, err
}

// Get loads a category.
func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var item models.Category
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("category", id)
		}
		return nil, err
	}
	return &item, nil
}

// FindByName matches the name case-insensitively.
func (s *CategoryService) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var item models.Category
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "category"}
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ProductCount counts products in the category.
func (s *CategoryService) ProductCount(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error
	return n, err
}

// Create inserts a category.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name, in.Description = strings.TrimSpace(in.Name), strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item := models.Category{Name: in.Name, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Update edits a category.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	in.Name, in.Description = strings.TrimSpace(in.Name), strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Name, item.Description = in.Name, in.Description
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete detaches the category's products and removes the category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil)
		if res.Error != nil {
			return res.Error
		}
		del := tx.Delete(&models.Category{}, id)
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected == 0 {
			return notFound("category", id)
		}
		return nil
	})
}

// BulkDelete deletes each category independently.
func (s *CategoryService) BulkDelete(ctx context.Context, ids []uint) *BatchResult {
	ids = uniqueIDs(ids)
	result := newBatchResult(ids)
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.Succeeded++
	}
	return result
}

// BrandInput carries editable brand fields.
type BrandInput struct {
	Name string `validate:"required,max=200"`
}

// BrandService manages brands and their logos.
type BrandService struct {
	db     *gorm.DB
	assets *AssetManager
}

// NewBrandService constructs BrandService.
func NewBrandService(db *gorm.DB, assets *AssetManager) *BrandService {
	return &BrandService{db: db, assets: assets}
}

// All returns every brand by name.
func (s *BrandService) All(ctx context.Context) ([]models.Brand, error) {
	var items []models.Brand
	err := s.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// List searches by name and returns a page plus the total.
func (s *BrandService) List(ctx context.Context, p ListParams) ([]models.Brand, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Brand{})
	if term := strings.TrimSpace(p.Search); term != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", likePattern(term))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Brand
	err := query.Order("name ASC").Order("id ASC").Offset(p.offset()).Limit(p.PageSize).Find(&items).Error
	return items, total, err
}

// Get loads a brand.
func (s *BrandService) Get(ctx context.Context, id uint) (*models.Brand, error) {
	var item models.Brand
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("brand", id)
		}
		return nil, err
	}
	return &item, nil
}

// FindByName matches the name case-insensitively.
func (s *BrandService) FindByName(ctx context.Context, name string) (*models.Brand, error) {
	var item models.Brand
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "brand"}
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a brand with an optional logo.
func (s *BrandService) Create(ctx context.Context, in BrandInput, logo *multipart.FileHeader) (*models.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	item := models.Brand{Name: in.Name}
	if logo != nil {
		ref, err := s.assets.Store(logo, AssetBrandLogo)
		if err != nil {
			return nil, err
		}
		item.LogoURL = ref
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		s.assets.Discard(item.LogoURL)
		return nil, err
	}
	return &item, nil
}

// Update renames a brand and, when logo is given, replaces its logo.
func (s *BrandService) Update(ctx context.Context, id uint, in BrandInput, logo *multipart.FileHeader) (*models.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if logo == nil {
		item.Name = in.Name
		if err := s.db.WithContext(ctx).Model(item).Update("name", in.Name).Error; err != nil {
			return nil, err
		}
		return item, nil
	}

	ref, err := s.assets.Replace(item.LogoURL, logo, AssetBrandLogo, func(newRef string) error {
		return s.db.WithContext(ctx).Model(item).Updates(map[string]interface{}{"name": in.Name, "logo_url": newRef}).Error
	})
	if err != nil {
		return nil, err
	}
	item.Name, item.LogoURL = in.Name, ref
	return item, nil
}

// Delete detaches the brand's products, removes the brand and its logo file.
func (s *BrandService) Delete(ctx context.Context, id uint) (*FileIssue, error) {
	var logo string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Brand
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("brand", id)
			}
			return err
		}
		if err := tx.Model(&models.Product{}).Where("brand_id = ?", id).Update("brand_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		logo = item.LogoURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.assets.Discard(logo), nil
}

// BulkDelete deletes each brand independently.
func (s *BrandService) BulkDelete(ctx context.Context, ids []uint) *BatchResult {
	ids = uniqueIDs(ids)
	result := newBatchResult(ids)
	for _, id := range ids {
		issue, err := s.Delete(ctx, id)
		if err != nil {
			result.fail(id, err)
			continue
		}
		result.Succeeded++
		if issue != nil {
			result.FileIssues = append(result.FileIssues, *issue)
		}
	}
	return result
}
