package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/snowstore/internal/models"
)

// Bulk status actions.
const (
	ActionSetHot          = "sethot"
	ActionUnsetHot        = "unsethot"
	ActionSetBestSeller   = "setbestseller"
	ActionUnsetBestSeller = "unsetbestseller"
)

var statusActions = map[string]struct {
	column string
	value  bool
}{
	ActionSetHot:          {"is_hot", true},
	ActionUnsetHot:        {"is_hot", false},
	ActionSetBestSeller:   {"is_best_seller", true},
	ActionUnsetBestSeller: {"is_best_seller", false},
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name          string `validate:"required,max=200"`
	Description   string
	Price         decimal.Decimal
	StockQuantity int `validate:"gte=0"`
	IsHot         bool
	IsBestSeller  bool
	CategoryID    *uint
	BrandID       *uint
}

// ProductUpdate is an edit of fields plus gallery changes. RemoveImageIDs
// are applied before Gallery is added, so the gallery cap counts what remains.
type ProductUpdate struct {
	ProductInput
	Main           *multipart.FileHeader
	RemoveImageIDs []uint
	Gallery        []*multipart.FileHeader
}

// ProductService manages products and their image files.
type ProductService struct {
	db     *gorm.DB
	assets *AssetManager
}

// NewProductService constructs ProductService.
func NewProductService(db *gorm.DB, assets *AssetManager) *ProductService {
	return &ProductService{db: db, assets: assets}
}

func (in *ProductInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.StockQuantity = in.StockQuantity
	p.IsHot = in.IsHot
	p.IsBestSeller = in.IsBestSeller
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
}

func (s *ProductService) checkReferences(tx *gorm.DB, in ProductInput) error {
	if in.CategoryID != nil {
		var n int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("category_id", "category %d does not exist", *in.CategoryID)
		}
	}
	if in.BrandID != nil {
		var n int64
		if err := tx.Model(&models.Brand{}).Where("id = ?", *in.BrandID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("brand_id", "brand %d does not exist", *in.BrandID)
		}
	}
	return nil
}

// Get loads a product with its category, brand and ordered gallery.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order ASC").Order("id ASC")
		}).
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a product with an optional main image and up to
// MaxGalleryImages gallery images.
func (s *ProductService) Create(ctx context.Context, in ProductInput, main *multipart.FileHeader, gallery []*multipart.FileHeader) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if len(gallery) > models.MaxGalleryImages {
		return nil, invalid("images", "at most %d additional images are allowed", models.MaxGalleryImages)
	}
	if main != nil {
		if err := s.assets.Validate(main, AssetProductMain); err != nil {
			return nil, err
		}
	}

	var product models.Product
	in.apply(&product)

	var stored []string
	if main != nil {
		ref, err := s.assets.Store(main, AssetProductMain)
		if err != nil {
			return nil, err
		}
		product.ImageURL = ref
		stored = append(stored, ref)
	}

	refs, err := s.assets.StoreAll(gallery, AssetProductGallery)
	if err != nil {
		s.assets.DiscardAll(stored...)
		return nil, err
	}
	stored = append(stored, refs...)
	for i, ref := range refs {
		product.Images = append(product.Images, models.ProductImage{URL: ref, SortOrder: i + 1})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, in); err != nil {
			return err
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		s.assets.DiscardAll(stored...)
		return nil, err
	}

	return s.Get(ctx, product.ID)
}

// Update applies field edits, an optional main image replacement, gallery
// removals and gallery additions. Superseded files are discarded only after
// the rows are committed; the returned issues list files that could not be.
func (s *ProductService) Update(ctx context.Context, id uint, upd ProductUpdate) (*models.Product, []FileIssue, error) {
	if err := upd.normalize(); err != nil {
		return nil, nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	removeSet := make(map[uint]struct{}, len(upd.RemoveImageIDs))
	for _, imageID := range upd.RemoveImageIDs {
		removeSet[imageID] = struct{}{}
	}

	var removed []models.ProductImage
	remaining, maxOrder := 0, 0
	for _, img := range existing.Images {
		if _, ok := removeSet[img.ID]; ok {
			removed = append(removed, img)
			continue
		}
		remaining++
		if img.SortOrder > maxOrder {
			maxOrder = img.SortOrder
		}
	}

	if remaining+len(upd.Gallery) > models.MaxGalleryImages {
		return nil, nil, galleryFull(remaining)
	}
	if upd.Main != nil {
		if err := s.assets.Validate(upd.Main, AssetProductMain); err != nil {
			return nil, nil, err
		}
	}

	var stored []string
	newMain := ""
	if upd.Main != nil {
		if newMain, err = s.assets.Store(upd.Main, AssetProductMain); err != nil {
			return nil, nil, err
		}
		stored = append(stored, newMain)
	}

	added, err := s.assets.StoreAll(upd.Gallery, AssetProductGallery)
	if err != nil {
		s.assets.DiscardAll(stored...)
		return nil, nil, err
	}
	stored = append(stored, added...)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(tx, upd.ProductInput); err != nil {
			return err
		}

		product := *existing
		product.Images = nil
		product.Category = nil
		product.Brand = nil
		upd.apply(&product)
		if newMain != "" {
			product.ImageURL = newMain
		}

		if err := tx.Model(&product).
			Select("name", "description", "price", "stock_quantity", "is_hot", "is_best_seller", "category_id", "brand_id", "image_url").
			Updates(&product).Error; err != nil {
			return err
		}

		if len(removed) > 0 {
			ids := make([]uint, 0, len(removed))
			for _, img := range removed {
				ids = append(ids, img.ID)
			}
			if err := tx.Where("product_id = ? AND id IN ?", id, ids).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
		}

		for i, ref := range added {
			image := models.ProductImage{ProductID: &product.ID, URL: ref, SortOrder: maxOrder + i + 1}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.assets.DiscardAll(stored...)
		return nil, nil, err
	}

	var superseded []string
	if newMain != "" && existing.ImageURL != "" {
		superseded = append(superseded, existing.ImageURL)
	}
	for _, img := range removed {
		superseded = append(superseded, img.URL)
	}
	issues := s.assets.DiscardAll(superseded...)

	product, err := s.Get(ctx, id)
	return product, issues, err
}

// ReplaceMainImage swaps the product's main image. If the upload is
// rejected the stored reference and the old file are left as they were.
func (s *ProductService) ReplaceMainImage(ctx context.Context, id uint, fh *multipart.FileHeader) (string, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Select("id", "image_url").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFound("product", id)
		}
		return "", err
	}

	return s.assets.Replace(product.ImageURL, fh, AssetProductMain, func(newRef string) error {
		return s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image_url", newRef).Error
	})
}

// AddGalleryImages appends images to the gallery, rejecting the whole
// batch when it would exceed MaxGalleryImages.
func (s *ProductService) AddGalleryImages(ctx context.Context, id uint, files []*multipart.FileHeader) ([]models.ProductImage, error) {
	if len(files) == 0 {
		return nil, invalid("images", "no file uploaded")
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(product.Images)+len(files) > models.MaxGalleryImages {
		return nil, galleryFull(len(product.Images))
	}

	refs, err := s.assets.StoreAll(files, AssetProductGallery)
	if err != nil {
		return nil, err
	}

	maxOrder := 0
	for _, img := range product.Images {
		if img.SortOrder > maxOrder {
			maxOrder = img.SortOrder
		}
	}

	images := make([]models.ProductImage, 0, len(refs))
	for i, ref := range refs {
		images = append(images, models.ProductImage{ProductID: &product.ID, URL: ref, SortOrder: maxOrder + i + 1})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Recount under the transaction so two concurrent uploads cannot both pass the cap.
		var count int64
		if err := tx.Model(&models.ProductImage{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if int(count)+len(images) > models.MaxGalleryImages {
			return galleryFull(int(count))
		}
		return tx.Create(&images).Error
	})
	if err != nil {
		s.assets.DiscardAll(refs...)
		return nil, err
	}
	return images, nil
}

// DeleteImage removes one gallery image row and its file.
func (s *ProductService) DeleteImage(ctx context.Context, productID, imageID uint) (*FileIssue, error) {
	var image models.ProductImage
	err := s.db.WithContext(ctx).Where("id = ? AND product_id = ?", imageID, productID).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("image", imageID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&image).Error; err != nil {
		return nil, err
	}
	return s.assets.Discard(image.URL), nil
}

// ReorderImages assigns sort orders 1..N following orderedIDs. IDs that are
// not in the product's gallery are ignored; images left out of the list
// keep their relative order after the listed ones.
func (s *ProductService) ReorderImages(ctx context.Context, productID uint, orderedIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("product", productID)
		}

		var images []models.ProductImage
		if err := tx.Where("product_id = ?", productID).Order("sort_order ASC").Order("id ASC").Find(&images).Error; err != nil {
			return err
		}

		for i, imageID := range SequenceOrder(images, orderedIDs) {
			if err := tx.Model(&models.ProductImage{}).Where("id = ?", imageID).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SequenceOrder returns the gallery ids in their new display order:
// requested ids that belong to images first, then the rest in current order.
func SequenceOrder(images []models.ProductImage, requested []uint) []uint {
	owned := make(map[uint]bool, len(images))
	for _, img := range images {
		owned[img.ID] = true
	}

	order := make([]uint, 0, len(images))
	placed := make(map[uint]bool, len(images))
	for _, id := range requested {
		if owned[id] && !placed[id] {
			order = append(order, id)
			placed[id] = true
		}
	}
	for _, img := range images {
		if !placed[img.ID] {
			order = append(order, img.ID)
		}
	}
	return order
}

// SetMainImage promotes a gallery image to be the main image. The gallery
// row is removed and the previous main file is discarded.
func (s *ProductService) SetMainImage(ctx context.Context, productID, imageID uint) (*FileIssue, error) {
	var oldMain, newMain string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id", "image_url").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("product", productID)
			}
			return err
		}

		var image models.ProductImage
		if err := tx.Where("id = ? AND product_id = ?", imageID, productID).First(&image).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("image", imageID)
			}
			return err
		}

		if err := tx.Model(&product).Update("image_url", image.URL).Error; err != nil {
			return err
		}
		if err := tx.Delete(&image).Error; err != nil {
			return err
		}

		oldMain, newMain = product.ImageURL, image.URL
		return nil
	})
	if err != nil {
		return nil, err
	}

	if oldMain == "" || oldMain == newMain {
		return nil, nil
	}
	return s.assets.Discard(oldMain), nil
}

// Delete removes a product, its gallery rows and every file it owns.
func (s *ProductService) Delete(ctx context.Context, id uint) ([]FileIssue, error) {
	var refs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Preload("Images").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("product", id)
			}
			return err
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return err
		}

		refs = append(refs, product.ImageURL)
		for _, img := range product.Images {
			refs = append(refs, img.URL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.assets.DiscardAll(refs...), nil
}

// BulkDelete deletes each product independently; a failure on one does
// not stop the others.
func (s *ProductService) BulkDelete(ctx context.Context, ids []uint) *BatchResult {
	ids = uniqueIDs(ids)
	result := newBatchResult(ids)
	for _, id := range ids {
		issues, err := s.Delete(ctx, id)
		if err != nil {
			result.fail(id, err)
			continue
		}
		result.Succeeded++
		result.FileIssues = append(result.FileIssues, issues...)
	}
	return result
}

// BulkUpdateStatus sets or clears the hot/bestseller flag on each product.
func (s *ProductService) BulkUpdateStatus(ctx context.Context, ids []uint, action string) (*BatchResult, error) {
	change, ok := statusActions[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return nil, invalid("action", "unknown action %q", action)
	}

	ids = uniqueIDs(ids)
	result := newBatchResult(ids)
	for _, id := range ids {
		res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update(change.column, change.value)
		if res.Error != nil {
			result.fail(id, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			result.fail(id, notFound("product", id))
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func galleryFull(existing int) *ValidationError {
	return invalid("images", "a product can hold at most %d gallery images (current: %d)", models.MaxGalleryImages, existing)
}
