package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"gorm.io/gorm"

	"github.com/example/snowstore/internal/models"
)

// Banner status filters for the admin list.
const (
	BannerFilterAll      = "all"
	BannerFilterActive   = "active"
	BannerFilterInactive = "inactive"
)

// BannerInput carries editable banner fields. A zero DisplayOrder on
// create means "after the last banner".
type BannerInput struct {
	Title        string `validate:"required,max=200"`
	Description  string `validate:"max=500"`
	DisplayOrder int    `validate:"omitempty,gte=1,lte=999"`
	Active       bool
}

// BannerService manages popup banners and their images.
type BannerService struct {
	db     *gorm.DB
	assets *AssetManager
}

// NewBannerService constructs BannerService.
func NewBannerService(db *gorm.DB, assets *AssetManager) *BannerService {
	return &BannerService{db: db, assets: assets}
}

func (in *BannerInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return validateInput(in)
}

func statusOf(active bool) string {
	if active {
		return models.BannerActive
	}
	return models.BannerInactive
}

// List filters by status and orders by display order, newest first within ties.
func (s *BannerService) List(ctx context.Context, status string, page, pageSize int) ([]models.PopupBanner, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PopupBanner{})
	switch strings.ToLower(status) {
	case BannerFilterActive:
		query = query.Where("status = ?", models.BannerActive)
	case BannerFilterInactive:
		query = query.Where("status = ?", models.BannerInactive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.PopupBanner
	err := query.Order("display_order ASC").Order("created_at DESC").Order("id DESC").
		Offset(ListParams{Page: page, PageSize: pageSize}.offset()).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// Active returns the banners shown on the storefront.
func (s *BannerService) Active(ctx context.Context) ([]models.PopupBanner, error) {
	var items []models.PopupBanner
	err := s.db.WithContext(ctx).
		Where("status = ?", models.BannerActive).
		Order("display_order ASC").Order("id ASC").
		Find(&items).Error
	return items, err
}

// Get loads a banner.
func (s *BannerService) Get(ctx context.Context, id uint) (*models.PopupBanner, error) {
	var item models.PopupBanner
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("banner", id)
		}
		return nil, err
	}
	return &item, nil
}

// Create stores the image and inserts the banner at in.DisplayOrder, or after
// the current last one when no order is given.
func (s *BannerService) Create(ctx context.Context, in BannerInput, image *multipart.FileHeader) (*models.PopupBanner, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, invalid("image", "an image is required")
	}

	ref, err := s.assets.Store(image, AssetBannerImage)
	if err != nil {
		return nil, err
	}

	item := models.PopupBanner{
		Title:        in.Title,
		Description:  in.Description,
		ImageURL:     ref,
		Status:       statusOf(in.Active),
		DisplayOrder: in.DisplayOrder,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.DisplayOrder != 0 {
			return tx.Create(&item).Error
		}
		var maxOrder int
		if err := tx.Model(&models.PopupBanner{}).Select("COALESCE(MAX(display_order), 0)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		item.DisplayOrder = maxOrder + 1
		if item.DisplayOrder > 999 {
			item.DisplayOrder = 999
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		s.assets.Discard(ref)
		return nil, err
	}
	return &item, nil
}

// Update edits a banner and, when image is given, replaces its image.
func (s *BannerService) Update(ctx context.Context, id uint, in BannerInput, image *multipart.FileHeader) (*models.PopupBanner, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"status":      statusOf(in.Active),
	}
	if in.DisplayOrder != 0 {
		fields["display_order"] = in.DisplayOrder
	}

	if image == nil {
		if err := s.db.WithContext(ctx).Model(item).Updates(fields).Error; err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	_, err = s.assets.Replace(item.ImageURL, image, AssetBannerImage, func(newRef string) error {
		fields["image_url"] = newRef
		return s.db.WithContext(ctx).Model(item).Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// ToggleStatus flips a banner between Active and Inactive.
func (s *BannerService) ToggleStatus(ctx context.Context, id uint) (*models.PopupBanner, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := statusOf(!item.IsActive())
	if err := s.db.WithContext(ctx).Model(item).Update("status", next).Error; err != nil {
		return nil, err
	}
	item.Status = next
	return item, nil
}

// Delete removes a banner and its image file.
func (s *BannerService) Delete(ctx context.Context, id uint) (*FileIssue, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, err
	}
	return s.assets.Discard(item.ImageURL), nil
}

// BulkDelete deletes each banner independently.
func (s *BannerService) BulkDelete(ctx context.Context, ids []uint) *BatchResult {
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
