package models

import "github.com/shopspring/decimal"

// MaxGalleryImages caps the non-primary images a product may hold.
const MaxGalleryImages = 5

type Product struct {
	BaseModel
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stockQuantity"`
	IsHot         bool            `gorm:"not null;default:false" json:"isHot"`
	IsBestSeller  bool            `gorm:"not null;default:false" json:"isBestSeller"`
	ImageURL      string          `gorm:"size:500" json:"imageUrl"`
	CategoryID    *uint           `gorm:"index" json:"categoryId"`
	Category      *Category       `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	BrandID       *uint           `gorm:"index" json:"brandId"`
	Brand         *Brand          `gorm:"constraint:OnDelete:SET NULL" json:"brand,omitempty"`
	Images        []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// ProductImage is a gallery entry; SortOrder drives display order.
type ProductImage struct {
	BaseModel
	ProductID *uint  `gorm:"index" json:"productId"`
	URL       string `gorm:"size:500;not null" json:"url"`
	SortOrder int    `gorm:"not null;default:1" json:"sortOrder"`
}
