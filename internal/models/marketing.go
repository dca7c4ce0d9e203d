package models

// Banner statuses.
const (
	BannerActive   = "Active"
	BannerInactive = "Inactive"
)

// PopupBanner is a promotional overlay shown on the storefront.
type PopupBanner struct {
	BaseModel
	Title        string `gorm:"size:200;not null" json:"title"`
	Description  string `gorm:"size:500" json:"description"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	DisplayOrder int    `gorm:"not null;default:1" json:"displayOrder"`
	Status       string `gorm:"size:20;not null;default:Inactive;index" json:"status"`
}

// IsActive reports whether the banner is currently shown.
func (b PopupBanner) IsActive() bool {
	return b.Status == BannerActive
}
