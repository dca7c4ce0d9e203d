package models

type Category struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
}

type Brand struct {
	BaseModel
	Name    string `gorm:"size:200;not null" json:"name"`
	LogoURL string `gorm:"size:500" json:"logoUrl"`
}
