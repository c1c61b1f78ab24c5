package models

import "gorm.io/gorm"

type Article struct {
	gorm.Model

	Title      string `gorm:"not null"`
	Slug       string `gorm:"uniqueIndex;not null"`
	Content    string `gorm:"not null"`
	CoverImage string
	Published  bool  `gorm:"not null;default:false"`
	AuthorID   uint  `gorm:"not null;index"`
	CategoryID *uint `gorm:"index"`

	// Relationships
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Comments []Comment `gorm:"foreignKey:ArticleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
