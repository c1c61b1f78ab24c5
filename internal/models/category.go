package models

import "gorm.io/gorm"

type Category struct {
	gorm.Model

	Name        string `gorm:"uniqueIndex;not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Description string

	// Relationships
	Articles []Article `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
