package models

import "gorm.io/gorm"

type ContactMessage struct {
	gorm.Model

	Name    string `gorm:"not null"`
	Email   string `gorm:"not null"`
	Subject string `gorm:"not null"`
	Content string `gorm:"not null"`
	IsRead  bool   `gorm:"not null;default:false"`
}
