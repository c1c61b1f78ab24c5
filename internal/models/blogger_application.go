package models

import "gorm.io/gorm"

const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

type BloggerApplication struct {
	gorm.Model

	UserID       uint   `gorm:"not null;index"`
	Motivation   string `gorm:"not null"`
	PortfolioURL string
	Status       string `gorm:"not null;default:PENDING"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
