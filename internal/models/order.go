package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OrderPending    = "PENDING"
	OrderInProgress = "IN_PROGRESS"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
)

type Order struct {
	gorm.Model

	AuthorID     uint           `gorm:"not null;index"`
	Title        string         `gorm:"not null"`
	Description  string         `gorm:"not null"`
	Requirements datatypes.JSON `gorm:"type:jsonb"`
	Budget       string
	Status       string `gorm:"not null;default:PENDING"`

	// Relationships
	Author   User           `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Messages []OrderMessage `gorm:"foreignKey:OrderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}
