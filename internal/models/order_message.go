package models

import "gorm.io/gorm"

// OrderMessage is one entry in an order's conversation thread. The two read
// flags are independent cursors: the sender's own side is set true at
// creation, the counterpart's side stays false until a mark-read sweep.
type OrderMessage struct {
	gorm.Model

	OrderID       uint   `gorm:"not null;index"`
	SenderID      uint   `gorm:"not null;index"`
	Content       string `gorm:"not null"`
	IsReadByAdmin bool   `gorm:"not null;default:false"`
	IsReadByUser  bool   `gorm:"not null;default:false"`

	// Relationships
	Order  Order `gorm:"foreignKey:OrderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Sender User  `gorm:"foreignKey:SenderID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
