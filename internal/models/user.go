package models

import "gorm.io/gorm"

const (
	RoleUser    = "USER"
	RoleBlogger = "BLOGGER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model

	Name         string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Image        string
	Role         string `gorm:"not null;default:USER"`
	CanComment   bool   `gorm:"not null;default:true"`

	// Incremented whenever an authorization-relevant field changes, so
	// cached tokens carrying an older value get refreshed on next use.
	SessionVersion int `gorm:"not null;default:1"`

	// Relationships
	Articles      []Article            `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments      []Comment            `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Orders        []Order              `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Applications  []BloggerApplication `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification       `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
