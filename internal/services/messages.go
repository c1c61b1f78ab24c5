package services

import (
	"errors"
	"strings"

	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/models"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNotAuthorized = errors.New("not authorized for this order")
	ErrEmptyContent  = errors.New("message content is empty")
)

// Viewer identifies one of the two parties of an order thread: the order's
// author, or staff (any admin).
type Viewer struct {
	ID    uint
	Staff bool
}

func loadOrder(orderID uint) (*models.Order, error) {
	var order models.Order

	if err := db.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return &order, nil
}

func canAccess(order *models.Order, viewer Viewer) bool {
	return viewer.Staff || order.AuthorID == viewer.ID
}

// ListMessages returns the full thread in ascending creation order, with
// sender display attributes preloaded.
func ListMessages(orderID uint, viewer Viewer) ([]models.OrderMessage, error) {
	order, err := loadOrder(orderID)

	if err != nil {
		return nil, err
	}

	if !canAccess(order, viewer) {
		return nil, ErrNotAuthorized
	}

	var messages []models.OrderMessage

	err = db.DB.Where("order_id = ?", orderID).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	return messages, nil
}

// PostMessage appends to the thread. The sender's own read flag is set true
// at creation and the counterpart's stays false, which is what drives the
// unread badge on the other side.
func PostMessage(orderID uint, viewer Viewer, content string) (*models.OrderMessage, error) {
	content = strings.TrimSpace(content)

	if content == "" {
		return nil, ErrEmptyContent
	}

	order, err := loadOrder(orderID)

	if err != nil {
		return nil, err
	}

	if !canAccess(order, viewer) {
		return nil, ErrNotAuthorized
	}

	message := models.OrderMessage{
		OrderID:       orderID,
		SenderID:      viewer.ID,
		Content:       content,
		IsReadByAdmin: viewer.Staff,
		IsReadByUser:  !viewer.Staff,
	}

	if err := db.DB.Create(&message).Error; err != nil {
		return nil, err
	}

	return &message, nil
}

// MarkThreadRead flips the viewer's own read flag on every unread message in
// the thread. The target value is a constant, so the sweep is idempotent and
// safe under concurrent calls.
func MarkThreadRead(orderID uint, viewer Viewer) error {
	order, err := loadOrder(orderID)

	if err != nil {
		return err
	}

	if !canAccess(order, viewer) {
		return ErrNotAuthorized
	}

	column := "is_read_by_user"
	if viewer.Staff {
		column = "is_read_by_admin"
	}

	return db.DB.Model(&models.OrderMessage{}).
		Where("order_id = ? AND "+column+" = ?", orderID, false).
		UpdateColumn(column, true).Error
}

// UnreadCount counts the messages in a thread whose viewer-side read flag is
// still false.
func UnreadCount(orderID uint, viewer Viewer) (int64, error) {
	column := "is_read_by_user"
	if viewer.Staff {
		column = "is_read_by_admin"
	}

	var count int64

	err := db.DB.Model(&models.OrderMessage{}).
		Where("order_id = ? AND "+column+" = ?", orderID, false).
		Count(&count).Error

	return count, err
}
