package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/auth"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/services"
	"github.com/titan3755/photobytes-blog/internal/utils"
	"gorm.io/gorm"
)

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UpdateCommentPermissionRequest struct {
	CanComment *bool `json:"can_comment" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AdminUserResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	CanComment     bool      `json:"can_comment"`
	SessionVersion int       `json:"session_version"`
	CreatedAt      time.Time `json:"created_at"`
}

type StatsResponse struct {
	Users                 int64            `json:"users"`
	Articles              int64            `json:"articles"`
	PublishedArticles     int64            `json:"published_articles"`
	Comments              int64            `json:"comments"`
	OrdersByStatus        map[string]int64 `json:"orders_by_status"`
	PendingApplications   int64            `json:"pending_applications"`
	UnreadContactMessages int64            `json:"unread_contact_messages"`
}

// GetStats aggregates the counters shown on the admin console dashboard.
func GetStats(ctx *gin.Context) {
	var stats StatsResponse

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.DB.Model(&models.User{}), &stats.Users},
		{db.DB.Model(&models.Article{}), &stats.Articles},
		{db.DB.Model(&models.Article{}).Where("published = ?", true), &stats.PublishedArticles},
		{db.DB.Model(&models.Comment{}), &stats.Comments},
		{db.DB.Model(&models.BloggerApplication{}).Where("status = ?", models.ApplicationPending), &stats.PendingApplications},
		{db.DB.Model(&models.ContactMessage{}).Where("is_read = ?", false), &stats.UnreadContactMessages},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
			return
		}
	}

	stats.OrdersByStatus = make(map[string]int64)

	for _, status := range []string{models.OrderPending, models.OrderInProgress, models.OrderCompleted, models.OrderCancelled} {
		var count int64

		if err := db.DB.Model(&models.Order{}).Where("status = ?", status).Count(&count).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
			return
		}

		stats.OrdersByStatus[status] = count
	}

	ctx.JSON(http.StatusOK, stats)
}

func ListUsers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]AdminUserResponse, 0, len(users))

	for _, user := range users {
		response = append(response, AdminUserResponse{
			ID:             user.ID,
			Name:           user.Name,
			Username:       user.Username,
			Email:          user.Email,
			Role:           user.Role,
			CanComment:     user.CanComment,
			SessionVersion: user.SessionVersion,
			CreatedAt:      user.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func loadTargetUser(ctx *gin.Context) (*models.User, bool) {
	userID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return nil, false
	}

	return &user, true
}

// UpdateUserRole changes a user's role and bumps their session version in
// the same transaction, so the user's next request picks up the new role.
func UpdateUserRole(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateRoleRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Role != models.RoleUser && req.Role != models.RoleBlogger && req.Role != models.RoleAdmin {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	user, ok := loadTargetUser(ctx)

	if !ok {
		return
	}

	if user.ID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own role"})
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).UpdateColumn("role", req.Role).Error; err != nil {
			return err
		}
		return auth.BumpSessionVersion(tx, user.ID)
	})

	if err != nil {
		log.Printf("Failed to update role for user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
}

// UpdateUserCommentPermission toggles canComment, bumping the session
// version so live tokens lose or regain the permission on next check.
func UpdateUserCommentPermission(ctx *gin.Context) {
	var req UpdateCommentPermissionRequest

	if err := ctx.BindJSON(&req); err != nil || req.CanComment == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, ok := loadTargetUser(ctx)

	if !ok {
		return
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).UpdateColumn("can_comment", *req.CanComment).Error; err != nil {
			return err
		}
		return auth.BumpSessionVersion(tx, user.ID)
	})

	if err != nil {
		log.Printf("Failed to update comment permission for user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment permission"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment permission updated successfully"})
}

func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, ok := loadTargetUser(ctx)

	if !ok {
		return
	}

	if user.ID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	// Account deletion destroys the account and everything hanging off it.
	// The children are removed explicitly so the teardown does not depend on
	// database-level foreign key enforcement, and unscoped so no soft-deleted
	// rows linger behind the dead account.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		ownOrders := tx.Model(&models.Order{}).Select("id").Where("author_id = ?", user.ID)

		if err := tx.Unscoped().
			Where("order_id IN (?) OR sender_id = ?", ownOrders, user.ID).
			Delete(&models.OrderMessage{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("author_id = ?", user.ID).Delete(&models.Order{}).Error; err != nil {
			return err
		}

		ownArticles := tx.Model(&models.Article{}).Select("id").Where("author_id = ?", user.ID)

		if err := tx.Unscoped().
			Where("article_id IN (?) OR author_id = ?", ownArticles, user.ID).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("author_id = ?", user.ID).Delete(&models.Article{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.BloggerApplication{}).Error; err != nil {
			return err
		}

		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(user).Error
	})

	if err != nil {
		log.Printf("Failed to delete user %d: %v", user.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func AdminListOrders(ctx *gin.Context) {
	var orders []models.Order

	query := db.DB.Preload("Author").Order("created_at DESC")

	if status := ctx.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		query = query.Where("status = ?", status)
	}

	if err := query.Find(&orders).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	viewer := services.Viewer{Staff: true}
	response := make([]OrderSummary, 0, len(orders))

	for _, order := range orders {
		unread, err := services.UnreadCount(order.ID, viewer)

		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
			return
		}

		response = append(response, OrderSummary{
			ID:          order.ID,
			Title:       order.Title,
			Status:      order.Status,
			Author:      order.Author.Username,
			UnreadCount: unread,
			CreatedAt:   order.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// UpdateOrderStatus moves an order through its lifecycle. The status change,
// the author's session version bump and the notification are one transaction.
func UpdateOrderStatus(ctx *gin.Context) {
	orderID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateOrderStatusRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !models.ValidOrderStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var order models.Order

	if err := db.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).UpdateColumn("status", req.Status).Error; err != nil {
			return err
		}

		if err := auth.BumpSessionVersion(tx, order.AuthorID); err != nil {
			return err
		}

		notification := models.Notification{
			UserID:  order.AuthorID,
			Type:    "order_status",
			Message: "Your order \"" + order.Title + "\" is now " + req.Status + ".",
		}

		return tx.Create(&notification).Error
	})

	if err != nil {
		log.Printf("Failed to update status for order %d: %v", orderID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully"})
}

func AdminDeleteOrder(ctx *gin.Context) {
	orderID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order

	if err := db.DB.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}

	if err := db.DB.Select("Messages").Delete(&order).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
