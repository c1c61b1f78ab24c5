package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/middleware"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/services"
	"github.com/titan3755/photobytes-blog/internal/utils"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description" binding:"required"`
	Requirements map[string]interface{} `json:"requirements"`
	Budget       string                 `json:"budget"`
}

type OrderSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Author      string    `json:"author"`
	UnreadCount int64     `json:"unread_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderDetail struct {
	OrderSummary
	Description  string                 `json:"description"`
	Requirements map[string]interface{} `json:"requirements"`
	Budget       string                 `json:"budget"`
}

func orderViewer(user middleware.AuthenticatedUser) services.Viewer {
	return services.Viewer{ID: user.ID, Staff: user.IsStaff()}
}

func orderDetail(order models.Order, viewer services.Viewer) (OrderDetail, error) {
	unread, err := services.UnreadCount(order.ID, viewer)

	if err != nil {
		return OrderDetail{}, err
	}

	detail := OrderDetail{
		OrderSummary: OrderSummary{
			ID:          order.ID,
			Title:       order.Title,
			Status:      order.Status,
			Author:      order.Author.Username,
			UnreadCount: unread,
			CreatedAt:   order.CreatedAt,
		},
		Description: order.Description,
		Budget:      order.Budget,
	}

	if len(order.Requirements) > 0 {
		if err := json.Unmarshal(order.Requirements, &detail.Requirements); err != nil {
			return OrderDetail{}, err
		}
	}

	return detail, nil
}

func CreateOrder(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateOrderRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var requirementsJSON []byte

	if req.Requirements != nil {
		requirementsJSON, err = json.Marshal(req.Requirements)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requirements format"})
			return
		}
	}

	order := models.Order{
		AuthorID:     currentUser.ID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: requirementsJSON,
		Budget:       req.Budget,
		Status:       models.OrderPending,
	}

	if err := db.DB.Create(&order).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	var author models.User

	if err := db.DB.First(&author, currentUser.ID).Error; err == nil {
		if err := services.NotifyNewOrder(order, author); err != nil {
			log.Printf("Failed to send new-order webhook: %v", err)
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "id": order.ID})
}

// ListOrders returns the caller's orders with per-thread unread counts.
// Staff see every order, like ListOwnArticles.
func ListOrders(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Preload("Author").Order("created_at DESC")

	if !currentUser.IsStaff() {
		query = query.Where("author_id = ?", currentUser.ID)
	}

	var orders []models.Order

	err = query.Find(&orders).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	viewer := orderViewer(currentUser)
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

func GetOrder(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	orderID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var order models.Order

	if err := db.DB.Preload("Author").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		}
		return
	}

	if !currentUser.IsStaff() && order.AuthorID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
		return
	}

	detail, err := orderDetail(order, orderViewer(currentUser))

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}

	ctx.JSON(http.StatusOK, detail)
}
