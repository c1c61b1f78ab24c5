package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/services"
	"github.com/titan3755/photobytes-blog/internal/utils"
)

type PostMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MessageResponse struct {
	ID            uint      `json:"id"`
	Sender        string    `json:"sender"`
	SenderImage   string    `json:"sender_image"`
	Content       string    `json:"content"`
	IsReadByAdmin bool      `json:"is_read_by_admin"`
	IsReadByUser  bool      `json:"is_read_by_user"`
	CreatedAt     time.Time `json:"created_at"`
}

func messageResponse(message models.OrderMessage) MessageResponse {
	return MessageResponse{
		ID:            message.ID,
		Sender:        message.Sender.Username,
		SenderImage:   message.Sender.Image,
		Content:       message.Content,
		IsReadByAdmin: message.IsReadByAdmin,
		IsReadByUser:  message.IsReadByUser,
		CreatedAt:     message.CreatedAt,
	}
}

func threadError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, services.ErrNotAuthorized):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this order"})
	case errors.Is(err, services.ErrEmptyContent):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
	default:
		log.Printf("Order thread error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func ListOrderMessages(ctx *gin.Context) {
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

	messages, err := services.ListMessages(orderID, orderViewer(currentUser))

	if err != nil {
		threadError(ctx, err)
		return
	}

	response := make([]MessageResponse, 0, len(messages))

	for _, message := range messages {
		response = append(response, messageResponse(message))
	}

	ctx.JSON(http.StatusOK, response)
}

func PostOrderMessage(ctx *gin.Context) {
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

	var req PostMessageRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	message, err := services.PostMessage(orderID, orderViewer(currentUser), req.Content)

	if err != nil {
		threadError(ctx, err)
		return
	}

	// Wake any websocket clients watching this thread.
	BroadcastThreadRefresh(strconv.FormatUint(uint64(orderID), 10))

	message.Sender = models.User{Username: currentUser.Username, Image: currentUser.Image}

	ctx.JSON(http.StatusCreated, messageResponse(*message))
}

func MarkOrderMessagesRead(ctx *gin.Context) {
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

	viewer := orderViewer(currentUser)

	if err := services.MarkThreadRead(orderID, viewer); err != nil {
		threadError(ctx, err)
		return
	}

	unread, err := services.UnreadCount(orderID, viewer)

	if err != nil {
		threadError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Thread marked as read", "unread_count": unread})
}
