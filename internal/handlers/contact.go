package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/services"
	"github.com/titan3755/photobytes-blog/internal/utils"
	"gorm.io/gorm"
)

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ContactMessageResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitContactMessage is the public contact-form intake.
func SubmitContactMessage(ctx *gin.Context) {
	var req ContactRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	message := models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Content: strings.TrimSpace(req.Content),
	}

	if message.Subject == "" || message.Content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Subject and message are required"})
		return
	}

	if err := db.DB.Create(&message).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit message"})
		return
	}

	if err := services.NotifyContactMessage(message); err != nil {
		log.Printf("Failed to send contact webhook: %v", err)
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Message submitted successfully"})
}

func ListContactMessages(ctx *gin.Context) {
	var messages []models.ContactMessage

	if err := db.DB.Order("created_at DESC").Find(&messages).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	response := make([]ContactMessageResponse, 0, len(messages))

	for _, message := range messages {
		response = append(response, ContactMessageResponse{
			ID:        message.ID,
			Name:      message.Name,
			Email:     message.Email,
			Subject:   message.Subject,
			Content:   message.Content,
			IsRead:    message.IsRead,
			CreatedAt: message.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func MarkContactMessageRead(ctx *gin.Context) {
	messageID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := db.DB.Model(&models.ContactMessage{}).
		Where("id = ?", messageID).
		UpdateColumn("is_read", true)

	if result.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update message"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

func DeleteContactMessage(ctx *gin.Context) {
	messageID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var message models.ContactMessage

	if err := db.DB.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve message"})
		}
		return
	}

	if err := db.DB.Delete(&message).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
