package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/auth"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/utils"
	"gorm.io/gorm"
)

type ApplyRequest struct {
	Motivation   string `json:"motivation" binding:"required"`
	PortfolioURL string `json:"portfolio_url"`
}

type ApplicationResponse struct {
	ID           uint      `json:"id"`
	Applicant    string    `json:"applicant"`
	Motivation   string    `json:"motivation"`
	PortfolioURL string    `json:"portfolio_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func applicationResponse(application models.BloggerApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:           application.ID,
		Applicant:    application.User.Username,
		Motivation:   application.Motivation,
		PortfolioURL: application.PortfolioURL,
		Status:       application.Status,
		CreatedAt:    application.CreatedAt,
	}
}

// SubmitApplication lets a USER apply for the BLOGGER role. One pending
// application at a time; bloggers and admins have nothing to apply for.
func SubmitApplication(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if currentUser.Role != models.RoleUser {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Account is already a blogger"})
		return
	}

	var req ApplyRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	motivation := strings.TrimSpace(req.Motivation)

	if motivation == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Motivation is required"})
		return
	}

	var pending int64

	err = db.DB.Model(&models.BloggerApplication{}).
		Where("user_id = ? AND status = ?", currentUser.ID, models.ApplicationPending).
		Count(&pending).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if pending > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "An application is already pending"})
		return
	}

	application := models.BloggerApplication{
		UserID:       currentUser.ID,
		Motivation:   motivation,
		PortfolioURL: strings.TrimSpace(req.PortfolioURL),
		Status:       models.ApplicationPending,
	}

	if err := db.DB.Create(&application).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit application"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully", "id": application.ID})
}

func ListOwnApplications(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var applications []models.BloggerApplication

	err = db.DB.Where("user_id = ?", currentUser.ID).
		Preload("User").
		Order("created_at DESC").
		Find(&applications).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve applications"})
		return
	}

	response := make([]ApplicationResponse, 0, len(applications))

	for _, application := range applications {
		response = append(response, applicationResponse(application))
	}

	ctx.JSON(http.StatusOK, response)
}

func ListApplications(ctx *gin.Context) {
	var applications []models.BloggerApplication

	err := db.DB.Preload("User").Order("created_at DESC").Find(&applications).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve applications"})
		return
	}

	response := make([]ApplicationResponse, 0, len(applications))

	for _, application := range applications {
		response = append(response, applicationResponse(application))
	}

	ctx.JSON(http.StatusOK, response)
}

func resolveApplication(ctx *gin.Context, approve bool) {
	applicationID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var application models.BloggerApplication

	if err := db.DB.First(&application, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve application"})
		}
		return
	}

	if application.Status != models.ApplicationPending {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Application has already been resolved"})
		return
	}

	status := models.ApplicationRejected
	notice := "Your blogger application was rejected."

	if approve {
		status = models.ApplicationApproved
		notice = "Your blogger application was approved. Welcome aboard!"
	}

	// Resolution, role change and version bump land atomically, so a live
	// session can never observe the approved application with a stale role.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&application).UpdateColumn("status", status).Error; err != nil {
			return err
		}

		if approve {
			if err := tx.Model(&models.User{}).
				Where("id = ?", application.UserID).
				UpdateColumn("role", models.RoleBlogger).Error; err != nil {
				return err
			}
		}

		if err := auth.BumpSessionVersion(tx, application.UserID); err != nil {
			return err
		}

		notification := models.Notification{
			UserID:  application.UserID,
			Type:    "application_resolved",
			Message: notice,
		}

		return tx.Create(&notification).Error
	})

	if err != nil {
		log.Printf("Failed to resolve application %d: %v", applicationID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve application"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Application " + strings.ToLower(status)})
}

func ApproveApplication(ctx *gin.Context) {
	resolveApplication(ctx, true)
}

func RejectApplication(ctx *gin.Context) {
	resolveApplication(ctx, false)
}
