package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/utils"
	"gorm.io/gorm"
)

type CreateArticleRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	CoverImage string `json:"cover_image"`
	CategoryID *uint  `json:"category_id"`
	Published  bool   `json:"published"`
}

type UpdateArticleRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	CoverImage string `json:"cover_image"`
	CategoryID *uint  `json:"category_id"`
	Published  bool   `json:"published"`
}

type ArticleSummary struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	CoverImage string    `json:"cover_image"`
	Published  bool      `json:"published"`
	Author     string    `json:"author"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

type ArticleDetail struct {
	ArticleSummary
	Content string `json:"content"`
}

func articleSummary(article models.Article) ArticleSummary {
	summary := ArticleSummary{
		ID:         article.ID,
		Title:      article.Title,
		Slug:       article.Slug,
		CoverImage: article.CoverImage,
		Published:  article.Published,
		Author:     article.Author.Username,
		CreatedAt:  article.CreatedAt,
	}

	if article.Category != nil {
		summary.Category = article.Category.Name
	}

	return summary
}

// ListArticles is the public feed: published articles only, newest first,
// optionally filtered by category slug.
func ListArticles(ctx *gin.Context) {
	query := db.DB.Where("published = ?", true).
		Preload("Author").
		Preload("Category").
		Order("created_at DESC")

	if categorySlug := ctx.Query("category"); categorySlug != "" {
		var category models.Category

		if err := db.DB.Where("slug = ?", categorySlug).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			} else {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
			}
			return
		}

		query = query.Where("category_id = ?", category.ID)
	}

	var articles []models.Article

	if err := query.Find(&articles).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve articles"})
		return
	}

	response := make([]ArticleSummary, 0, len(articles))

	for _, article := range articles {
		response = append(response, articleSummary(article))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetArticle(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var article models.Article

	err := db.DB.Where("slug = ? AND published = ?", slug, true).
		Preload("Author").
		Preload("Category").
		First(&article).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		}
		return
	}

	ctx.JSON(http.StatusOK, ArticleDetail{
		ArticleSummary: articleSummary(article),
		Content:        article.Content,
	})
}

// ListOwnArticles shows a blogger their own drafts and published posts.
// Admins see everything.
func ListOwnArticles(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Preload("Author").Preload("Category").Order("created_at DESC")

	if !currentUser.IsStaff() {
		query = query.Where("author_id = ?", currentUser.ID)
	}

	var articles []models.Article

	if err := query.Find(&articles).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve articles"})
		return
	}

	response := make([]ArticleSummary, 0, len(articles))

	for _, article := range articles {
		response = append(response, articleSummary(article))
	}

	ctx.JSON(http.StatusOK, response)
}

func uniqueSlug(title string) (string, error) {
	base := utils.Slugify(title)

	if base == "" {
		return "", errors.New("title produces an empty slug")
	}

	slug := base

	for i := 2; ; i++ {
		var count int64

		if err := db.DB.Model(&models.Article{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}

		if count == 0 {
			return slug, nil
		}

		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func CreateArticle(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateArticleRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	slug, err := uniqueSlug(req.Title)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
		return
	}

	article := models.Article{
		Title:      req.Title,
		Slug:       slug,
		Content:    req.Content,
		CoverImage: req.CoverImage,
		Published:  req.Published,
		AuthorID:   currentUser.ID,
		CategoryID: req.CategoryID,
	}

	if err := db.DB.Create(&article).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create article"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Article created successfully", "id": article.ID, "slug": article.Slug})
}

func UpdateArticle(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	articleID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpdateArticleRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var article models.Article

	query := db.DB.Where("id = ?", articleID)
	if !currentUser.IsStaff() {
		query = query.Where("author_id = ?", currentUser.ID)
	}

	if err := query.First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		}
		return
	}

	article.Title = req.Title
	article.Content = req.Content
	article.CoverImage = req.CoverImage
	article.Published = req.Published
	article.CategoryID = req.CategoryID

	if err := db.DB.Save(&article).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Article updated successfully"})
}

func DeleteArticle(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	articleID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var article models.Article

	query := db.DB.Where("id = ?", articleID)
	if !currentUser.IsStaff() {
		query = query.Where("author_id = ?", currentUser.ID)
	}

	if err := query.First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve article"})
		}
		return
	}

	if err := db.DB.Delete(&article).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
