package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholarmate/auth"
	"scholarmate/models"
)

func setupNoticeRoutes(router *gin.Engine, db *gorm.DB, jwtManager *auth.Manager, log *zap.Logger) {
	rg := router.Group("/api/notices")

	rg.GET("", func(c *gin.Context) {
		var notices []models.Notice
		err := db.Where("is_published = ?", true).
			Order("is_pinned DESC, created_at DESC").
			Find(&notices).Error
		if err != nil {
			log.Error("Notice query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, notices)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var notice models.Notice
		err := db.First(&notice, "id = ? AND is_published = ?", c.Param("id"), true).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		db.Model(&notice).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		notice.ViewCount++
		c.JSON(http.StatusOK, notice)
	})

	staff := rg.Group("", auth.RequireAuth(jwtManager), auth.RequireStaff())

	staff.POST("", func(c *gin.Context) {
		var notice models.Notice
		if err := c.ShouldBindJSON(&notice); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notice payload"})
			return
		}
		if notice.Title == "" || notice.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
			return
		}
		notice.ID = 0
		notice.ViewCount = 0
		if err := db.Create(&notice).Error; err != nil {
			log.Error("Failed to create notice", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, notice)
	})

	staff.PUT("/:id", func(c *gin.Context) {
		var notice models.Notice
		if err := db.First(&notice, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
			return
		}

		var req struct {
			Title       *string `json:"title"`
			Content     *string `json:"content"`
			IsPinned    *bool   `json:"is_pinned"`
			IsPublished *bool   `json:"is_published"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notice payload"})
			return
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Content != nil {
			updates["content"] = *req.Content
		}
		if req.IsPinned != nil {
			updates["is_pinned"] = *req.IsPinned
		}
		if req.IsPublished != nil {
			updates["is_published"] = *req.IsPublished
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
			return
		}
		if err := db.Model(&notice).Updates(updates).Error; err != nil {
			log.Error("Failed to update notice", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, notice)
	})

	staff.DELETE("/:id", func(c *gin.Context) {
		result := db.Delete(&models.Notice{}, c.Param("id"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}
