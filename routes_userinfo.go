package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarmate/auth"
	"scholarmate/models"
)

// The /userinfor path (including the typo) is what the deployed frontend
// calls, so it stays.
func setupUserInfoRoutes(router *gin.Engine, db *gorm.DB, jwtManager *auth.Manager, log *zap.Logger) {
	rg := router.Group("/userinfor", auth.RequireAuth(jwtManager))

	rg.GET("", func(c *gin.Context) {
		var profile models.UserScholarship
		err := db.First(&profile, "user_id = ?", auth.CurrentUserID(c)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		if err != nil {
			log.Error("Profile query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	rg.POST("", func(c *gin.Context) {
		var profile models.UserScholarship
		if err := c.ShouldBindJSON(&profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile payload"})
			return
		}
		profile.UserID = auth.CurrentUserID(c)

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&profile).Error
		if err != nil {
			log.Error("Profile upsert failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})
}
