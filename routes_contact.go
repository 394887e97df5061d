package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholarmate/auth"
	"scholarmate/config"
	"scholarmate/mailer"
	"scholarmate/models"
)

func setupContactRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, jwtManager *auth.Manager, mail mailer.Mailer, log *zap.Logger) {
	rg := router.Group("/api/contact")

	// Anonymous submissions are allowed; a valid token just attaches the
	// account to the message.
	rg.POST("", func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"required"`
			Email   string `json:"email" binding:"required,email"`
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and message are required"})
			return
		}

		msg := models.ContactMessage{
			Name:      req.Name,
			Email:     req.Email,
			Message:   req.Message,
			IPAddress: c.ClientIP(),
		}
		if token := auth.ExtractBearer(c.GetHeader("Authorization")); token != "" {
			if claims, err := jwtManager.Validate(token); err == nil && claims.TokenType == "access" {
				msg.UserID = &claims.UserID
			}
		}

		if err := db.Create(&msg).Error; err != nil {
			log.Error("Failed to save contact message", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if len(cfg.ContactAdminEmails) > 0 {
			body := fmt.Sprintf("보낸 사람: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message)
			if err := mail.Send(cfg.ContactAdminEmails, "[ScholarMate] 새 문의가 접수되었습니다", body); err != nil {
				// The stored row is the record of truth; the alert is best effort.
				log.Warn("Failed to send contact alert mail", zap.Error(err))
			}
		}
		c.JSON(http.StatusCreated, gin.H{"message": "contact message received"})
	})
}
