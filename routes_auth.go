package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholarmate/auth"
	"scholarmate/config"
	"scholarmate/models"
	"scholarmate/services"
)

func setupAuthRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, jwtManager *auth.Manager, codes *services.CodeService, log *zap.Logger) {
	rg := router.Group("/auth")

	rg.POST("/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
			return
		}
		if len(req.Password) < auth.MinPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		if cfg.RequireEmailCode {
			ok, err := codes.ConsumeVerified(c.Request.Context(), req.Email)
			if err != nil {
				log.Error("Failed to check email verification", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "email is not verified"})
				return
			}
		}

		var taken int64
		db.Model(&models.User{}).Where("username = ?", req.Username).Count(&taken)
		if taken > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		user := models.User{
			Username:     req.Username,
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: hash,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		tokens, err := jwtManager.IssuePair(user.ID, user.Username, user.IsStaff)
		if err != nil {
			log.Error("Failed to issue tokens", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "access": tokens.Access, "refresh": tokens.Refresh})
	})

	rg.POST("/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		var user models.User
		if err := db.First(&user, "username = ?", req.Username).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if !auth.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		tokens, err := jwtManager.IssuePair(user.ID, user.Username, user.IsStaff)
		if err != nil {
			log.Error("Failed to issue tokens", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": tokens.Access, "refresh": tokens.Refresh})
	})

	rg.POST("/refresh", func(c *gin.Context) {
		var req struct {
			Refresh string `json:"refresh" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is required"})
			return
		}

		claims, err := jwtManager.Validate(req.Refresh)
		if err != nil || claims.TokenType != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}

		tokens, err := jwtManager.IssuePair(claims.UserID, claims.Username, claims.IsStaff)
		if err != nil {
			log.Error("Failed to issue tokens", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": tokens.Access, "refresh": tokens.Refresh})
	})

	rg.GET("/me", auth.RequireAuth(jwtManager), func(c *gin.Context) {
		var user models.User
		if err := db.First(&user, auth.CurrentUserID(c)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	})

	rg.POST("/email/send-code", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
			return
		}
		if err := codes.SendVerifyCode(c.Request.Context(), req.Email); err != nil {
			if errors.Is(err, services.ErrCooldown) {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait before requesting another code"})
				return
			}
			log.Error("Failed to send verification code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
	})

	rg.POST("/email/verify-code", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Code  string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
			return
		}
		if err := codes.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
			if errors.Is(err, services.ErrCodeInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "verification code invalid or expired"})
				return
			}
			log.Error("Failed to verify code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "email verified"})
	})

	// Responds 200 whether or not accounts exist, so the endpoint cannot be
	// used to probe which emails are registered.
	rg.POST("/users/lookup-username", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
			return
		}
		if err := codes.LookupCooldown(c.Request.Context(), req.Email); err != nil {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait before requesting another lookup"})
			return
		}

		var users []models.User
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Find(&users).Error; err != nil {
			log.Error("Username lookup query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if len(users) > 0 {
			masked := make([]string, 0, len(users))
			for _, u := range users {
				masked = append(masked, maskUsername(u.Username))
			}
			body := "회원님의 아이디는 다음과 같습니다.\n" + strings.Join(masked, "\n")
			if err := codes.Mailer.Send([]string{req.Email}, "[ScholarMate] 아이디 찾기 안내", body); err != nil {
				log.Error("Failed to send username lookup mail", zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "if accounts exist for this email, the usernames have been sent"})
	})

	rg.POST("/password/send-code", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and email are required"})
			return
		}

		var user models.User
		err := db.First(&user, "username = ? AND email = ?", req.Username, strings.ToLower(strings.TrimSpace(req.Email))).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no matching account"})
			return
		}

		if err := codes.SendResetCode(c.Request.Context(), req.Email, req.Username); err != nil {
			if errors.Is(err, services.ErrCooldown) {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "please wait before requesting another code"})
				return
			}
			log.Error("Failed to send reset code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset code"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reset code sent"})
	})

	rg.POST("/password/verify-code", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Code     string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and code are required"})
			return
		}

		token, err := codes.VerifyResetCode(c.Request.Context(), req.Email, req.Username, req.Code)
		if err != nil {
			if errors.Is(err, services.ErrCodeInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "reset code invalid or expired"})
				return
			}
			log.Error("Failed to verify reset code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reset_token": token})
	})

	rg.POST("/password/reset-with-code", func(c *gin.Context) {
		var req struct {
			Username    string `json:"username" binding:"required"`
			Email       string `json:"email" binding:"required,email"`
			ResetToken  string `json:"reset_token" binding:"required"`
			NewPassword string `json:"new_password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email, reset_token and new_password are required"})
			return
		}
		if len(req.NewPassword) < auth.MinPasswordLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
			return
		}

		ok, err := codes.ConsumeResetSession(c.Request.Context(), req.Email, req.Username, req.ResetToken)
		if err != nil {
			log.Error("Failed to consume reset session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reset session invalid or expired"})
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		result := db.Model(&models.User{}).
			Where("username = ? AND email = ?", req.Username, strings.ToLower(strings.TrimSpace(req.Email))).
			Update("password_hash", hash)
		if result.Error != nil {
			log.Error("Failed to update password", zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no matching account"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	})
}

// maskUsername keeps the first two characters and stars the rest.
func maskUsername(username string) string {
	runes := []rune(username)
	if len(runes) <= 2 {
		return username
	}
	masked := make([]rune, len(runes))
	copy(masked, runes[:2])
	for i := 2; i < len(runes); i++ {
		masked[i] = '*'
	}
	return string(masked)
}
