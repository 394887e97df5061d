package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholarmate/auth"
	"scholarmate/models"
)

func setupConversationRoutes(rg *gin.RouterGroup, db *gorm.DB, log *zap.Logger) {
	type conversationView struct {
		models.Conversation
		Participants []models.ConversationParticipant `json:"participants"`
		LastMessage  *models.DirectMessage            `json:"last_message,omitempty"`
		UnreadCount  int64                            `json:"unread_count"`
	}

	rg.GET("/conversations", func(c *gin.Context) {
		userID := auth.CurrentUserID(c)

		var mine []models.ConversationParticipant
		if err := db.Where("user_id = ?", userID).Find(&mine).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		views := make([]conversationView, 0, len(mine))
		for _, membership := range mine {
			var conv models.Conversation
			if err := db.First(&conv, membership.ConversationID).Error; err != nil {
				continue
			}
			view := conversationView{Conversation: conv}
			db.Preload("User").Where("conversation_id = ?", conv.ID).Find(&view.Participants)

			var last models.DirectMessage
			err := db.Preload("Sender").
				Where("conversation_id = ?", conv.ID).
				Order("created_at DESC").
				First(&last).Error
			if err == nil {
				view.LastMessage = &last
			}
			db.Model(&models.DirectMessage{}).
				Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, userID, false).
				Count(&view.UnreadCount)

			views = append(views, view)
		}
		c.JSON(http.StatusOK, views)
	})

	// Creating a conversation with a user you already share one with
	// returns the existing thread instead of a duplicate.
	rg.POST("/conversations", func(c *gin.Context) {
		var req struct {
			UserID uint `json:"user_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}
		userID := auth.CurrentUserID(c)
		if req.UserID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
			return
		}
		var counterpart models.User
		if err := db.First(&counterpart, req.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}

		var existingID uint
		row := db.Model(&models.ConversationParticipant{}).
			Select("conversation_id").
			Where("user_id IN ?", []uint{userID, req.UserID}).
			Group("conversation_id").
			Having("COUNT(DISTINCT user_id) = 2").
			Limit(1).
			Scan(&existingID)
		if row.Error == nil && existingID != 0 {
			var conv models.Conversation
			if err := db.First(&conv, existingID).Error; err == nil {
				c.JSON(http.StatusOK, conv)
				return
			}
		}

		var conv models.Conversation
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&conv).Error; err != nil {
				return err
			}
			participants := []models.ConversationParticipant{
				{ConversationID: conv.ID, UserID: userID},
				{ConversationID: conv.ID, UserID: req.UserID},
			}
			return tx.Create(&participants).Error
		})
		if err != nil {
			log.Error("Failed to create conversation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, conv)
	})

	rg.GET("/conversations/:id", func(c *gin.Context) {
		conv, ok := memberConversation(c, db)
		if !ok {
			return
		}
		view := conversationView{Conversation: conv}
		db.Preload("User").Where("conversation_id = ?", conv.ID).Find(&view.Participants)
		db.Model(&models.DirectMessage{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, auth.CurrentUserID(c), false).
			Count(&view.UnreadCount)
		c.JSON(http.StatusOK, view)
	})

	// Leaving removes the membership; the conversation itself (and its
	// messages, via cascade) goes away with the last participant.
	rg.POST("/conversations/:id/leave", func(c *gin.Context) {
		conv, ok := memberConversation(c, db)
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("conversation_id = ? AND user_id = ?", conv.ID, auth.CurrentUserID(c)).
				Delete(&models.ConversationParticipant{}).Error
			if err != nil {
				return err
			}
			var remaining int64
			if err := tx.Model(&models.ConversationParticipant{}).
				Where("conversation_id = ?", conv.ID).
				Count(&remaining).Error; err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.Where("conversation_id = ?", conv.ID).
					Delete(&models.DirectMessage{}).Error; err != nil {
					return err
				}
				return tx.Delete(&conv).Error
			}
			return nil
		})
		if err != nil {
			log.Error("Failed to leave conversation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "left"})
	})

	rg.POST("/conversations/:id/mark-read", func(c *gin.Context) {
		conv, ok := memberConversation(c, db)
		if !ok {
			return
		}
		err := db.Model(&models.DirectMessage{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, auth.CurrentUserID(c), false).
			Update("is_read", true).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "read"})
	})

	rg.GET("/conversations/:id/messages", func(c *gin.Context) {
		conv, ok := memberConversation(c, db)
		if !ok {
			return
		}
		var messages []models.DirectMessage
		err := db.Preload("Sender").
			Where("conversation_id = ?", conv.ID).
			Order("created_at ASC").
			Find(&messages).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, messages)
	})

	rg.POST("/conversations/:id/messages", func(c *gin.Context) {
		conv, ok := memberConversation(c, db)
		if !ok {
			return
		}
		var req struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}

		// Messaging into a room the counterpart already left is rejected,
		// not silently dropped.
		var participants int64
		db.Model(&models.ConversationParticipant{}).
			Where("conversation_id = ?", conv.ID).
			Count(&participants)
		if participants < 2 {
			c.JSON(http.StatusConflict, gin.H{"error": "the other participant has left this conversation"})
			return
		}

		message := models.DirectMessage{
			ConversationID: conv.ID,
			SenderID:       auth.CurrentUserID(c),
			Content:        req.Content,
		}
		if err := db.Create(&message).Error; err != nil {
			log.Error("Failed to create message", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, message)
	})
}

// memberConversation loads the :id conversation and enforces that the
// caller is a participant. Non-members get 404, not 403, so conversation
// ids cannot be probed.
func memberConversation(c *gin.Context, db *gorm.DB) (models.Conversation, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return models.Conversation{}, false
	}

	var membership models.ConversationParticipant
	err = db.First(&membership, "conversation_id = ? AND user_id = ?", id, auth.CurrentUserID(c)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return models.Conversation{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return models.Conversation{}, false
	}

	var conv models.Conversation
	if err := db.First(&conv, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return models.Conversation{}, false
	}
	return conv, true
}
