package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarmate/auth"
	"scholarmate/models"
)

func setupCommunityRoutes(router *gin.Engine, db *gorm.DB, jwtManager *auth.Manager, log *zap.Logger) {
	rg := router.Group("/api/community")
	authed := rg.Group("", auth.RequireAuth(jwtManager))

	type postView struct {
		models.Post
		LikeCount    int64 `json:"like_count"`
		CommentCount int64 `json:"comment_count"`
	}
	enrich := func(post models.Post) postView {
		view := postView{Post: post}
		db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&view.LikeCount)
		db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&view.CommentCount)
		return view
	}

	rg.GET("/posts", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "10"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 50 {
			perPage = 10
		}

		query := db.Model(&models.Post{}).Where("is_published = ?", true)
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("title ILIKE ? OR content ILIKE ?", like, like)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var posts []models.Post
		err := query.Preload("Author").
			Order("created_at DESC").
			Offset((page - 1) * perPage).Limit(perPage).
			Find(&posts).Error
		if err != nil {
			log.Error("Post query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		views := make([]postView, 0, len(posts))
		for _, post := range posts {
			views = append(views, enrich(post))
		}
		c.JSON(http.StatusOK, gin.H{
			"count":   count,
			"page":    page,
			"perPage": perPage,
			"results": views,
		})
	})

	rg.GET("/posts/:id", func(c *gin.Context) {
		var post models.Post
		err := db.Preload("Author").First(&post, "id = ? AND is_published = ?", c.Param("id"), true).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, enrich(post))
	})

	// Separate from GET so cache-friendly reads do not bump the counter.
	rg.POST("/posts/:id/view", func(c *gin.Context) {
		result := db.Model(&models.Post{}).
			Where("id = ?", c.Param("id")).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "counted"})
	})

	authed.POST("/posts", func(c *gin.Context) {
		var post models.Post
		if err := c.ShouldBindJSON(&post); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post payload"})
			return
		}
		if post.Title == "" || post.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
			return
		}
		if post.Category != models.PostCategoryStory && post.Category != models.PostCategoryFeed {
			post.Category = models.PostCategoryStory
		}
		post.ID = 0
		post.AuthorID = auth.CurrentUserID(c)
		post.ViewCount = 0
		post.IsPublished = true

		if err := db.Create(&post).Error; err != nil {
			log.Error("Failed to create post", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, post)
	})

	authed.PUT("/posts/:id", func(c *gin.Context) {
		var post models.Post
		if err := db.First(&post, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		if post.AuthorID != auth.CurrentUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
			return
		}

		var req struct {
			ScholarshipName   *string          `json:"scholarship_name"`
			Title             *string          `json:"title"`
			Content           *string          `json:"content"`
			Tags              *json.RawMessage `json:"tags"`
			AuthorIsRecipient *bool            `json:"author_is_recipient"`
			IsPublished       *bool            `json:"is_published"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post payload"})
			return
		}

		updates := map[string]interface{}{}
		if req.ScholarshipName != nil {
			updates["scholarship_name"] = *req.ScholarshipName
		}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Content != nil {
			updates["content"] = *req.Content
		}
		if req.Tags != nil {
			updates["tags"] = *req.Tags
		}
		if req.AuthorIsRecipient != nil {
			updates["author_is_recipient"] = *req.AuthorIsRecipient
		}
		if req.IsPublished != nil {
			updates["is_published"] = *req.IsPublished
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
			return
		}
		if err := db.Model(&post).Updates(updates).Error; err != nil {
			log.Error("Failed to update post", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, post)
	})

	authed.DELETE("/posts/:id", func(c *gin.Context) {
		var post models.Post
		if err := db.First(&post, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		claims := auth.CurrentClaims(c)
		if post.AuthorID != claims.UserID && !claims.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
			return
		}
		if err := db.Delete(&post).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})

	authed.POST("/posts/:id/like", func(c *gin.Context) {
		postID, userID, ok := postAndUser(c, db)
		if !ok {
			return
		}
		like := models.PostLike{PostID: postID, UserID: userID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"liked": true})
	})

	authed.DELETE("/posts/:id/like", func(c *gin.Context) {
		postID, userID, ok := postAndUser(c, db)
		if !ok {
			return
		}
		db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		c.JSON(http.StatusOK, gin.H{"liked": false})
	})

	authed.POST("/posts/:id/bookmark", func(c *gin.Context) {
		postID, userID, ok := postAndUser(c, db)
		if !ok {
			return
		}
		bookmark := models.PostBookmark{PostID: postID, UserID: userID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&bookmark).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"bookmarked": true})
	})

	authed.DELETE("/posts/:id/bookmark", func(c *gin.Context) {
		postID, userID, ok := postAndUser(c, db)
		if !ok {
			return
		}
		db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostBookmark{})
		c.JSON(http.StatusOK, gin.H{"bookmarked": false})
	})

	authed.GET("/my-bookmarks", func(c *gin.Context) {
		var posts []models.Post
		err := db.Preload("Author").
			Joins("JOIN post_bookmarks ON post_bookmarks.post_id = posts.id").
			Where("post_bookmarks.user_id = ? AND posts.is_published = ?", auth.CurrentUserID(c), true).
			Order("post_bookmarks.created_at DESC").
			Find(&posts).Error
		if err != nil {
			log.Error("Bookmark query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, posts)
	})

	rg.GET("/posts/:id/comments", func(c *gin.Context) {
		var comments []models.Comment
		err := db.Preload("Author").
			Where("post_id = ?", c.Param("id")).
			Order("created_at ASC").
			Find(&comments).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, comments)
	})

	authed.POST("/posts/:id/comments", func(c *gin.Context) {
		postID, userID, ok := postAndUser(c, db)
		if !ok {
			return
		}
		var req struct {
			Content  string `json:"content" binding:"required"`
			ParentID *uint  `json:"parent_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		if req.ParentID != nil {
			var parent models.Comment
			if err := db.First(&parent, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "parent comment not found on this post"})
				return
			}
		}

		comment := models.Comment{
			PostID:   postID,
			AuthorID: userID,
			Content:  req.Content,
			ParentID: req.ParentID,
		}
		if err := db.Create(&comment).Error; err != nil {
			log.Error("Failed to create comment", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, comment)
	})

	authed.DELETE("/comments/:id", func(c *gin.Context) {
		var comment models.Comment
		if err := db.First(&comment, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		claims := auth.CurrentClaims(c)
		if comment.AuthorID != claims.UserID && !claims.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
			return
		}
		if err := db.Delete(&comment).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})

	setupConversationRoutes(authed, db, log)
}

// postAndUser resolves the :id param to an existing post and the caller.
func postAndUser(c *gin.Context, db *gorm.DB) (uint, uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, 0, false
	}
	var count int64
	db.Model(&models.Post{}).Where("id = ?", id).Count(&count)
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return 0, 0, false
	}
	return uint(id), auth.CurrentUserID(c), true
}
