package main

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarmate/auth"
	"scholarmate/models"
	"scholarmate/providers/llm"
	"scholarmate/providers/openapi"
	"scholarmate/services"
)

func setupScholarshipRoutes(router *gin.Engine, db *gorm.DB, jwtManager *auth.Manager, recommender *services.RecommendationService, classifier llm.RegionClassifier, log *zap.Logger) {
	rg := router.Group("/api")

	// Public catalog over the raw staging table, which keeps closed
	// scholarships browsable.
	rg.GET("/scholarships", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "10"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 10
		}

		query := db.Model(&models.RawScholarship{})
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			query = query.Where("name ILIKE ? OR foundation_name ILIKE ?", like, like)
		}
		if typ := c.Query("type"); typ != "" {
			query = query.Where("product_type = ?", typ)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			log.Error("Scholarship count failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		if c.Query("sort") == "end_date" {
			query = query.Order("recruitment_end ASC NULLS LAST")
		} else {
			query = query.Order("created_at DESC")
		}

		var rows []models.RawScholarship
		if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
			log.Error("Scholarship query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"count":   count,
			"page":    page,
			"perPage": perPage,
			"results": rows,
		})
	})

	rg.GET("/scholarships/:product_id", func(c *gin.Context) {
		var row models.RawScholarship
		if err := db.First(&row, "product_id = ?", c.Param("product_id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "scholarship not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, row)
	})

	authed := rg.Group("", auth.RequireAuth(jwtManager))

	authed.GET("/wishlist", func(c *gin.Context) {
		var items []models.Wishlist
		err := db.Preload("Scholarship").
			Where("user_id = ?", auth.CurrentUserID(c)).
			Order("added_at DESC").
			Find(&items).Error
		if err != nil {
			log.Error("Wishlist query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, items)
	})

	// Toggle: a second POST for the same scholarship removes it again.
	authed.POST("/wishlist", func(c *gin.Context) {
		var req struct {
			ProductID string `json:"product_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
			return
		}

		var sch models.Scholarship
		if err := db.First(&sch, "product_id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "scholarship not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		userID := auth.CurrentUserID(c)
		var existing models.Wishlist
		err := db.First(&existing, "user_id = ? AND scholarship_id = ?", userID, sch.ID).Error
		if err == nil {
			if err := db.Delete(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"wishlisted": false})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		item := models.Wishlist{UserID: userID, ScholarshipID: sch.ID}
		if err := db.Create(&item).Error; err != nil {
			log.Error("Failed to create wishlist entry", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"wishlisted": true, "item": item})
	})

	authed.DELETE("/wishlist/:scholarship_id", func(c *gin.Context) {
		result := db.Where("user_id = ? AND scholarship_id = ?",
			auth.CurrentUserID(c), c.Param("scholarship_id")).
			Delete(&models.Wishlist{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "wishlist entry not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "removed"})
	})

	// Accepts a verbatim record from the public data API, promotes it into
	// the curated table with an inline region classification, then
	// wishlists it. Lets the frontend save scholarships the nightly sync
	// has not projected yet.
	authed.POST("/wishlist/from-api", func(c *gin.Context) {
		var rec openapi.Record
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scholarship payload"})
			return
		}
		raw, ok := services.RawFromRecord(rec)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "상품명 and 운영기관명 are required"})
			return
		}

		sch := services.CuratedFromRaw(raw)
		if region := classifier.ClassifyRegion(c.Request.Context(), sch.ResidencyRequirementDetails); region != "" {
			sch.Region = region
			sch.IsRegionProcessed = true
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).Create(&sch).Error
		if err != nil {
			log.Error("Failed to create scholarship from API payload", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		// Re-read in case the row already existed.
		if err := db.First(&sch, "product_id = ?", raw.ProductID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		item := models.Wishlist{UserID: auth.CurrentUserID(c), ScholarshipID: sch.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error; err != nil {
			log.Error("Failed to wishlist scholarship", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"scholarship": sch})
	})

	// Calendar feed: the wishlisted scholarships with their recruitment
	// windows, soonest deadline first.
	authed.GET("/calendar", func(c *gin.Context) {
		var items []models.Wishlist
		err := db.Preload("Scholarship").
			Where("user_id = ?", auth.CurrentUserID(c)).
			Find(&items).Error
		if err != nil {
			log.Error("Calendar query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		type calendarEntry struct {
			ProductID string     `json:"product_id"`
			Name      string     `json:"name"`
			Start     *time.Time `json:"recruitment_start"`
			End       *time.Time `json:"recruitment_end"`
			URL       string     `json:"url,omitempty"`
		}
		sort.SliceStable(items, func(i, j int) bool {
			ei, ej := items[i].Scholarship.RecruitmentEnd, items[j].Scholarship.RecruitmentEnd
			if ei == nil {
				return false
			}
			if ej == nil {
				return true
			}
			return ei.Before(*ej)
		})
		entries := make([]calendarEntry, 0, len(items))
		for _, item := range items {
			entries = append(entries, calendarEntry{
				ProductID: item.Scholarship.ProductID,
				Name:      item.Scholarship.Name,
				Start:     item.Scholarship.RecruitmentStart,
				End:       item.Scholarship.RecruitmentEnd,
				URL:       item.Scholarship.URL,
			})
		}
		c.JSON(http.StatusOK, entries)
	})

	authed.GET("/recommendations", func(c *gin.Context) {
		recs, err := recommender.Recommend(c.Request.Context(), auth.CurrentUserID(c))
		if err != nil {
			if errors.Is(err, services.ErrProfileNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "scholarship profile not found"})
				return
			}
			log.Error("Recommendation pipeline failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, recs)
	})
}

func setupAdminRoutes(router *gin.Engine, jwtManager *auth.Manager, syncService *services.SyncService, regionService *services.RegionService, log *zap.Logger) {
	rg := router.Group("/api", auth.RequireAuth(jwtManager), auth.RequireStaff())

	rg.POST("/sync", func(c *gin.Context) {
		go func() {
			result, err := syncService.Run(context.Background())
			if err != nil {
				log.Error("Manual sync failed", zap.Error(err))
				return
			}
			log.Info("Manual sync completed",
				zap.Int("raw_rows", result.RawRows), zap.Int("curated", result.Curated))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "scholarship sync triggered"})
	})

	rg.POST("/sync/regions", func(c *gin.Context) {
		go func() {
			processed, err := regionService.ProcessPending(context.Background())
			if err != nil {
				log.Error("Manual region normalization failed", zap.Error(err))
				return
			}
			log.Info("Manual region normalization completed", zap.Int("processed", processed))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "region normalization triggered"})
	})
}
