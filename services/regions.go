package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholarmate/models"
	"scholarmate/providers/llm"
)

// RegionService turns free-text residency requirements into canonical
// comma-separated region paths. It only touches rows the normalizer has
// not processed yet; the sync resets that flag whenever a row changes.
type RegionService struct {
	DB         *gorm.DB
	Classifier llm.RegionClassifier
	Logger     *zap.Logger

	// BatchSize bounds one ProcessPending pass so a cron tick cannot run
	// unbounded against a fresh catalog.
	BatchSize int
}

func NewRegionService(db *gorm.DB, classifier llm.RegionClassifier, logger *zap.Logger) *RegionService {
	return &RegionService{DB: db, Classifier: classifier, Logger: logger, BatchSize: 200}
}

// ProcessPending classifies unprocessed rows one by one. An empty
// classifier result means the provider failed, so the row stays pending
// and is retried on the next pass rather than silently becoming
// nationwide.
func (s *RegionService) ProcessPending(ctx context.Context) (processed int, err error) {
	var pending []models.Scholarship
	q := s.DB.WithContext(ctx).
		Where("is_region_processed = ?", false).
		Order("id")
	if s.BatchSize > 0 {
		q = q.Limit(s.BatchSize)
	}
	if err := q.Find(&pending).Error; err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	for _, sch := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		region := s.Classifier.ClassifyRegion(ctx, sch.ResidencyRequirementDetails)
		if region == "" {
			regionsClassifiedTotal.WithLabelValues("error").Inc()
			s.Logger.Warn("Region classification failed, leaving row pending",
				zap.String("product_id", sch.ProductID))
			continue
		}

		err := s.DB.WithContext(ctx).Model(&models.Scholarship{}).
			Where("id = ?", sch.ID).
			Updates(map[string]interface{}{
				"region":              region,
				"is_region_processed": true,
			}).Error
		if err != nil {
			return processed, err
		}
		regionsClassifiedTotal.WithLabelValues("ok").Inc()
		processed++
	}

	s.Logger.Info("Region normalization pass finished",
		zap.Int("pending", len(pending)), zap.Int("processed", processed))
	return processed, nil
}
