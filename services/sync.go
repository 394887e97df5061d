package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarmate/models"
	"scholarmate/providers/openapi"
)

// SyncResult summarizes one catalog synchronization run.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Skipped  int `json:"skipped"`
	RawRows  int `json:"raw_rows"`
	Curated  int `json:"curated"`
	Duration string `json:"duration"`
}

// SyncService keeps the scholarship catalog in step with the public data
// API. Phase 1 upserts every fetched record into the raw staging table,
// phase 2 projects the rows still open for applications into the curated
// table the product reads from.
type SyncService struct {
	DB     *gorm.DB
	Client *openapi.Client
	Logger *zap.Logger
}

func NewSyncService(db *gorm.DB, client *openapi.Client, logger *zap.Logger) *SyncService {
	return &SyncService{DB: db, Client: client, Logger: logger}
}

// Run executes both phases. The raw table is append-and-update only; curated
// rows are re-projected from the raw rows on every run so eligibility text
// edits upstream propagate without manual intervention.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	started := time.Now()

	records, err := s.Client.FetchAll(ctx)
	if err != nil {
		syncRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetching scholarship records: %w", err)
	}

	result := &SyncResult{Fetched: len(records)}
	for _, rec := range records {
		raw, ok := RawFromRecord(rec)
		if !ok {
			result.Skipped++
			continue
		}
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "product_type", "recruitment_start", "recruitment_end",
				"university_type", "academic_year_type", "major_field",
				"residency_requirement_details", "grade_criteria_details",
				"income_criteria_details", "specific_qualification_details",
				"eligibility_restrictions", "managing_organization_type",
				"foundation_name", "selection_method_details",
				"number_of_recipients_details", "required_documents_details",
				"support_details", "recommendation_required", "url",
				"updated_at",
			}),
		}).Create(&raw).Error
		if err != nil {
			// One broken record must not sink the whole batch.
			s.Logger.Error("Failed to upsert raw scholarship",
				zap.String("product_id", raw.ProductID), zap.Error(err))
			result.Skipped++
			continue
		}
		result.RawRows++
	}

	curated, err := s.projectCurated(ctx)
	if err != nil {
		syncRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	result.Curated = curated
	result.Duration = time.Since(started).Round(time.Millisecond).String()

	syncRunsTotal.WithLabelValues("ok").Inc()
	scholarshipsSyncedTotal.Add(float64(result.RawRows))
	s.Logger.Info("Scholarship sync finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("skipped", result.Skipped),
		zap.Int("raw_rows", result.RawRows),
		zap.Int("curated", result.Curated),
		zap.String("duration", result.Duration))
	return result, nil
}

// projectCurated copies raw rows whose recruitment window has not closed
// into the curated table. Every projected row gets an empty, unprocessed
// region so the normalizer re-classifies it on its next pass.
func (s *SyncService) projectCurated(ctx context.Context) (int, error) {
	today := time.Now().Truncate(24 * time.Hour)

	var raws []models.RawScholarship
	err := s.DB.WithContext(ctx).
		Where("recruitment_start IS NOT NULL").
		Where("recruitment_end >= ? OR recruitment_end IS NULL", today).
		Find(&raws).Error
	if err != nil {
		return 0, fmt.Errorf("loading open raw scholarships: %w", err)
	}

	count := 0
	for _, raw := range raws {
		sch := CuratedFromRaw(raw)
		err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "product_type", "recruitment_start", "recruitment_end",
				"university_type", "academic_year_type", "major_field",
				"residency_requirement_details", "grade_criteria_details",
				"income_criteria_details", "specific_qualification_details",
				"eligibility_restrictions", "managing_organization_type",
				"foundation_name", "selection_method_details",
				"number_of_recipients_details", "required_documents_details",
				"support_details", "recommendation_required", "url",
				"region", "is_region_processed", "updated_at",
			}),
		}).Create(&sch).Error
		if err != nil {
			s.Logger.Error("Failed to project scholarship",
				zap.String("product_id", sch.ProductID), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}

// ProductID derives the stable cross-table key for a scholarship.
func ProductID(name, foundation string) string {
	return fmt.Sprintf("%s_%s", name, foundation)
}

// RawFromRecord converts an API record into a staging row. Records missing
// a name or a foundation cannot form a product_id and are skipped.
func RawFromRecord(rec openapi.Record) (models.RawScholarship, bool) {
	name := strings.TrimSpace(rec.Name)
	foundation := strings.TrimSpace(rec.FoundationName)
	if name == "" || foundation == "" {
		return models.RawScholarship{}, false
	}
	return models.RawScholarship{
		ProductID:                    ProductID(name, foundation),
		Name:                         name,
		FoundationName:               foundation,
		ProductType:                  strings.TrimSpace(rec.ProductType),
		ManagingOrganizationType:     strings.TrimSpace(rec.ManagingOrganizationType),
		RecruitmentStart:             ParseRecruitmentDate(rec.RecruitmentStart),
		RecruitmentEnd:               ParseRecruitmentDate(rec.RecruitmentEnd),
		UniversityType:               strings.TrimSpace(rec.UniversityType),
		AcademicYearType:             strings.TrimSpace(rec.AcademicYearType),
		MajorField:                   strings.TrimSpace(rec.MajorField),
		ResidencyRequirementDetails:  rec.ResidencyRequirementDetails,
		GradeCriteriaDetails:         rec.GradeCriteriaDetails,
		IncomeCriteriaDetails:        rec.IncomeCriteriaDetails,
		SpecificQualificationDetails: rec.SpecificQualificationDetails,
		EligibilityRestrictions:      rec.EligibilityRestrictions,
		SelectionMethodDetails:       rec.SelectionMethodDetails,
		NumberOfRecipientsDetails:    rec.NumberOfRecipientsDetails,
		RequiredDocumentsDetails:     rec.RequiredDocumentsDetails,
		SupportDetails:               rec.SupportDetails,
		RecommendationRequired:       recommendationRequired(rec.RecommendationRequired),
		URL:                          strings.TrimSpace(rec.URL),
	}, true
}

// CuratedFromRaw projects a staging row into the curated table with the
// region reset to empty and unprocessed.
func CuratedFromRaw(raw models.RawScholarship) models.Scholarship {
	return models.Scholarship{
		ProductID:                    raw.ProductID,
		Name:                         raw.Name,
		ProductType:                  raw.ProductType,
		RecruitmentStart:             raw.RecruitmentStart,
		RecruitmentEnd:               raw.RecruitmentEnd,
		UniversityType:               raw.UniversityType,
		AcademicYearType:             raw.AcademicYearType,
		MajorField:                   raw.MajorField,
		ResidencyRequirementDetails:  raw.ResidencyRequirementDetails,
		GradeCriteriaDetails:         raw.GradeCriteriaDetails,
		IncomeCriteriaDetails:        raw.IncomeCriteriaDetails,
		SpecificQualificationDetails: raw.SpecificQualificationDetails,
		EligibilityRestrictions:      raw.EligibilityRestrictions,
		Region:                       "",
		IsRegionProcessed:            false,
		ManagingOrganizationType:     raw.ManagingOrganizationType,
		FoundationName:               raw.FoundationName,
		SelectionMethodDetails:       raw.SelectionMethodDetails,
		NumberOfRecipientsDetails:    raw.NumberOfRecipientsDetails,
		RequiredDocumentsDetails:     raw.RequiredDocumentsDetails,
		SupportDetails:               raw.SupportDetails,
		RecommendationRequired:       raw.RecommendationRequired,
		URL:                          raw.URL,
	}
}

// ParseRecruitmentDate accepts YYYY-MM-DD only; anything else ("", "상시",
// malformed values) yields nil rather than a zero date.
func ParseRecruitmentDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func recommendationRequired(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "필요없음" && s != "해당없음"
}
