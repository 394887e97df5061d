package models

import (
	"time"
)

// Scholarship is a curated scholarship row, projected from RawScholarship
// and enriched by the region normalizer. product_id is derived as
// "{name}_{foundation_name}" and identifies the scholarship across both
// the raw and the curated table.
type Scholarship struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductID   string `json:"product_id" gorm:"uniqueIndex;not null"`
	Name        string `json:"name"`
	ProductType string `json:"product_type"`

	RecruitmentStart *time.Time `json:"recruitment_start,omitempty"`
	RecruitmentEnd   *time.Time `json:"recruitment_end,omitempty"`

	UniversityType   string `json:"university_type"`
	AcademicYearType string `json:"academic_year_type"`
	MajorField       string `json:"major_field"`

	ResidencyRequirementDetails  string `json:"residency_requirement_details" gorm:"type:text"`
	GradeCriteriaDetails         string `json:"grade_criteria_details" gorm:"type:text"`
	IncomeCriteriaDetails        string `json:"income_criteria_details" gorm:"type:text"`
	SpecificQualificationDetails string `json:"specific_qualification_details" gorm:"type:text"`
	EligibilityRestrictions      string `json:"eligibility_restrictions" gorm:"type:text"`

	// Region holds comma-separated canonical region paths produced by the
	// normalizer. While IsRegionProcessed is false the value must not be
	// used for filtering.
	Region            string `json:"region" gorm:"size:512"`
	IsRegionProcessed bool   `json:"is_region_processed" gorm:"index"`

	ManagingOrganizationType   string `json:"managing_organization_type"`
	FoundationName             string `json:"foundation_name"`
	SelectionMethodDetails     string `json:"selection_method_details" gorm:"type:text"`
	NumberOfRecipientsDetails  string `json:"number_of_recipients_details" gorm:"type:text"`
	RequiredDocumentsDetails   string `json:"required_documents_details" gorm:"type:text"`
	SupportDetails             string `json:"support_details" gorm:"type:text"`
	RecommendationRequired     bool   `json:"recommendation_required"`

	URL string `json:"url,omitempty"`
}

// RawScholarship is the verbatim staging record from the public data API,
// keyed by the same product_id as the curated table. It is the source of
// truth for re-sync and backs the public list/search endpoints.
type RawScholarship struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductID   string `json:"product_id" gorm:"uniqueIndex;not null"`
	Name        string `json:"name" gorm:"index"`
	ProductType string `json:"product_type" gorm:"index"`

	RecruitmentStart *time.Time `json:"recruitment_start,omitempty"`
	RecruitmentEnd   *time.Time `json:"recruitment_end,omitempty"`

	UniversityType   string `json:"university_type"`
	AcademicYearType string `json:"academic_year_type"`
	MajorField       string `json:"major_field"`

	ResidencyRequirementDetails  string `json:"residency_requirement_details" gorm:"type:text"`
	GradeCriteriaDetails         string `json:"grade_criteria_details" gorm:"type:text"`
	IncomeCriteriaDetails        string `json:"income_criteria_details" gorm:"type:text"`
	SpecificQualificationDetails string `json:"specific_qualification_details" gorm:"type:text"`
	EligibilityRestrictions      string `json:"eligibility_restrictions" gorm:"type:text"`

	ManagingOrganizationType  string `json:"managing_organization_type"`
	FoundationName            string `json:"foundation_name"`
	SelectionMethodDetails    string `json:"selection_method_details" gorm:"type:text"`
	NumberOfRecipientsDetails string `json:"number_of_recipients_details" gorm:"type:text"`
	RequiredDocumentsDetails  string `json:"required_documents_details" gorm:"type:text"`
	SupportDetails            string `json:"support_details" gorm:"type:text"`
	RecommendationRequired    bool   `json:"recommendation_required"`

	Description string `json:"description,omitempty" gorm:"type:text"`
	URL         string `json:"url,omitempty"`
}
