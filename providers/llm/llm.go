// Package llm abstracts the language-model calls used by the region
// normalizer and the recommendation ranker so they can be stubbed in tests
// and swapped for a different provider.
package llm

import (
	"context"
)

// Candidate is the simplified scholarship view handed to the ranker.
type Candidate struct {
	ProductID                    string `json:"product_id"`
	Name                         string `json:"name"`
	ProductType                  string `json:"product_type"`
	UniversityType               string `json:"university_type"`
	AcademicYearType             string `json:"academic_year_type"`
	MajorField                   string `json:"major_field"`
	Region                       string `json:"region"`
	GradeCriteriaDetails         string `json:"grade_criteria_details"`
	IncomeCriteriaDetails        string `json:"income_criteria_details"`
	SpecificQualificationDetails string `json:"specific_qualification_details"`
}

// Profile is the user profile view handed to the ranker. Region already
// carries the joined "{province} {district}" path.
type Profile struct {
	Name                     string  `json:"name"`
	Gender                   string  `json:"gender"`
	Region                   string  `json:"region"`
	IncomeLevel              string  `json:"income_level"`
	UniversityType           string  `json:"university_type"`
	UniversityName           string  `json:"university_name"`
	MajorField               string  `json:"major_field"`
	AcademicYearType         string  `json:"academic_year_type"`
	Semester                 string  `json:"semester"`
	GPALastSemester          float64 `json:"gpa_last_semester"`
	GPAOverall               float64 `json:"gpa_overall"`
	IsMultiCulturalFamily    bool    `json:"is_multi_cultural_family"`
	IsSingleParentFamily     bool    `json:"is_single_parent_family"`
	IsMultipleChildrenFamily bool    `json:"is_multiple_children_family"`
	IsNationalMerit          bool    `json:"is_national_merit"`
	AdditionalInfo           string  `json:"additional_info"`
}

// RankedItem is one entry of the ranker's answer.
type RankedItem struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// RegionClassifier turns a free-text residency requirement into a
// comma-separated canonical region-path string. An empty return value
// means the region is unknown; callers must never read it as nationwide.
type RegionClassifier interface {
	ClassifyRegion(ctx context.Context, text string) string
}

// Ranker asks the model for a ranked top-5 with justifications. A nil or
// empty result triggers the caller's scored fallback; Rank never returns
// an error because provider failures degrade to an empty answer.
type Ranker interface {
	Rank(ctx context.Context, candidates []Candidate, profile Profile) []RankedItem
}
