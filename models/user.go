package models

import (
	"time"
)

// User is a platform account. Passwords are stored as bcrypt hashes.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Email        string `json:"email" gorm:"index;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsStaff      bool   `json:"is_staff"`
}

// UserScholarship is the one-to-one academic/financial/demographic profile
// used as the recommendation input. It exists only once per user.
type UserScholarship struct {
	UserID    uint      `json:"-" gorm:"primaryKey"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Name      string     `json:"name"`
	Gender    string     `json:"gender"`
	BirthDate *time.Time `json:"birth_date,omitempty"`

	// Region is the province ("시/도"), District the city/county/borough
	// ("시/군/구"); the recommender joins them into the full region path.
	Region   string `json:"region"`
	District string `json:"district"`

	IncomeLevel      string `json:"income_level"`
	UniversityType   string `json:"university_type"`
	UniversityName   string `json:"university_name"`
	MajorField       string `json:"major_field"`
	AcademicYearType string `json:"academic_year_type"`
	Semester         string `json:"semester"`

	GPALastSemester float64 `json:"gpa_last_semester"`
	GPAOverall      float64 `json:"gpa_overall"`

	IsMultiCulturalFamily     bool `json:"is_multi_cultural_family"`
	IsSingleParentFamily      bool `json:"is_single_parent_family"`
	IsMultipleChildrenFamily  bool `json:"is_multiple_children_family"`
	IsNationalMerit           bool `json:"is_national_merit"`

	AdditionalInfo string `json:"additional_info" gorm:"type:text"`
}

// Wishlist links a user to a bookmarked curated scholarship. The pair is
// unique; the calendar view is a join over this table.
type Wishlist struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	AddedAt time.Time `json:"added_at" gorm:"autoCreateTime"`

	UserID        uint `json:"user_id" gorm:"uniqueIndex:uk_wishlist_user_scholarship;not null"`
	ScholarshipID uint `json:"scholarship_id" gorm:"uniqueIndex:uk_wishlist_user_scholarship;not null"`

	Scholarship Scholarship `json:"scholarship" gorm:"foreignKey:ScholarshipID"`
}
