package openapi

// Record mirrors one Korean-keyed scholarship entry in the odcloud
// response's data array.
type Record struct {
	Name                         string `json:"상품명"`
	FoundationName               string `json:"운영기관명"`
	ManagingOrganizationType     string `json:"운영기관구분"`
	ProductType                  string `json:"학자금유형구분"`
	RecruitmentStart             string `json:"모집시작일"`
	RecruitmentEnd               string `json:"모집종료일"`
	UniversityType               string `json:"대학구분"`
	AcademicYearType             string `json:"학년구분"`
	MajorField                   string `json:"학과구분"`
	ResidencyRequirementDetails  string `json:"지역거주여부 상세내용"`
	GradeCriteriaDetails         string `json:"성적기준 상세내용"`
	IncomeCriteriaDetails        string `json:"소득기준 상세내용"`
	SupportDetails               string `json:"지원내역 상세내용"`
	SpecificQualificationDetails string `json:"특정자격 상세내용"`
	SelectionMethodDetails       string `json:"선발방법 상세내용"`
	NumberOfRecipientsDetails    string `json:"선발인원 상세내용"`
	EligibilityRestrictions      string `json:"자격제한 상세내용"`
	RequiredDocumentsDetails     string `json:"제출서류 상세내용"`
	RecommendationRequired       string `json:"추천필요여부 상세내용"`
	URL                          string `json:"홈페이지 주소"`
}

// Response is the top-level odcloud envelope.
type Response struct {
	Data       []Record `json:"data"`
	TotalCount int      `json:"totalCount"`
}
