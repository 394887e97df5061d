package services_test

import (
	"testing"

	"scholarmate/models"
	"scholarmate/providers/llm"
	"scholarmate/services"
)

func regionRow(productID, region string) models.Scholarship {
	return models.Scholarship{ProductID: productID, Region: region, IsRegionProcessed: region != ""}
}

func TestFilterByRegionEmptyProfileKeepsNationwideOnly(t *testing.T) {
	pool := []models.Scholarship{
		regionRow("a", "전국"),
		regionRow("b", "서울특별시"),
		regionRow("c", "경기도 파주, 전국"),
		regionRow("d", ""),
	}
	got := services.FilterByRegion(pool, models.UserScholarship{})

	want := map[string]bool{"a": true, "c": true}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for _, s := range got {
		if !want[s.ProductID] {
			t.Errorf("unexpected row %q in result", s.ProductID)
		}
	}
}

func TestFilterByRegionMatchesFullProvinceAndNationwide(t *testing.T) {
	profile := models.UserScholarship{Region: "경기도", District: "파주"}
	pool := []models.Scholarship{
		regionRow("full", "경기도 파주"),
		regionRow("province", "경기도"),
		regionRow("nationwide", "전국"),
		regionRow("multi", "서울특별시, 경기도 파주"),
		regionRow("other", "서울특별시"),
		regionRow("partial", "경기도 수원"),
		regionRow("pending", ""),
	}
	got := services.FilterByRegion(pool, profile)

	want := map[string]bool{"full": true, "province": true, "nationwide": true, "multi": true}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(got), len(want), ids(got))
	}
	for _, s := range got {
		if !want[s.ProductID] {
			t.Errorf("unexpected row %q in result", s.ProductID)
		}
	}
}

func TestScoreScholarship(t *testing.T) {
	profile := models.UserScholarship{
		Region:     "경기도",
		District:   "파주",
		MajorField: "컴퓨터공학",
	}
	tests := []struct {
		name string
		row  models.Scholarship
		want int
	}{
		{"exact full region", regionRow("x", "경기도 파주"), 10},
		{"province only", regionRow("x", "경기도"), 7},
		{"major match", models.Scholarship{Region: "서울특별시", MajorField: "공학계열(컴퓨터공학 등)"}, 5},
		{"nationwide", regionRow("x", "전국"), 1},
		{"no match", regionRow("x", "서울특별시"), 0},
		{"exact beats nationwide", regionRow("x", "경기도 파주, 전국"), 10},
		{"province beats major", models.Scholarship{Region: "경기도", MajorField: "컴퓨터공학"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.ScoreScholarship(tt.row, profile); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreMonotonicity(t *testing.T) {
	profile := models.UserScholarship{Region: "경기도", District: "파주", MajorField: "간호학"}
	ordered := []models.Scholarship{
		regionRow("exact", "경기도 파주"),
		regionRow("province", "경기도"),
		{Region: "서울특별시", MajorField: "간호학과"},
		regionRow("nationwide", "전국"),
		regionRow("none", "서울특별시"),
	}
	prev := services.ScoreScholarship(ordered[0], profile)
	for _, row := range ordered[1:] {
		score := services.ScoreScholarship(row, profile)
		if score > prev {
			t.Fatalf("score %d for region %q exceeds more specific match %d", score, row.Region, prev)
		}
		prev = score
	}
}

func TestSampleByScoreCapsAndOrders(t *testing.T) {
	profile := models.UserScholarship{Region: "경기도", District: "파주"}
	var pool []models.Scholarship
	for i := 0; i < 35; i++ {
		pool = append(pool, regionRow("low", "전국"))
	}
	pool = append(pool, regionRow("top", "경기도 파주"))

	got := services.SampleByScore(pool, profile, 30)
	if len(got) != 30 {
		t.Fatalf("sample size = %d, want 30", len(got))
	}
	if got[0].ProductID != "top" {
		t.Errorf("highest-scored row not first, got %q", got[0].ProductID)
	}
}

func TestValidateRankedDropsUnknownIDs(t *testing.T) {
	sampled := []models.Scholarship{
		{ProductID: "known-1"},
		{ProductID: "known-2"},
	}
	items := []llm.RankedItem{
		{ProductID: "known-2", Reason: "b"},
		{ProductID: "invented", Reason: "hallucinated"},
		{ProductID: "", Reason: "blank"},
		{ProductID: "known-1", Reason: "a"},
	}
	got := services.ValidateRanked(items, sampled)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0].ProductID != "known-2" || got[1].ProductID != "known-1" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestFilterBasicUniversityType(t *testing.T) {
	pool := []models.Scholarship{
		{ProductID: "a", UniversityType: "4년제(일반대)"},
		{ProductID: "b", UniversityType: "전문대(2~3년제)"},
		{ProductID: "c", UniversityType: "해당없음"},
	}
	got := services.FilterBasic(pool, models.UserScholarship{UniversityType: "4년제"})
	if len(got) != 1 || got[0].ProductID != "a" {
		t.Fatalf("got %v, want only a", ids(got))
	}
}

func TestFilterBasicNoDistinctMatchKeepsPool(t *testing.T) {
	pool := []models.Scholarship{
		{ProductID: "a", UniversityType: "4년제(일반대)"},
		{ProductID: "b", UniversityType: "전문대(2~3년제)"},
	}
	got := services.FilterBasic(pool, models.UserScholarship{UniversityType: "특수대학원"})
	if len(got) != 2 {
		t.Fatalf("unmatched filter should keep the pool, got %v", ids(got))
	}
}

func TestFilterBasicAcademicYearIgnoresSpaces(t *testing.T) {
	pool := []models.Scholarship{
		{ProductID: "a", AcademicYearType: "대학 2학기 이상"},
		{ProductID: "b", AcademicYearType: "대학신입생"},
	}
	got := services.FilterBasic(pool, models.UserScholarship{AcademicYearType: "대학2학기"})
	if len(got) != 1 || got[0].ProductID != "a" {
		t.Fatalf("got %v, want only a", ids(got))
	}
}

func TestFilterBasicMajorWildcards(t *testing.T) {
	pool := []models.Scholarship{
		{ProductID: "match", MajorField: "공학계열(컴퓨터공학 등)"},
		{ProductID: "any", MajorField: "전공무관"},
		{ProductID: "none", MajorField: "해당없음"},
		{ProductID: "specific", MajorField: "특정학과"},
		{ProductID: "other", MajorField: "인문계열"},
	}
	got := services.FilterBasic(pool, models.UserScholarship{MajorField: "컴퓨터공학"})

	want := map[string]bool{"match": true, "any": true, "none": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for _, s := range got {
		if !want[s.ProductID] {
			t.Errorf("unexpected row %q in result", s.ProductID)
		}
	}
}

func TestFullRegion(t *testing.T) {
	tests := []struct {
		province, district, want string
	}{
		{"경기도", "파주", "경기도 파주"},
		{"경기도", "", "경기도"},
		{"", "", ""},
		{" 경기도 ", " 파주 ", "경기도 파주"},
	}
	for _, tt := range tests {
		profile := models.UserScholarship{Region: tt.province, District: tt.district}
		if got := services.FullRegion(profile); got != tt.want {
			t.Errorf("FullRegion(%q, %q) = %q, want %q", tt.province, tt.district, got, tt.want)
		}
	}
}

func ids(pool []models.Scholarship) []string {
	out := make([]string, 0, len(pool))
	for _, s := range pool {
		out = append(out, s.ProductID)
	}
	return out
}
