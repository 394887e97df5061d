package services_test

import (
	"testing"
	"time"

	"scholarmate/models"
	"scholarmate/providers/openapi"
	"scholarmate/services"
)

func TestParseRecruitmentDate(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2026-03-01", timePtr(2026, 3, 1)},
		{" 2026-03-01 ", timePtr(2026, 3, 1)},
		{"", nil},
		{"상시", nil},
		{"2026.03.01", nil},
		{"2026-3-1", nil},
		{"03-01-2026", nil},
	}
	for _, tt := range tests {
		got := services.ParseRecruitmentDate(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseRecruitmentDate(%q) = %v, want nil", tt.in, got)
		case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
			t.Errorf("ParseRecruitmentDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRawFromRecordRequiresNameAndFoundation(t *testing.T) {
	tests := []struct {
		name   string
		rec    openapi.Record
		wantOK bool
	}{
		{"complete", openapi.Record{Name: "미래장학금", FoundationName: "미래재단"}, true},
		{"missing name", openapi.Record{FoundationName: "미래재단"}, false},
		{"missing foundation", openapi.Record{Name: "미래장학금"}, false},
		{"blank name", openapi.Record{Name: "   ", FoundationName: "미래재단"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := services.RawFromRecord(tt.rec)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestRawFromRecordDerivesProductID(t *testing.T) {
	raw, ok := services.RawFromRecord(openapi.Record{
		Name:           " 미래장학금 ",
		FoundationName: " 미래재단 ",
		ProductType:    "장학금",
		RecruitmentEnd: "2026-09-30",
	})
	if !ok {
		t.Fatal("record unexpectedly skipped")
	}
	if raw.ProductID != "미래장학금_미래재단" {
		t.Errorf("product id = %q", raw.ProductID)
	}
	if raw.Name != "미래장학금" || raw.FoundationName != "미래재단" {
		t.Errorf("fields not trimmed: %q / %q", raw.Name, raw.FoundationName)
	}
	if raw.RecruitmentStart != nil {
		t.Error("missing start date should stay nil in the raw row")
	}
	if raw.RecruitmentEnd == nil {
		t.Error("end date not parsed")
	}
}

func TestCuratedFromRawResetsRegion(t *testing.T) {
	raw := models.RawScholarship{
		ProductID:                   "미래장학금_미래재단",
		Name:                        "미래장학금",
		FoundationName:              "미래재단",
		MajorField:                  "전공무관",
		ResidencyRequirementDetails: "경기도 거주자",
	}
	sch := services.CuratedFromRaw(raw)

	if sch.Region != "" || sch.IsRegionProcessed {
		t.Errorf("projection must reset region state, got %q / %v", sch.Region, sch.IsRegionProcessed)
	}
	if sch.ProductID != raw.ProductID || sch.MajorField != raw.MajorField {
		t.Error("projection dropped fields")
	}
	if sch.ResidencyRequirementDetails != raw.ResidencyRequirementDetails {
		t.Error("residency text must carry over for the region classifier")
	}
}

func TestProductID(t *testing.T) {
	if got := services.ProductID("A", "B"); got != "A_B" {
		t.Errorf("ProductID = %q", got)
	}
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
