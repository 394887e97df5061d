package llm_test

import (
	"testing"

	"scholarmate/providers/llm"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare array", `[{"a":1}]`, `[{"a":1}]`},
		{"prose around array", "추천 결과입니다:\n[{\"a\":1}]\n감사합니다.", `[{"a":1}]`},
		{"code fence", "```json\n[1,2]\n```", "[1,2]"},
		{"single object", `{"product_id":"x"}`, `{"product_id":"x"}`},
		{"no json", "죄송합니다, 추천할 수 없습니다.", "[]"},
		{"empty", "", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := llm.ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRankedItems(t *testing.T) {
	reply := "다음과 같이 추천합니다.\n" +
		`[{"product_id":"a_재단","reason":"지역 일치"},{"product_id":"b_재단","reason":"전공 일치"}]`
	items := llm.ParseRankedItems(reply)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ProductID != "a_재단" || items[0].Reason != "지역 일치" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

func TestParseRankedItemsSingleObject(t *testing.T) {
	items := llm.ParseRankedItems(`{"product_id":"a_재단","reason":"유일한 후보"}`)
	if len(items) != 1 || items[0].ProductID != "a_재단" {
		t.Fatalf("single object not accepted: %+v", items)
	}
}

func TestParseRankedItemsGarbage(t *testing.T) {
	for _, in := range []string{"", "추천 불가", `[{"product_id":`} {
		if items := llm.ParseRankedItems(in); len(items) != 0 {
			t.Errorf("ParseRankedItems(%q) = %+v, want empty", in, items)
		}
	}
}
