package openapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"scholarmate/config"
	"scholarmate/providers/openapi"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*openapi.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		ScholarshipAPIURL: server.URL,
		ServiceKey:        "test-key",
		SyncPageSize:      2,
		SyncMaxPages:      50,
	}
	return openapi.NewClient(cfg, zap.NewNop()), server
}

func TestFetchPageDecodesKoreanKeys(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("serviceKey"); got != "test-key" {
			t.Errorf("serviceKey = %q", got)
		}
		if got := r.URL.Query().Get("returnType"); got != "JSON" {
			t.Errorf("returnType = %q", got)
		}
		fmt.Fprint(w, `{
			"data": [{
				"상품명": "미래장학금",
				"운영기관명": "미래재단",
				"학자금유형구분": "장학금",
				"모집종료일": "2026-09-30",
				"지역거주여부 상세내용": "경기도 거주자",
				"홈페이지 주소": "https://example.org"
			}],
			"totalCount": 1
		}`)
	})

	records, total, err := client.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("got %d records, total %d", len(records), total)
	}
	rec := records[0]
	if rec.Name != "미래장학금" || rec.FoundationName != "미래재단" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ResidencyRequirementDetails != "경기도 거주자" || rec.URL != "https://example.org" {
		t.Errorf("detail fields not decoded: %+v", rec)
	}
}

func TestFetchAllStopsOnShortPage(t *testing.T) {
	var pagesServed []int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		pagesServed = append(pagesServed, page)

		// Page size is 2: page 1 is full, page 2 is short.
		var data []map[string]string
		if page == 1 {
			data = []map[string]string{
				{"상품명": "a", "운영기관명": "f"},
				{"상품명": "b", "운영기관명": "f"},
			}
		} else {
			data = []map[string]string{
				{"상품명": "c", "운영기관명": "f"},
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data, "totalCount": 3})
	})

	records, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
	if len(pagesServed) != 2 {
		t.Errorf("served pages %v, want exactly two requests", pagesServed)
	}
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [], "totalCount": 0}`)
	})
	records, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want none", len(records))
	}
}

func TestFetchPageUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	if _, _, err := client.FetchPage(context.Background(), 1); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
