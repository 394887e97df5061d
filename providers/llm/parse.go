package llm

import (
	"encoding/json"
	"regexp"
)

// jsonSpanRe grabs the first bracketed or braced span from a model reply,
// which is often wrapped in prose or code fences.
var jsonSpanRe = regexp.MustCompile(`(?s)\[.*\]|\{.*\}`)

// ExtractJSON returns the first JSON array/object span in raw, or "[]".
func ExtractJSON(raw string) string {
	if m := jsonSpanRe.FindString(raw); m != "" {
		return m
	}
	return "[]"
}

// ParseRankedItems best-effort parses a model reply into ranked items.
// Anything unparseable yields an empty list, never an error.
func ParseRankedItems(raw string) []RankedItem {
	span := ExtractJSON(raw)

	var items []RankedItem
	if err := json.Unmarshal([]byte(span), &items); err == nil {
		return items
	}

	// A single object instead of an array is still usable.
	var single RankedItem
	if err := json.Unmarshal([]byte(span), &single); err == nil && single.ProductID != "" {
		return []RankedItem{single}
	}
	return nil
}
