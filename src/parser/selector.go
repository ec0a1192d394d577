package parser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// extractFunc resolves one selector against a document, returning the
// extracted text/value and whether the selector matched anything
// usable. Mirrors crawler.py's extract_func closures.
type extractFunc func(doc *goquery.Selection, selector string) (string, bool)

// fallbackExtract runs §4.3's three-tier selector fallback: up to 5
// hard-coded defaults, then C1's learned top-N for the field, then a
// field-specific heuristic. Records a (field, selector, success) outcome
// to the store for every default/learned selector tried, so a selector
// that never matches accumulates failures and the bandit ranking can
// demote it.
func fallbackExtract(
	ctx context.Context,
	perfStore store.PerformanceStore,
	doc *goquery.Selection,
	field string,
	defaults []string,
	extract extractFunc,
	heuristic func(doc *goquery.Selection) (string, bool),
) string {
	tried := defaults
	if len(tried) > 5 {
		tried = tried[:5]
	}
	for _, selector := range tried {
		if value, ok := extract(doc, selector); ok {
			recordSelectorOutcome(ctx, perfStore, field, selector, true)
			return value
		}
		recordSelectorOutcome(ctx, perfStore, field, selector, false)
	}

	if perfStore != nil {
		learned, err := perfStore.BestSelectors(ctx, field, 5)
		if err == nil {
			for _, stat := range learned {
				if containsSelector(defaults, stat.Key) {
					continue
				}
				if value, ok := extract(doc, stat.Key); ok {
					recordSelectorOutcome(ctx, perfStore, field, stat.Key, true)
					return value
				}
				recordSelectorOutcome(ctx, perfStore, field, stat.Key, false)
			}
		}
	}

	if heuristic != nil {
		if value, ok := heuristic(doc); ok {
			return value
		}
	}
	return ""
}

func containsSelector(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func recordSelectorOutcome(ctx context.Context, perfStore store.PerformanceStore, field, selector string, success bool) {
	if perfStore == nil {
		return
	}
	_ = perfStore.RecordSelector(ctx, field, selector, success, 1.0)
}

// selectorText runs a CSS selector and returns its trimmed text when
// non-empty and longer than 3 characters, matching crawler.py's
// meaningful-text guard.
func selectorText(doc *goquery.Selection, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(sel.Text())
	if len(text) <= 3 {
		return "", false
	}
	if isGenericPlaceholder(text) {
		return "", false
	}
	return text, true
}

var genericPlaceholders = map[string]bool{
	"Qoo10": true, "ホーム": true, "Home": true, "トップ": true, "Top": true, "商品名": true,
}

func isGenericPlaceholder(text string) bool {
	return genericPlaceholders[text]
}
