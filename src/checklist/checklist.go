// Package checklist implements the Checklist Evaluator (C6): a fixed
// catalog of auto/manual items across four categories, each auto item
// bound to an evaluator function run under a 5-second soft timeout,
// grounded on checklist_evaluator.py's catalog shape.
package checklist

import (
	"context"
	"time"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

// itemOutcome is what an evaluator function returns before confidence
// assignment.
type itemOutcome struct {
	passed         bool
	recommendation string
}

// evaluatorFunc inspects the record/analysis for one checklist item.
type evaluatorFunc func(product *models.Product, result *models.AnalyzerResult) itemOutcome

// catalogItem is one fixed-catalog entry.
type catalogItem struct {
	id        string
	title     string
	category  models.ChecklistCategory
	auto      bool
	evaluator evaluatorFunc
	field     string // structure-mapping field; confidenceFor does not consult it
}

// itemTimeout is §4.6's 5-second soft timeout per item.
const itemTimeout = 5 * time.Second

// catalog is the fixed checklist, partitioned into the four
// categories named in §4.6 and supplemented from
// checklist_evaluator.py's category shape (sale_prep/sales_growth/
// shop_ops/ads_promo, each with auto and manual items).
var catalog = []catalogItem{
	{id: "name_present", title: "Product name is set", category: models.CategorySalePrep, auto: true, field: "name", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Name != "" {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "set a product name"}
	}},
	{id: "price_present", title: "Sale price is set", category: models.CategorySalePrep, auto: true, field: "price", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Price.Sale >= priceMin && p.Price.Sale <= priceMax {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "set a valid sale price"}
	}},
	{id: "image_present", title: "At least one product image is set", category: models.CategorySalePrep, auto: true, field: "image", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Images.Thumbnail != "" || len(p.Images.Detail) > 0 {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "add at least one product image"}
	}},
	{id: "description_present", title: "Description meets minimum length", category: models.CategorySalePrep, auto: true, field: "description", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if len([]rune(p.Description)) >= 100 {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "expand the description to at least 100 characters"}
	}},
	{id: "sale_prep_manual_review", title: "Manual listing review completed", category: models.CategorySalePrep, auto: false},

	{id: "keyword_coverage", title: "Search keywords cover the product", category: models.CategorySalesGrowth, auto: true, field: "seo", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if len(p.SearchKeywords) > 0 {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "add search keywords"}
	}},
	{id: "promotion_present", title: "Listing is promoted or has a coupon", category: models.CategorySalesGrowth, auto: true, field: "coupon", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.IsPromoted || p.Coupon.Present {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "consider a promotion or coupon"}
	}},
	{id: "sales_growth_manual_review", title: "Manual promotion strategy review", category: models.CategorySalesGrowth, auto: false},

	{id: "shipping_terms_present", title: "Shipping terms are set", category: models.CategoryShopOps, auto: true, field: "shipping", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Shipping.Free != nil {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "set shipping terms"}
	}},
	{id: "return_policy_present", title: "Return policy is set", category: models.CategoryShopOps, auto: true, field: "shipping", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Shipping.ReturnPolicy != "" && p.Shipping.ReturnPolicy != models.ReturnNone {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "set a return policy"}
	}},
	{id: "seller_level_present", title: "Seller level is known", category: models.CategoryShopOps, auto: true, field: "seller", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Seller.Level != "" && p.Seller.Level != models.SellerUnknown {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "verify seller level"}
	}},
	{id: "shop_ops_manual_review", title: "Manual shop operations review", category: models.CategoryShopOps, auto: false},

	{id: "coupon_present", title: "Coupon is configured", category: models.CategoryAdsPromo, auto: true, field: "coupon", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Coupon.Present {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "configure a coupon"}
	}},
	{id: "points_present", title: "Reward points are configured", category: models.CategoryAdsPromo, auto: true, field: "points", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.Points.Auto != nil || p.Points.Max != nil {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "configure reward points"}
	}},
	{id: "promoted_flag_used", title: "Promoted flag reflects active campaigns", category: models.CategoryAdsPromo, auto: true, field: "promotion", evaluator: func(p *models.Product, r *models.AnalyzerResult) itemOutcome {
		if p.IsPromoted {
			return itemOutcome{passed: true}
		}
		return itemOutcome{recommendation: "consider enabling the promoted flag for an active campaign"}
	}},
	{id: "ads_promo_manual_review", title: "Manual ad campaign review", category: models.CategoryAdsPromo, auto: false},
}

const (
	priceMin = 100
	priceMax = 1_000_000
)

// Evaluate runs the full catalog against a product/analysis pair,
// enforcing the 5-second soft timeout per item.
func Evaluate(ctx context.Context, product *models.Product, result *models.AnalyzerResult) *models.ChecklistOutcome {
	byCategory := map[models.ChecklistCategory][]models.ChecklistItemOutcome{}
	order := []models.ChecklistCategory{models.CategorySalePrep, models.CategorySalesGrowth, models.CategoryShopOps, models.CategoryAdsPromo}

	for _, item := range catalog {
		outcome := evaluateItem(ctx, item, product, result)
		byCategory[item.category] = append(byCategory[item.category], outcome)
	}

	var categories []models.CategoryOutcome
	totalCompleted, totalCount := 0, 0
	for _, name := range order {
		items := byCategory[name]
		completed := 0
		for _, it := range items {
			if it.Status == models.ItemCompleted {
				completed++
			}
		}
		totalCompleted += completed
		totalCount += len(items)
		categories = append(categories, models.CategoryOutcome{
			Name:       name,
			Completion: percentage(completed, len(items)),
			Items:      items,
		})
	}

	return &models.ChecklistOutcome{
		OverallCompletion: percentage(totalCompleted, totalCount),
		Categories:        categories,
	}
}

func evaluateItem(ctx context.Context, item catalogItem, product *models.Product, result *models.AnalyzerResult) models.ChecklistItemOutcome {
	base := models.ChecklistItemOutcome{ID: item.id, Title: item.title, AutoChecked: item.auto, StructureMapping: item.field}

	if !item.auto {
		base.Status = models.ItemManual
		base.Confidence = models.ConfidenceUnknown
		return base
	}

	outcome, timedOut := runWithSoftTimeout(ctx, item.evaluator, product, result)
	if timedOut {
		base.Status = models.ItemPending
		base.Recommendation = "skipped: evaluator timed out"
		base.Confidence = confidenceFor(item, product, false)
		return base
	}

	if outcome.passed {
		base.Status = models.ItemCompleted
	} else {
		base.Status = models.ItemPending
		base.Recommendation = outcome.recommendation
	}
	base.Confidence = confidenceFor(item, product, outcome.passed)
	return base
}

// runWithSoftTimeout races the evaluator against a per-item deadline,
// per §4.6's "context-deadline-per-item plus select against the
// evaluator goroutine's result channel" design.
func runWithSoftTimeout(ctx context.Context, fn evaluatorFunc, product *models.Product, result *models.AnalyzerResult) (itemOutcome, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	resultCh := make(chan itemOutcome, 1)
	go func() {
		resultCh <- fn(product, result)
	}()

	select {
	case outcome := <-resultCh:
		return outcome, false
	case <-itemCtx.Done():
		return itemOutcome{}, true
	}
}

// confidenceFor assigns an item's confidence: low when no product data
// is available, high when the item passed, and medium otherwise. The
// page structure and the item's field are not consulted.
func confidenceFor(item catalogItem, product *models.Product, passed bool) models.Confidence {
	if product == nil {
		return models.ConfidenceLow
	}
	if passed {
		return models.ConfidenceHigh
	}
	return models.ConfidenceMedium
}

func percentage(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int((float64(completed)/float64(total))*100 + 0.5)
}
