// Package validator implements the Validator/Reconciler (C7):
// compares a Record against its AnalyzerResult derived fields,
// corrects drift in place, and emits chunks for the Chunk Feedback
// Loop. Grounded on data_validator.py's validate_crawler_vs_report.
package validator

import (
	"context"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// field severities per §4.7.
const (
	fieldName          = "name"
	fieldSalePrice     = "sale_price"
	fieldOriginalPrice = "original_price"
	fieldReviewCount   = "review_count"
	fieldRating        = "rating"
	fieldImageCount    = "image_count"
	fieldDescLen       = "description_length"
	fieldPoints        = "points"
	fieldCoupon        = "coupon"
	fieldShipping      = "shipping"
)

// Validator reconciles a Product against its AnalyzerResult.
type Validator struct {
	store store.PerformanceStore
}

// New builds a Validator. store may be nil, in which case chunk
// emission is skipped.
func New(perfStore store.PerformanceStore) *Validator {
	return &Validator{store: perfStore}
}

// Validate compares product against result's derived fields,
// correcting drift in place on result, and returns the outcome.
// checklist is consulted for the missing-item detection pass.
func (v *Validator) Validate(ctx context.Context, product *models.Product, result *models.AnalyzerResult, checklist *models.ChecklistOutcome) *models.ValidationOutcome {
	outcome := &models.ValidationOutcome{Mismatches: []models.Mismatch{}, Missing: []models.Missing{}, CorrectedFields: []string{}}

	v.checkHighSeverity(ctx, product, result, outcome)
	v.checkMediumSeverity(ctx, product, result, outcome)
	v.checkMissingAgainstChecklist(ctx, product, checklist, outcome)

	uncorrected := 0
	for _, m := range outcome.Mismatches {
		if !m.Corrected {
			uncorrected++
		}
	}
	outcome.Score = clampScore(100 - (100 * uncorrected / 10))
	outcome.Valid = uncorrected == 0 && len(outcome.Missing) == 0
	return outcome
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// recordMismatchOrCorrect implements §9's resolved open question: a
// mismatch is recorded only when the derived field already held a
// value that differs from the source; a missing-downstream value
// (derived zero-value) is corrected silently — still added to
// corrected_fields, but with no mismatch entry. A chunk is emitted
// exactly once per recorded mismatch, per §4.7's "one chunk per
// mismatch and per missing".
func (v *Validator) recordMismatchOrCorrect(ctx context.Context, product *models.Product, outcome *models.ValidationOutcome, field string, sourceValue, derivedValue interface{}, derivedWasSet bool, severity models.Severity, correct func()) {
	if derivedWasSet && derivedValue != sourceValue {
		correct()
		outcome.Mismatches = append(outcome.Mismatches, models.Mismatch{
			Field: field, SourceValue: sourceValue, DerivedValue: derivedValue, Severity: severity, Corrected: true,
		})
		outcome.CorrectedFields = append(outcome.CorrectedFields, field)
		v.emitChunk(ctx, field, product)
		return
	}
	if !derivedWasSet {
		correct()
		outcome.CorrectedFields = append(outcome.CorrectedFields, field)
	}
}

func (v *Validator) checkHighSeverity(ctx context.Context, product *models.Product, result *models.AnalyzerResult, outcome *models.ValidationOutcome) {
	if product.Name != "" {
		v.recordMismatchOrCorrect(ctx, product, outcome, fieldName, product.Name, result.DerivedName, result.DerivedName != "", models.SeverityHigh, func() {
			result.DerivedName = product.Name
		})
	}
	if product.Price.Sale > 0 {
		v.recordMismatchOrCorrect(ctx, product, outcome, fieldSalePrice, product.Price.Sale, result.DerivedSalePrice, result.DerivedSalePrice != 0, models.SeverityHigh, func() {
			result.DerivedSalePrice = product.Price.Sale
		})
	}
	if product.Price.Original > 0 {
		v.recordMismatchOrCorrect(ctx, product, outcome, fieldOriginalPrice, product.Price.Original, result.DerivedOriginalPrice, result.DerivedOriginalPrice != 0, models.SeverityHigh, func() {
			result.DerivedOriginalPrice = product.Price.Original
		})
	}
}

func (v *Validator) checkMediumSeverity(ctx context.Context, product *models.Product, result *models.AnalyzerResult, outcome *models.ValidationOutcome) {
	v.recordMismatchOrCorrect(ctx, product, outcome, fieldReviewCount, product.Reviews.Count, result.DerivedReviewCount, result.DerivedReviewCount != 0, models.SeverityMedium, func() {
		result.DerivedReviewCount = product.Reviews.Count
	})
	v.recordMismatchOrCorrect(ctx, product, outcome, fieldRating, product.Reviews.Rating, result.DerivedRating, result.DerivedRating != 0, models.SeverityMedium, func() {
		result.DerivedRating = product.Reviews.Rating
	})
	imageCount := len(product.Images.Detail)
	v.recordMismatchOrCorrect(ctx, product, outcome, fieldImageCount, imageCount, result.DerivedImageCount, result.DerivedImageCount != 0, models.SeverityMedium, func() {
		result.DerivedImageCount = imageCount
	})
	descLen := len([]rune(product.Description))
	v.recordMismatchOrCorrect(ctx, product, outcome, fieldDescLen, descLen, result.DerivedDescriptionLen, result.DerivedDescriptionLen != 0, models.SeverityMedium, func() {
		result.DerivedDescriptionLen = descLen
	})
}

// checkMissingAgainstChecklist covers points/coupon/shipping: these
// are presence-only fields with no derived counterpart on
// AnalyzerResult, so their drift is expressed as missing-item
// detection against the checklist rather than a mismatch.
func (v *Validator) checkMissingAgainstChecklist(ctx context.Context, product *models.Product, checklistOutcome *models.ChecklistOutcome, outcome *models.ValidationOutcome) {
	if checklistOutcome == nil {
		return
	}
	completed := map[string]bool{}
	for _, category := range checklistOutcome.Categories {
		for _, item := range category.Items {
			if item.Status == models.ItemCompleted {
				completed[item.ID] = true
			}
		}
	}

	checks := []struct {
		present bool
		field   string
		itemID  string
	}{
		{product.Points.Auto != nil || product.Points.Max != nil, fieldPoints, "points_present"},
		{product.Coupon.Present, fieldCoupon, "coupon_present"},
		{product.Shipping.Free != nil, fieldShipping, "shipping_terms_present"},
	}
	for _, c := range checks {
		if c.present && !completed[c.itemID] {
			outcome.Missing = append(outcome.Missing, models.Missing{Field: c.field, ChecklistItemID: c.itemID, Severity: models.SeverityHigh})
			v.emitChunk(ctx, c.field, product)
		}
	}
}

// semanticFieldFor maps a validation field name onto the
// PageStructure's semantic bucket so the related classes emitted in
// the chunk are the ones actually observed near that field on the
// page, not the whole-page class frequency table.
var semanticFieldFor = map[string]models.SemanticField{
	fieldName:          models.SemanticName,
	fieldSalePrice:     models.SemanticPrice,
	fieldOriginalPrice: models.SemanticPrice,
	fieldReviewCount:   models.SemanticReview,
	fieldRating:        models.SemanticReview,
	fieldImageCount:    models.SemanticImage,
	fieldDescLen:       models.SemanticDescription,
	fieldPoints:        models.SemanticPoints,
	fieldCoupon:        models.SemanticCoupon,
	fieldShipping:      models.SemanticShipping,
}

// emitChunk records a learning chunk for the given field, pulling
// related classes from the product's PageStructure snapshot, per
// §4.7's "one chunk per mismatch and per missing".
func (v *Validator) emitChunk(ctx context.Context, field string, product *models.Product) {
	if v.store == nil {
		return
	}
	chunk := models.Chunk{
		Field:          field,
		ContextURL:     product.URL,
		ContextCode:    product.Code,
		ElementPresent: true,
	}
	if product.PageStructure != nil {
		chunk.ClassFrequency = product.PageStructure.ClassFrequency
		if sf, ok := semanticFieldFor[field]; ok {
			for _, cf := range product.PageStructure.SemanticStructure[sf] {
				chunk.RelatedClasses = append(chunk.RelatedClasses, cf.Class)
			}
		}
	}
	_ = v.store.AddChunk(ctx, field, chunk)
}
