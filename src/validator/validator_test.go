package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/validator"
)

type fakeStore struct {
	chunks []models.Chunk
}

func (f *fakeStore) RecordFetch(ctx context.Context, url string, success bool, rtMs int64, status int, ua, proxy string, retries int) error {
	return nil
}
func (f *fakeStore) RecordSelector(ctx context.Context, field, selector string, success bool, quality float64) error {
	return nil
}
func (f *fakeStore) BestSelectors(ctx context.Context, field string, limit int) ([]models.SelectorStat, error) {
	return nil, nil
}
func (f *fakeStore) BestUA(ctx context.Context) (string, error)    { return "", nil }
func (f *fakeStore) BestProxy(ctx context.Context) (string, error) { return "", nil }
func (f *fakeStore) SaveRecord(ctx context.Context, code string, recordJSON []byte) error {
	return nil
}
func (f *fakeStore) AddChunk(ctx context.Context, field string, chunk models.Chunk) error {
	f.chunks = append(f.chunks, chunk)
	return nil
}
func (f *fakeStore) ChunksForField(ctx context.Context, field string) ([]models.Chunk, error) {
	return nil, nil
}
func (f *fakeStore) CreateErrorReport(ctx context.Context, report models.ErrorReport) error {
	return nil
}
func (f *fakeStore) ResolveErrorReport(ctx context.Context, reportID string) error { return nil }

func (f *fakeStore) PriorityFields(ctx context.Context, limit int) ([]string, error) { return nil, nil }
func (f *fakeStore) SeedAgents(ctx context.Context, agents []string) error           { return nil }
func (f *fakeStore) SeedProxies(ctx context.Context, proxies []string) error         { return nil }
func (f *fakeStore) Close() error                                                    { return nil }

func sampleProduct() *models.Product {
	free := true
	autoPoints := true
	return &models.Product{
		URL:         "https://example.com/item/12345",
		Code:        "12345",
		Name:        "Widget",
		Price:       models.Price{Sale: 9900, Original: 12900, DiscountRate: 23},
		Images:      models.Images{Detail: []string{"a.jpg", "b.jpg"}},
		Description: "a reasonably long description of the widget",
		Reviews:     models.Reviews{Rating: 4.5, Count: 20},
		Shipping:    models.Shipping{Free: &free},
		Points:      models.Points{Auto: &autoPoints},
		Coupon:      models.Coupon{Present: true, Kind: models.CouponAuto},
		PageStructure: &models.PageStructure{
			ClassFrequency: map[string]int{"price": 3},
			SemanticStructure: map[models.SemanticField][]models.ClassFreq{
				models.SemanticPrice: {{Class: "price", Freq: 3}},
			},
		},
	}
}

func completedChecklist() *models.ChecklistOutcome {
	return &models.ChecklistOutcome{
		Categories: []models.CategoryOutcome{
			{Items: []models.ChecklistItemOutcome{
				{ID: "shipping_terms_present", Status: models.ItemCompleted},
				{ID: "coupon_present", Status: models.ItemCompleted},
				{ID: "points_present", Status: models.ItemCompleted},
			}},
		},
	}
}

func TestValidate_CorrectsMissingDerivedFieldsSilently(t *testing.T) {
	store := &fakeStore{}
	v := validator.New(store)
	product := sampleProduct()
	result := &models.AnalyzerResult{}

	outcome := v.Validate(context.Background(), product, result, completedChecklist())

	assert.Equal(t, "Widget", result.DerivedName)
	assert.Equal(t, 9900, result.DerivedSalePrice)
	assert.Empty(t, outcome.Mismatches, "a previously-empty derived value is a silent correction, not a mismatch")
	assert.Contains(t, outcome.CorrectedFields, "name")
	assert.Contains(t, outcome.CorrectedFields, "sale_price")
}

func TestValidate_RecordsMismatchWhenDerivedValueDiffers(t *testing.T) {
	store := &fakeStore{}
	v := validator.New(store)
	product := sampleProduct()
	result := &models.AnalyzerResult{
		DerivedName:      "Stale Name",
		DerivedSalePrice: 1,
	}

	outcome := v.Validate(context.Background(), product, result, completedChecklist())

	require.NotEmpty(t, outcome.Mismatches)
	var foundName bool
	for _, m := range outcome.Mismatches {
		if m.Field == "name" {
			foundName = true
			assert.Equal(t, "Stale Name", m.DerivedValue)
			assert.Equal(t, "Widget", m.SourceValue)
			assert.True(t, m.Corrected)
			assert.Equal(t, models.SeverityHigh, m.Severity)
		}
	}
	assert.True(t, foundName)
	assert.Equal(t, "Widget", result.DerivedName, "mismatch is corrected in place")
}

func TestValidate_MissingWhenPresentButChecklistIncomplete(t *testing.T) {
	store := &fakeStore{}
	v := validator.New(store)
	product := sampleProduct()
	result := &models.AnalyzerResult{}

	outcome := v.Validate(context.Background(), product, result, &models.ChecklistOutcome{})

	require.NotEmpty(t, outcome.Missing)
	assert.False(t, outcome.Valid)
	ids := map[string]bool{}
	for _, m := range outcome.Missing {
		ids[m.ChecklistItemID] = true
		assert.Equal(t, models.SeverityHigh, m.Severity)
	}
	assert.True(t, ids["shipping_terms_present"])
	assert.True(t, ids["coupon_present"])
	assert.True(t, ids["points_present"])
}

func TestValidate_ValidWhenNoDriftAndChecklistComplete(t *testing.T) {
	store := &fakeStore{}
	v := validator.New(store)
	product := sampleProduct()
	result := &models.AnalyzerResult{
		DerivedName:           "Widget",
		DerivedSalePrice:      9900,
		DerivedOriginalPrice:  12900,
		DerivedReviewCount:    20,
		DerivedRating:         4.5,
		DerivedImageCount:     2,
		DerivedDescriptionLen: len([]rune(product.Description)),
	}

	outcome := v.Validate(context.Background(), product, result, completedChecklist())

	assert.True(t, outcome.Valid)
	assert.Equal(t, 100, outcome.Score)
	assert.Empty(t, outcome.Mismatches)
	assert.Empty(t, outcome.Missing)
}

func TestValidate_EmitsChunksForMismatchesAndMissing(t *testing.T) {
	store := &fakeStore{}
	v := validator.New(store)
	product := sampleProduct()
	result := &models.AnalyzerResult{}

	v.Validate(context.Background(), product, result, &models.ChecklistOutcome{})

	require.NotEmpty(t, store.chunks)
	for _, c := range store.chunks {
		assert.Equal(t, product.URL, c.ContextURL)
		assert.Equal(t, product.Code, c.ContextCode)
	}
}

func TestValidate_NilStoreSkipsChunkEmission(t *testing.T) {
	v := validator.New(nil)
	product := sampleProduct()
	result := &models.AnalyzerResult{}

	assert.NotPanics(t, func() {
		v.Validate(context.Background(), product, result, &models.ChecklistOutcome{})
	})
}

