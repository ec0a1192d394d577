package checklist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/checklist"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

func completeProduct() *models.Product {
	free := true
	auto := true
	return &models.Product{
		Name:           "Complete Product",
		Price:          models.Price{Sale: 5000},
		Images:         models.Images{Thumbnail: "https://img.example.com/t.jpg"},
		Description:    "This description easily exceeds one hundred characters by describing the product in reasonable depth across several sentences.",
		SearchKeywords: []string{"kw"},
		IsPromoted:     true,
		Shipping:       models.Shipping{Free: &free, ReturnPolicy: models.ReturnFree},
		Seller:         models.Seller{Level: models.SellerPower},
		Coupon:         models.Coupon{Present: true, Kind: models.CouponAuto},
		Points:         models.Points{Auto: &auto},
	}
}

func TestEvaluate_FourCategoriesPresent(t *testing.T) {
	outcome := checklist.Evaluate(context.Background(), completeProduct(), &models.AnalyzerResult{})
	require.Len(t, outcome.Categories, 4)

	names := map[models.ChecklistCategory]bool{}
	for _, c := range outcome.Categories {
		names[c.Name] = true
	}
	assert.True(t, names[models.CategorySalePrep])
	assert.True(t, names[models.CategorySalesGrowth])
	assert.True(t, names[models.CategoryShopOps])
	assert.True(t, names[models.CategoryAdsPromo])
}

func TestEvaluate_CompleteProductHighCompletion(t *testing.T) {
	outcome := checklist.Evaluate(context.Background(), completeProduct(), &models.AnalyzerResult{})
	assert.True(t, outcome.OverallCompletion >= 70)
}

func TestEvaluate_EmptyProductLowCompletion(t *testing.T) {
	outcome := checklist.Evaluate(context.Background(), &models.Product{}, &models.AnalyzerResult{})
	assert.True(t, outcome.OverallCompletion < 50)
}

func TestEvaluate_ManualItemsAlwaysManualUnknown(t *testing.T) {
	outcome := checklist.Evaluate(context.Background(), completeProduct(), &models.AnalyzerResult{})
	foundManual := false
	for _, c := range outcome.Categories {
		for _, item := range c.Items {
			if !item.AutoChecked {
				foundManual = true
				assert.Equal(t, models.ItemManual, item.Status)
				assert.Equal(t, models.ConfidenceUnknown, item.Confidence)
			}
		}
	}
	assert.True(t, foundManual)
}
