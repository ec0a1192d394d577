package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/analyzer"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

type fakeSizer struct {
	size int64
	err  error
}

func (f fakeSizer) HeadSize(ctx context.Context, url string) (int64, error) {
	return f.size, f.err
}

func sampleProduct() *models.Product {
	return &models.Product{
		Name:           "Wireless Earbuds Pro",
		Category:       "Electronics",
		Brand:          "Acme",
		Description:    "A very detailed description that goes well beyond three hundred characters to ensure the description dimension scores highly under the length-based tiers defined for this analyzer, covering build quality, battery life, comfort, and included accessories in full detail for a discerning buyer.\n- bullet one\n- bullet two",
		SearchKeywords: []string{"earbuds", "wireless"},
		Price:          models.Price{Sale: 12900, Original: 19800, DiscountRate: 20},
		Images:         models.Images{Thumbnail: "https://img.example.com/t.jpg", Detail: []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}},
		Reviews:        models.Reviews{Rating: 4.6, Count: 60, Sample: []string{"great product", "works well"}},
		Seller:         models.Seller{Name: "Acme Shop", Level: models.SellerPower},
	}
}

func TestAnalyze_OverallScoreWithinBounds(t *testing.T) {
	a := analyzer.New(fakeSizer{size: 20 * 1024})
	result := a.Analyze(context.Background(), sampleProduct())

	assert.True(t, result.OverallScore >= 0 && result.OverallScore <= 100)
	assert.True(t, result.Images.Score > 0)
	assert.True(t, result.Description.Score > 0)
	assert.Equal(t, "Wireless Earbuds Pro", result.DerivedName)
	assert.Equal(t, 12900, result.DerivedSalePrice)
	assert.Equal(t, 5, result.DerivedImageCount)
}

func TestAnalyze_ImagesGracefulOnNetworkFailure(t *testing.T) {
	a := analyzer.New(fakeSizer{err: assertErr{}})
	result := a.Analyze(context.Background(), sampleProduct())
	require.NotNil(t, result)
	assert.True(t, result.Images.Score > 0)
}

func TestAnalyze_PriceHighDiscountPenalized(t *testing.T) {
	a := analyzer.New(fakeSizer{size: 20 * 1024})

	highDiscount := sampleProduct()
	highDiscount.Price = models.Price{Sale: 5123, Original: 20000, DiscountRate: 75}
	highResult := a.Analyze(context.Background(), highDiscount)

	moderateDiscount := sampleProduct()
	moderateDiscount.Price = models.Price{Sale: 12900, Original: 19800, DiscountRate: 20}
	moderateResult := a.Analyze(context.Background(), moderateDiscount)

	assert.True(t, highResult.Price.Score < moderateResult.Price.Score)
}

func TestAnalyze_ReviewsPenalizedForNegativeRatio(t *testing.T) {
	a := analyzer.New(fakeSizer{size: 20 * 1024})
	product := sampleProduct()
	product.Reviews.Sample = []string{"悪い", "最悪", "とても良い"}
	result := a.Analyze(context.Background(), product)

	baseline := sampleProduct()
	baselineResult := a.Analyze(context.Background(), baseline)
	assert.True(t, result.Reviews.Score < baselineResult.Reviews.Score)
}

type assertErr struct{}

func (assertErr) Error() string { return "network error" }
