package recommender_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/recommender"
)

func lowScoreResult() *models.AnalyzerResult {
	return &models.AnalyzerResult{
		Images:        models.DimensionResult{Score: 20},
		Description:   models.DimensionResult{Score: 30},
		Price:         models.DimensionResult{Score: 50},
		Reviews:       models.DimensionResult{Score: 10},
		SEO:           models.DimensionResult{Score: 40},
		PageStructure: models.DimensionResult{Score: 30},
	}
}

func TestGenerate_OrdersByPriorityDescending(t *testing.T) {
	product := &models.Product{Name: "Test"}
	recs := recommender.Generate(product, lowScoreResult())
	require.NotEmpty(t, recs)

	rank := map[models.Priority]int{models.PriorityHigh: 0, models.PriorityMedium: 1, models.PriorityLow: 2}
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, rank[recs[i-1].Priority], rank[recs[i].Priority])
	}
}

func TestGenerate_DeterministicIDs(t *testing.T) {
	product := &models.Product{Name: "Test"}
	result := lowScoreResult()

	first := recommender.Generate(product, result)
	second := recommender.Generate(product, result)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGenerate_HighScoresProduceNoRecommendations(t *testing.T) {
	product := &models.Product{Name: "Test", Category: "Electronics", Brand: "Acme", SearchKeywords: []string{"kw"}}
	result := &models.AnalyzerResult{
		Images:        models.DimensionResult{Score: 100},
		Description:   models.DimensionResult{Score: 100},
		Price:         models.DimensionResult{Score: 100},
		Reviews:       models.DimensionResult{Score: 100},
		SEO:           models.DimensionResult{Score: 100},
		PageStructure: models.DimensionResult{Score: 100},
	}
	recs := recommender.Generate(product, result)
	assert.Empty(t, recs)
}
