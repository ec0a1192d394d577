// Package recommender implements the Recommender (C5): a pure
// function from (Record, AnalyzerResult, PageStructure) to an ordered
// list of actionable recommendations, grounded on recommender.py's
// per-dimension recommendation generators.
package recommender

import (
	"encoding/hex"
	"hash/fnv"
	"sort"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
)

var priorityRank = map[models.Priority]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// Generate produces the ordered recommendation list for a scored
// product. Pure: the same inputs always produce the same output,
// including deterministic ids.
func Generate(product *models.Product, result *models.AnalyzerResult) []models.Recommendation {
	var recs []models.Recommendation

	if result.Images.Score < 70 {
		recs = append(recs, build("images", "low-image-score",
			priorityFor(result.Images.Score),
			"Improve product imagery",
			"Image quality and count directly affect conversion; this listing scores below the target threshold.",
			[]string{"Add at least 5 detail images", "Ensure thumbnail is at least 10KB"},
			"Higher image scores correlate with improved click-through rate.",
			"medium", "1-2 days", "image_info",
		))
	}

	if result.Description.Score < 70 {
		recs = append(recs, build("description", "low-description-score",
			priorityFor(result.Description.Score),
			"Expand the product description",
			"A thin description limits buyer confidence and search visibility.",
			[]string{"Write at least 300 characters", "Use bullet points or line breaks", "Include a search keyword naturally"},
			"Richer descriptions improve SEO ranking and reduce return rates.",
			"low", "1 day", "description",
		))
	}

	if result.Price.Score < 70 {
		recs = append(recs, build("price", "price-score-low",
			priorityFor(result.Price.Score),
			"Reconsider pricing strategy",
			"The discount structure may be discouraging buyers or eroding margin.",
			[]string{"Target a 10-30% discount range", "Consider psychological pricing (ending below round numbers)"},
			"A well-tuned discount improves perceived value without sacrificing margin.",
			"medium", "same day", "price_info",
		))
	}

	if result.Reviews.Score < 70 {
		recs = append(recs, build("reviews", "low-review-engagement",
			priorityFor(result.Reviews.Score),
			"Grow review volume and quality",
			"Low review count or rating reduces buyer trust at the point of purchase.",
			[]string{"Prompt buyers for reviews post-delivery", "Address recurring complaints in product description"},
			"More positive reviews increase conversion rate.",
			"high", "ongoing", "review_info",
		))
	}

	if result.SEO.Score < 75 {
		recs = append(recs, build("seo", "seo-gaps",
			priorityFor(result.SEO.Score),
			"Close SEO gaps",
			"Missing keyword, category, or brand metadata limits search discoverability.",
			seoActionItems(product),
			"Search visibility improves with complete metadata.",
			"low", "1 day", "",
		))
	}

	if result.PageStructure.Score < 60 {
		recs = append(recs, build("page_structure", "structural-gaps",
			priorityFor(result.PageStructure.Score),
			"Fill structural gaps on the page",
			"Essential page elements (name, price, image, description) are incomplete or sparse.",
			[]string{"Ensure all essential elements render", "Add optional elements where available (reviews, seller, shipping, coupon, points)"},
			"A more complete page structure improves both scraping fidelity and buyer trust.",
			"medium", "2-3 days", "page_structure",
		))
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}

func priorityFor(score int) models.Priority {
	switch {
	case score < 40:
		return models.PriorityHigh
	case score < 70:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func seoActionItems(product *models.Product) []string {
	var items []string
	if product.Category == "" {
		items = append(items, "Set a product category")
	}
	if product.Brand == "" {
		items = append(items, "Register a brand")
	}
	if len(product.SearchKeywords) == 0 {
		items = append(items, "Add relevant search keywords")
	}
	if len(items) == 0 {
		items = append(items, "Align name and description with top search keywords")
	}
	return items
}

func build(category, reason string, priority models.Priority, title, description string, actionItems []string, impact, difficulty, estimatedTime, structureMapping string) models.Recommendation {
	return models.Recommendation{
		ID:               deterministicID(category, reason),
		Category:         category,
		Priority:         priority,
		Title:            title,
		Description:      description,
		ActionItems:      actionItems,
		ExpectedImpact:   impact,
		Difficulty:       difficulty,
		EstimatedTime:    estimatedTime,
		StructureMapping: structureMapping,
	}
}

// deterministicID derives a stable recommendation id from a
// (category, reason) salt via FNV-1a, truncated and hex-encoded. No
// pack library does content-addressing; a hash function is the
// standard-library-appropriate tool here (documented in DESIGN.md).
func deterministicID(category, reason string) string {
	h := fnv.New64a()
	h.Write([]byte(category + ":" + reason))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:12]
}
