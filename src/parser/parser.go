// Package parser implements the Page Parser (C3): turns fetched HTML
// into a normalized Record (Product or Shop) plus a PageStructure
// fingerprint, using a fallback chain of default selectors, C1-learned
// selectors, and field heuristics.
package parser

import (
	"context"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/apperr"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/store"
)

// Parser dispatches HTML to the product or shop extraction path based
// on the job's detected URL kind.
type Parser struct {
	store store.PerformanceStore
}

// New builds a Parser backed by the given Performance Store. store may
// be nil, in which case selector outcomes are not recorded and the
// learned-selector tier of the fallback chain is skipped.
func New(perfStore store.PerformanceStore) *Parser {
	return &Parser{store: perfStore}
}

// Parse extracts a Product or Shop record plus its PageStructure. Only
// one of the returned Product/Shop is non-nil, matching models.Report's
// mutually-exclusive shape.
func (p *Parser) Parse(ctx context.Context, html, url string, kind models.URLKind, priorityFields []string) (*models.Product, *models.Shop, error) {
	switch kind {
	case models.URLKindProduct:
		product, err := ParseProduct(ctx, html, url, p.store, priorityFields)
		return product, nil, err
	case models.URLKindShop:
		shop, err := ParseShop(ctx, html, url, p.store)
		return nil, shop, err
	default:
		return nil, nil, apperr.NewInputError("parse", "unsupported url kind")
	}
}

// DetectURLKind classifies a submitted URL as product, shop, or
// unknown, consulted by the HTTP controller before a job is created
// (and by the orchestrator when a job arrives with an unknown kind), per
// §6's detection table: a product URL matches one of the canonical
// paths (/Goods/Goods.aspx, /goods/, /g/<digits>, /item/<slug>/<digits>)
// or goodscode=; a shop URL matches /shop/<slug> or shopid=/shop_id=.
// ExtractShopSlug's permissive last-segment fallback only applies once
// a URL is already known to be a shop URL.
func DetectURLKind(url string) models.URLKind {
	if ExtractProductCode(url) != "" || productPathPattern.MatchString(url) {
		return models.URLKindProduct
	}
	if shopSlugPattern.MatchString(url) || shopQueryPattern.MatchString(url) {
		return models.URLKindShop
	}
	return models.URLKindUnknown
}
