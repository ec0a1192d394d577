package models

// ClassFreq pairs a DOM class name with its observed frequency.
type ClassFreq struct {
	Class string `json:"class"`
	Freq  int    `json:"freq"`
}

// KeyElementCategory enumerates the page-structure categories used
// for per-category class bucketing.
type KeyElementCategory string

const (
	KeyElementProductInfo  KeyElementCategory = "product_info"
	KeyElementPriceInfo    KeyElementCategory = "price_info"
	KeyElementImageInfo    KeyElementCategory = "image_info"
	KeyElementReviewInfo   KeyElementCategory = "review_info"
	KeyElementSellerInfo   KeyElementCategory = "seller_info"
	KeyElementShippingInfo KeyElementCategory = "shipping_info"
	KeyElementCouponInfo   KeyElementCategory = "coupon_info"
	KeyElementPointsInfo   KeyElementCategory = "points_info"
)

// SemanticField enumerates the logical fields used for semantic class
// bucketing.
type SemanticField string

const (
	SemanticName        SemanticField = "name"
	SemanticPrice       SemanticField = "price"
	SemanticImage       SemanticField = "image"
	SemanticDescription SemanticField = "description"
	SemanticReview      SemanticField = "review"
	SemanticSeller      SemanticField = "seller"
	SemanticShipping    SemanticField = "shipping"
	SemanticCoupon      SemanticField = "coupon"
	SemanticPoints      SemanticField = "points"
)

// PageStructure is the compressed page-structure fingerprint used
// both for heuristic scoring and as training data for the learning
// substrate.
type PageStructure struct {
	AllClasses       []string                          `json:"all_classes"`
	ClassFrequency   map[string]int                     `json:"class_frequency"`
	KeyElements      map[KeyElementCategory][]ClassFreq  `json:"key_elements"`
	SemanticStructure map[SemanticField][]ClassFreq      `json:"semantic_structure"`
}

// NewPageStructure returns an empty, initialized PageStructure.
func NewPageStructure() *PageStructure {
	return &PageStructure{
		AllClasses:        []string{},
		ClassFrequency:    map[string]int{},
		KeyElements:       map[KeyElementCategory][]ClassFreq{},
		SemanticStructure: map[SemanticField][]ClassFreq{},
	}
}
