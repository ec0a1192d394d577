package models

// SellerLevel classifies a shop's seller tier.
type SellerLevel string

const (
	SellerPower     SellerLevel = "power"
	SellerExcellent SellerLevel = "excellent"
	SellerNormal    SellerLevel = "normal"
	SellerUnknown   SellerLevel = "unknown"
)

// ReturnPolicy classifies a product's return terms.
type ReturnPolicy string

const (
	ReturnFree      ReturnPolicy = "free_return"
	ReturnAvailable ReturnPolicy = "return_available"
	ReturnNone      ReturnPolicy = "none"
)

// CouponKind classifies a product's coupon mechanism.
type CouponKind string

const (
	CouponAuto     CouponKind = "auto"
	CouponFavorite CouponKind = "favorite"
	CouponPassword CouponKind = "password"
	CouponNone     CouponKind = "none"
)

// Price holds sale/original pricing. All values are non-negative
// integers in the marketplace's whole-unit currency (§3).
type Price struct {
	Sale         int `json:"sale"`
	Original     int `json:"original,omitempty"`
	DiscountRate int `json:"discount_rate"`
}

// Images holds a product's thumbnail and deduplicated detail images.
type Images struct {
	Thumbnail string   `json:"thumbnail,omitempty"`
	Detail    []string `json:"detail"`
}

// Reviews holds a product's rating summary and a text sample.
type Reviews struct {
	Rating float64  `json:"rating"`
	Count  int      `json:"count"`
	Sample []string `json:"sample"`
}

// Seller holds a product's storefront identity.
type Seller struct {
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name,omitempty"`
	Level SellerLevel `json:"level"`
}

// Shipping holds a product's delivery terms.
type Shipping struct {
	Fee          *int         `json:"fee,omitempty"`
	Free         *bool        `json:"free,omitempty"`
	ReturnPolicy ReturnPolicy `json:"return_policy"`
}

// Points holds a product's reward-point terms.
type Points struct {
	Max             *int  `json:"max,omitempty"`
	ReceiveConfirm  *bool `json:"receive_confirm,omitempty"`
	ReviewBonus     *bool `json:"review_bonus,omitempty"`
	Auto            *bool `json:"auto,omitempty"`
}

// Coupon holds a product's coupon terms.
type Coupon struct {
	Present      bool       `json:"present"`
	Kind         CouponKind `json:"kind"`
	MaxDiscount  *int       `json:"max_discount,omitempty"`
}

// Product is the normalized scrape output for a product URL.
type Product struct {
	URL             string         `json:"url"`
	Source          DataSource     `json:"source"`
	PageStructure   *PageStructure `json:"page_structure,omitempty"`
	Code            string         `json:"code"`
	Name            string         `json:"name"`
	Category        string         `json:"category,omitempty"`
	Brand           string         `json:"brand,omitempty"`
	Price           Price          `json:"price"`
	Images          Images         `json:"images"`
	Description     string         `json:"description"`
	SearchKeywords  []string       `json:"search_keywords"`
	Reviews         Reviews        `json:"reviews"`
	Seller          Seller         `json:"seller"`
	Shipping        Shipping       `json:"shipping"`
	Points          Points         `json:"points"`
	Coupon          Coupon         `json:"coupon"`
	IsPromoted      bool           `json:"is_promoted"`
}

// ProductLite is the compact product shape embedded in a Shop record.
type ProductLite struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price Price  `json:"price"`
}

// Shop is the normalized scrape output for a shop URL.
type Shop struct {
	URL            string         `json:"url"`
	Source         DataSource     `json:"source"`
	PageStructure  *PageStructure `json:"page_structure,omitempty"`
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Level          SellerLevel    `json:"level"`
	FollowerCount  int            `json:"follower_count"`
	ProductCount   int            `json:"product_count"`
	Categories     map[string]int `json:"categories"`
	Products       []ProductLite  `json:"products"`
	Coupons        []Coupon       `json:"coupons"`
}
