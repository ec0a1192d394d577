package parser

import (
	"regexp"
	"strings"
)

// jpKrPair is one Japanese/Korean synonym pair used to build alternation
// regexes, grounded on crawler.py's JP_KR_MAPPING table.
type jpKrPair struct {
	jp string
	kr string
}

var priceLexicon = []jpKrPair{
	{"商品価格", "상품가격"},
	{"価格", "가격"},
	{"定価", "정가"},
	{"元の価格", "원래가격"},
	{"販売価格", "판매가격"},
	{"セール価格", "세일가격"},
	{"割引価格", "할인가격"},
}

var shippingLexicon = []jpKrPair{
	{"送料", "배송비"},
	{"送料無料", "무료배송"},
	{"配送料", "배송료"},
	{"配送", "배송"},
}

var reviewLexicon = []jpKrPair{
	{"レビュー", "리뷰"},
	{"評価", "평가"},
	{"コメント", "코멘트"},
	{"口コミ", "구전"},
}

var couponLexicon = []jpKrPair{
	{"クーポン", "쿠폰"},
	{"割引", "할인"},
	{"クーポン割引", "쿠폰할인"},
}

var brandLexicon = []jpKrPair{
	{"ブランド", "브랜드"},
	{"メーカー", "메이커"},
}

// compileAlternation builds a precompiled (jp1|kr1|jp2|kr2|...) regex from
// a lexicon, per §4.3's "precompiled at startup" design note.
func compileAlternation(pairs []jpKrPair) *regexp.Regexp {
	pattern := ""
	for i, p := range pairs {
		if i > 0 {
			pattern += "|"
		}
		pattern += regexp.QuoteMeta(p.jp) + "|" + regexp.QuoteMeta(p.kr)
	}
	return regexp.MustCompile("(" + pattern + ")")
}

var (
	pricePattern    = compileAlternation(priceLexicon)
	shippingPattern = compileAlternation(shippingLexicon)
	reviewPattern   = compileAlternation(reviewLexicon)
	couponPattern   = compileAlternation(couponLexicon)
	brandPattern    = compileAlternation(brandLexicon)
)

// translateToKorean replaces every Japanese lexicon term found in text
// with its Korean counterpart, mirroring crawler.py's _translate_jp_to_kr.
func translateToKorean(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, lex := range [][]jpKrPair{priceLexicon, shippingLexicon, reviewLexicon, couponLexicon, brandLexicon} {
		for _, p := range lex {
			out = strings.ReplaceAll(out, p.jp, p.kr)
		}
	}
	return out
}
