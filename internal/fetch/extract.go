package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Extractor locates a price inside a parsed product page. Implementations
// are site-specific; the generic one is the fallback for everything else.
type Extractor interface {
	CanHandle(url string) bool
	Extract(doc *goquery.Document) (decimal.Decimal, bool)
}

// Registry keeps the available extractors, most specific first.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry from the given site extractors plus the
// generic fallback, which handles any URL.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{
		extractors: append(extractors, &GenericExtractor{}),
	}
}

// Find returns the first extractor claiming the URL.
func (r *Registry) Find(url string) Extractor {
	for _, e := range r.extractors {
		if e.CanHandle(url) {
			return e
		}
	}
	return nil
}

// GenericExtractor pulls a price out of the structured markup most shops
// emit: OpenGraph/meta price tags, microdata, JSON-LD, then a list of
// common price selectors.
type GenericExtractor struct{}

func (g *GenericExtractor) CanHandle(string) bool { return true }

var metaSelectors = []string{
	"meta[property='product:price:amount']",
	"meta[property='og:price:amount']",
	"meta[itemprop='price']",
	"meta[name='twitter:data1']",
}

var priceSelectors = []string{
	"[itemprop='price']",
	"[data-testid='price']",
	".price-tag-fraction",
	".product-price",
	".current-price",
	".price",
}

var (
	jsonldOffersRe = regexp.MustCompile(`"offers"[^}]*"price"\s*:\s*"?([0-9][0-9.,]*)"?`)
	jsonldPriceRe  = regexp.MustCompile(`"price"\s*:\s*"?([0-9][0-9.,]*)"?`)
)

func (g *GenericExtractor) Extract(doc *goquery.Document) (decimal.Decimal, bool) {
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).Attr("content"); ok {
			if p, ok := parsePrice(content); ok {
				return p, true
			}
		}
	}

	for _, sel := range priceSelectors {
		var found decimal.Decimal
		var ok bool
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.AttrOr("content", "")
			if text == "" {
				text = strings.TrimSpace(s.Text())
			}
			if p, parsed := parsePrice(text); parsed {
				found, ok = p, true
				return false
			}
			return true
		})
		if ok {
			return found, true
		}
	}

	// JSON-LD last: offers.price usually carries the current price.
	var found decimal.Decimal
	var ok bool
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		m := jsonldOffersRe.FindStringSubmatch(text)
		if len(m) < 2 {
			m = jsonldPriceRe.FindStringSubmatch(text)
		}
		if len(m) > 1 {
			if p, parsed := parsePrice(m[1]); parsed {
				found, ok = p, true
				return false
			}
		}
		return true
	})
	return found, ok
}

var nonPriceRe = regexp.MustCompile(`[^0-9.,]`)

// parsePrice normalizes a scraped price string. Both "1.234,56" and
// "1,234.56" conventions are accepted; whichever separator appears last is
// the decimal mark. Zero and negative values are rejected.
func parsePrice(text string) (decimal.Decimal, bool) {
	text = nonPriceRe.ReplaceAllString(strings.TrimSpace(text), "")
	if text == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(text, ",")
	lastDot := strings.LastIndex(text, ".")
	if lastComma > lastDot {
		text = strings.ReplaceAll(text, ".", "")
		text = strings.Replace(text, ",", ".", 1)
	} else {
		text = strings.ReplaceAll(text, ",", "")
	}

	p, err := decimal.NewFromString(text)
	if err != nil || !p.IsPositive() {
		return decimal.Decimal{}, false
	}
	return p, true
}
