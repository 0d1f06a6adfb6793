package fetch

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing html: %v", err)
	}
	return d
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"129.99", "129.99", true},
		{"1,234.56", "1234.56", true},
		{"1.234,56", "1234.56", true},
		{"R$ 2.499,00", "2499", true},
		{"$ 49", "49", true},
		{"129,90", "129.9", true},
		{"", "", false},
		{"out of stock", "", false},
		{"0", "", false},
		{"0.00", "", false},
	}
	for _, c := range cases {
		got, ok := parsePrice(c.in)
		if ok != c.ok {
			t.Fatalf("parsePrice(%q): ok=%v want=%v", c.in, ok, c.ok)
		}
		if ok && got.String() != c.want {
			t.Fatalf("parsePrice(%q)=%s want=%s", c.in, got, c.want)
		}
	}
}

func TestGenericExtractor_MetaTag(t *testing.T) {
	html := `<html><head>
		<meta property="product:price:amount" content="249.90">
	</head><body></body></html>`

	p, ok := (&GenericExtractor{}).Extract(doc(t, html))
	if !ok {
		t.Fatal("expected a price")
	}
	if p.String() != "249.9" {
		t.Fatalf("price=%s want=249.9", p)
	}
}

func TestGenericExtractor_ItempropElement(t *testing.T) {
	html := `<html><body>
		<span itemprop="price" content="89.50">$89.50</span>
	</body></html>`

	p, ok := (&GenericExtractor{}).Extract(doc(t, html))
	if !ok {
		t.Fatal("expected a price")
	}
	if p.String() != "89.5" {
		t.Fatalf("price=%s want=89.5", p)
	}
}

func TestGenericExtractor_PriceSelectorText(t *testing.T) {
	html := `<html><body>
		<div class="product"><span class="price">1.299,00</span></div>
	</body></html>`

	p, ok := (&GenericExtractor{}).Extract(doc(t, html))
	if !ok {
		t.Fatal("expected a price")
	}
	if p.String() != "1299" {
		t.Fatalf("price=%s want=1299", p)
	}
}

func TestGenericExtractor_JSONLDOffers(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":"Product","name":"Widget","offers":{"price":"549.99","priceCurrency":"USD"}}
		</script>
	</head><body></body></html>`

	p, ok := (&GenericExtractor{}).Extract(doc(t, html))
	if !ok {
		t.Fatal("expected a price")
	}
	if p.String() != "549.99" {
		t.Fatalf("price=%s want=549.99", p)
	}
}

func TestGenericExtractor_NoPrice(t *testing.T) {
	html := `<html><body><h1>Widget</h1><p>Currently unavailable.</p></body></html>`
	if _, ok := (&GenericExtractor{}).Extract(doc(t, html)); ok {
		t.Fatal("extracted a price from a page without one")
	}
}

type fixedExtractor struct{ host string }

func (f *fixedExtractor) CanHandle(url string) bool { return strings.Contains(url, f.host) }
func (f *fixedExtractor) Extract(*goquery.Document) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
}

func TestRegistry_PrefersSiteExtractor(t *testing.T) {
	site := &fixedExtractor{host: "shop.example"}
	r := NewRegistry(site)

	if got := r.Find("https://shop.example/widget"); got != site {
		t.Fatal("site extractor not selected for its host")
	}
	if _, ok := r.Find("https://other.example/x").(*GenericExtractor); !ok {
		t.Fatal("generic extractor not selected as fallback")
	}
}
