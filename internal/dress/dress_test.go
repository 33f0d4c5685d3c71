package dress

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestEffectivePrice(t *testing.T) {
	d := Dress{Price: Price{Original: 1500}}
	if d.EffectivePrice() != 1500 {
		t.Fatalf("expected original price, got %d", d.EffectivePrice())
	}
	d.Price.Discounted = intPtr(990)
	if d.EffectivePrice() != 990 {
		t.Fatalf("expected discounted price, got %d", d.EffectivePrice())
	}
}

func TestDiscountPercentage(t *testing.T) {
	cases := []struct {
		original   int
		discounted *int
		want       int
	}{
		{1000, intPtr(750), 25},
		{1000, intPtr(666), 33}, // 33.4 rounds down
		{1000, intPtr(665), 34}, // 33.5 rounds up
		{1000, nil, 0},
		{0, intPtr(0), 0},
	}
	for _, c := range cases {
		d := Dress{Price: Price{Original: c.original, Discounted: c.discounted}}
		if got := d.DiscountPercentage(); got != c.want {
			t.Errorf("DiscountPercentage(%d, %v) = %d, want %d", c.original, c.discounted, got, c.want)
		}
	}
}

func TestContactLink(t *testing.T) {
	d := Dress{
		Name:          "Silk Wrap",
		SKU:           "DRESS000042",
		Price:         Price{Original: 2500, Discounted: intPtr(1990)},
		ContactNumber: "+66 81-234-5678",
	}

	link := d.ContactLink("Evening Gowns")
	if !strings.HasPrefix(link, "https://wa.me/66812345678?text=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}
	// placeholders substituted and the message percent-encoded
	for _, frag := range []string{"Silk+Wrap", "DRESS000042", "Evening+Gowns", "1990"} {
		if !strings.Contains(link, frag) {
			t.Errorf("link missing %q: %s", frag, link)
		}
	}
	if strings.Contains(link, "{dress") {
		t.Fatalf("unreplaced placeholder in link: %s", link)
	}
	if strings.Contains(link, " ") {
		t.Fatalf("link contains raw spaces: %s", link)
	}
}

func TestContactLinkCustomTemplate(t *testing.T) {
	d := Dress{
		Name:                   "Linen Midi",
		ContactNumber:          "66811111111",
		ContactMessageTemplate: "Is {dressName} in stock?",
	}
	link := d.ContactLink("")
	if !strings.Contains(link, "Is+Linen+Midi+in+stock%3F") {
		t.Fatalf("custom template not rendered: %s", link)
	}
}

func TestIsAllowedSize(t *testing.T) {
	for _, s := range AllowedSizes {
		if !IsAllowedSize(s) {
			t.Errorf("size %q should be allowed", s)
		}
	}
	for _, s := range []string{"", "xs", "XXXL", "free size"} {
		if IsAllowedSize(s) {
			t.Errorf("size %q should not be allowed", s)
		}
	}
}

func TestParseSort(t *testing.T) {
	if ParseSort("") != SortNewest {
		t.Fatalf("empty sort should default to newest")
	}
	if ParseSort("garbage") != SortNewest {
		t.Fatalf("unknown sort should default to newest")
	}
	if ParseSort("price-asc") != SortPriceAsc {
		t.Fatalf("price-asc not recognised")
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 200, 1, MaxPageSize},
		{2, 20, 2, 20},
	}
	for _, c := range cases {
		p, s := ClampPage(c.page, c.size)
		if p != c.wantPage || s != c.wantSize {
			t.Errorf("ClampPage(%d, %d) = (%d, %d), want (%d, %d)", c.page, c.size, p, s, c.wantPage, c.wantSize)
		}
	}
}
