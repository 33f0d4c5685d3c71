package category

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Evening Gowns", "evening-gowns"},
		{"  Summer   Dresses  ", "summer-dresses"},
		{"Chic & Trendy!", "chic-trendy"},
		{"---", ""},
		{"2024 Collection", "2024-collection"},
		{"UPPER", "upper"},
		{"a--b__c", "a-b-c"},
	}
	for _, c := range cases {
		if got := Slugify(c.name); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.name, got, c.want)
		}
	}

	// the slug is a pure function of the name
	if Slugify("Maxi Dresses") != Slugify("Maxi Dresses") {
		t.Fatalf("Slugify is not deterministic")
	}
}

func TestSlugResolvable(t *testing.T) {
	for _, slug := range []string{"maxi", "2024-collection", "a1"} {
		if !SlugResolvable(slug) {
			t.Errorf("slug %q should be resolvable", slug)
		}
	}
	// all-digit and empty slugs would never survive id-or-slug resolution
	for _, slug := range []string{"2024", "", "12-34"} {
		if SlugResolvable(slug) {
			t.Errorf("slug %q should not be resolvable", slug)
		}
	}
}
