package service

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Sportswear":       "acme-sportswear",
		"  Nordic / Outdoor  ":  "nordic-outdoor",
		"Brand_2025!":           "brand-2025",
		"UPPER":                 "upper",
		"multi   space   name":  "multi-space-name",
		"trailing punctuation.": "trailing-punctuation",
	}
	for input, want := range cases {
		if got := slugify(input); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
