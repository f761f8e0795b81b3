package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"rojo":    "red",
		"ROJA":    "red",
		"Azul":    "blue",
		"red":     "red",
		"Magenta": "magenta",
		"":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeColor(in), "NormalizeColor(%q)", in)
	}
}

func TestNormalizeSize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"chico":        "S",
		"Pequeño":      "S",
		"MEDIUM":       "M",
		"grande":       "L",
		"Extra Grande": "XL",
		"extra-grande": "XL",
		"m":            "M",
		"xl":           "XL",
		"XXL":          "XXL",
		"ſmall":        "S",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSize(in), "NormalizeSize(%q)", in)
	}
}

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Ropa":         "clothing",
		"camisas":      "clothing",
		"CALZADO":      "footwear",
		"Electrónicos": "electronics",
		"tecnología":   "electronics",
		"Juguetes":     "juguetes",
		"clothing":     "clothing",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), "NormalizeCategory(%q)", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "rojo", "RED", "Verde Oscuro", "s", "M", "mediano", "Extra Grande",
		"ſmall", "electrónİcos", "Zapatos", "İ", "ǅ", "  spaced  ",
	}
	for _, in := range inputs {
		c := NormalizeColor(in)
		require.Equal(t, c, NormalizeColor(c), "color %q", in)
		s := NormalizeSize(in)
		require.Equal(t, s, NormalizeSize(s), "size %q", in)
		g := NormalizeCategory(in)
		require.Equal(t, g, NormalizeCategory(g), "category %q", in)
	}
}

func FuzzNormalizeIdempotent(f *testing.F) {
	for _, seed := range []string{"rojo", "ſmall", "Extra Grande", "ELECTRÓNICOS", "xl", ""} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if c := NormalizeColor(in); NormalizeColor(c) != c {
			t.Fatalf("color not idempotent for %q", in)
		}
		if s := NormalizeSize(in); NormalizeSize(s) != s {
			t.Fatalf("size not idempotent for %q", in)
		}
		if g := NormalizeCategory(in); NormalizeCategory(g) != g {
			t.Fatalf("category not idempotent for %q", in)
		}
	})
}

func TestTermsIncludeSourceAndCanonical(t *testing.T) {
	t.Parallel()

	colors := ColorTerms()
	assert.Contains(t, colors, "rojo")
	assert.Contains(t, colors, "red")

	sizes := SizeTerms()
	assert.Contains(t, sizes, "mediano")
	assert.Contains(t, sizes, "xl")
	assert.Contains(t, sizes, "m")
}
