// Package entity maps Spanish shopping vocabulary to the tokens the commerce backend uses.
package entity

import (
	"sort"
	"strings"
)

var colorMapping = map[string]string{
	"rojo":     "red",
	"roja":     "red",
	"azul":     "blue",
	"verde":    "green",
	"negro":    "black",
	"negra":    "black",
	"blanco":   "white",
	"blanca":   "white",
	"gris":     "gray",
	"amarillo": "yellow",
	"amarilla": "yellow",
	"rosa":     "pink",
	"morado":   "purple",
	"morada":   "purple",
}

var sizeMapping = map[string]string{
	"chico":        "S",
	"pequeño":      "S",
	"small":        "S",
	"mediano":      "M",
	"medium":       "M",
	"grande":       "L",
	"large":        "L",
	"extra grande": "XL",
	"extra-grande": "XL",
}

var categoryMapping = map[string]string{
	"ropa":         "clothing",
	"vestimenta":   "clothing",
	"pantalones":   "clothing",
	"camisas":      "clothing",
	"zapatos":      "footwear",
	"calzado":      "footwear",
	"electrónicos": "electronics",
	"tecnología":   "electronics",
}

var canonicalSizes = []string{"S", "M", "L", "XL"}

// NormalizeColor returns the canonical color token, or the lower-cased input on a miss.
func NormalizeColor(color string) string {
	key := strings.ToLower(color)
	if v, ok := colorMapping[key]; ok {
		return v
	}
	return key
}

// NormalizeSize returns the canonical size token, or the upper-cased input on a miss.
func NormalizeSize(size string) string {
	if v, ok := sizeMapping[strings.ToLower(size)]; ok {
		return v
	}
	upper := strings.ToUpper(size)
	// A few runes only reach a table key after upper-casing (e.g. the long s in "ſmall").
	// Resolving them here keeps the function idempotent.
	if v, ok := sizeMapping[strings.ToLower(upper)]; ok {
		return v
	}
	return upper
}

// NormalizeCategory returns the canonical category token, or the lower-cased input on a miss.
func NormalizeCategory(category string) string {
	key := strings.ToLower(category)
	if v, ok := categoryMapping[key]; ok {
		return v
	}
	return key
}

// ColorTerms lists every recognized color word: Spanish synonyms and canonical tokens, lower-cased.
func ColorTerms() []string {
	return terms(colorMapping, nil)
}

// SizeTerms lists every recognized size word, lower-cased.
func SizeTerms() []string {
	return terms(sizeMapping, canonicalSizes)
}

func terms(mapping map[string]string, extra []string) []string {
	seen := make(map[string]struct{}, len(mapping)*2)
	for k, v := range mapping {
		seen[k] = struct{}{}
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range extra {
		seen[strings.ToLower(v)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
