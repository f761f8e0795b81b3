package state

import (
	"strings"
	"unicode"

	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/entity"
)

var (
	colorTerms = toSet(entity.ColorTerms())
	sizeTerms  = toSet(entity.SizeTerms())
	sizeCues   = []string{"talla", "size", "tamaño"}
)

// ExtractPreferences scans an utterance for color and size words. Colors count
// anywhere; sizes only when the utterance talks about a size. The last hit wins.
// Values are normalized to backend tokens.
func ExtractPreferences(text string) map[string]string {
	prefs := map[string]string{}
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})

	wantSize := false
	for _, cue := range sizeCues {
		if strings.Contains(lower, cue) {
			wantSize = true
			break
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if contains(colorTerms, tok) {
			prefs[PreferredColor] = entity.NormalizeColor(tok)
		}
		if !wantSize {
			continue
		}
		if i+1 < len(tokens) {
			if pair := tok + " " + tokens[i+1]; contains(sizeTerms, pair) {
				prefs[PreferredSize] = entity.NormalizeSize(pair)
				i++
				continue
			}
		}
		if contains(sizeTerms, tok) {
			prefs[PreferredSize] = entity.NormalizeSize(tok)
		}
	}
	return prefs
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}
