package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/shopping.txt
var shoppingRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Shopper string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Shopper: strings.TrimSpace(shoppingRaw),
	}
}
