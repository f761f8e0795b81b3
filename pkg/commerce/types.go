package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID accepts both JSON numbers and strings; the backend uses numeric primary keys.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("commerce: invalid id %s", string(b))
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Price decodes decimal columns, which the backend may serialize as strings.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*p = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("commerce: invalid price %s", string(b))
	}
	*p = Price(v)
	return nil
}

func (p Price) String() string {
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

type Product struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Variants    []Variant `json:"variants"`
}

type Variant struct {
	ID          ID       `json:"id"`
	Size        string   `json:"size"`
	Color       string   `json:"color"`
	Price       Price    `json:"price50U"`
	Stock       int      `json:"stock"`
	IsAvailable bool     `json:"isAvailable"`
	Product     *Product `json:"product,omitempty"`
}

// Available reports whether the variant can be offered to the user.
func (v Variant) Available() bool {
	return v.IsAvailable && v.Stock > 0
}

// Cart keeps only what the tools render. Timestamps and other fields stay in
// the raw payload.
type Cart struct {
	ID    ID         `json:"id"`
	Items []CartItem `json:"cartItems"`
}

type CartItem struct {
	ID      ID      `json:"id"`
	Qty     int     `json:"qty"`
	Variant Variant `json:"productVariant"`
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() float64 {
	return float64(i.Variant.Price) * float64(i.Qty)
}

// Total sums every line of the cart.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

type PageMeta struct {
	Page            int  `json:"page"`
	Take            int  `json:"take"`
	ItemCount       int  `json:"itemCount"`
	PageCount       int  `json:"pageCount"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

type SearchResult struct {
	Data []Product `json:"data"`
	Meta PageMeta  `json:"meta"`
}

// SearchQuery holds the filters forwarded to GET /products/search. Empty fields are omitted.
type SearchQuery struct {
	Category string
	Color    string
	Size     string
	Name     string
	Page     int
}
