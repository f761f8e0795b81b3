package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/entity"
	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
)

const (
	msgNoProducts     = "No se encontraron productos con los filtros especificados."
	msgMoreResults    = "💡 Hay más resultados. Puedes pedir 'siguiente página' para ver más."
	msgSearchTimeout  = "La búsqueda tardó demasiado. Intenta de nuevo."
	msgInvalidPage    = "La página debe ser mayor a 0"
)

// SearchArgs are the filters of search_products. Every field is optional.
// MinPrice, MaxPrice and Limit are accepted as given; the backend has no
// matching filter, so they never leave the process.
type SearchArgs struct {
	Category *string  `json:"category"`
	Name     *string  `json:"name"`
	Color    *string  `json:"color"`
	Size     *string  `json:"size"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Limit    *int     `json:"limit"`
	Page     *int     `json:"page"`
}

var searchParams = []Param{
	{Name: "category", Type: schema.String, Desc: "Categoría del producto (ej: ropa, zapatos, electrónicos)"},
	{Name: "name", Type: schema.String, Desc: "Nombre o parte del nombre del producto (ej: camisa, pantalón)"},
	{Name: "color", Type: schema.String, Desc: "Color deseado (ej: rojo, azul, negro)"},
	{Name: "size", Type: schema.String, Desc: "Talla deseada (ej: S, M, L, XL, mediano)"},
	{Name: "min_price", Type: schema.Number, Desc: "Precio mínimo"},
	{Name: "max_price", Type: schema.Number, Desc: "Precio máximo"},
	{Name: "limit", Type: schema.Integer, Desc: "Cantidad máxima de resultados por página"},
	{Name: "page", Type: schema.Integer, Desc: "Número de página, empieza en 1"},
}

func (a SearchArgs) Validate() error {
	if a.Page != nil && *a.Page < 1 {
		return validationError(msgInvalidPage)
	}
	return nil
}

// Query normalizes the user-language filters into backend vocabulary.
// Blank filters are dropped.
func (a SearchArgs) Query() commerce.SearchQuery {
	q := commerce.SearchQuery{
		Category: normalizeOptional(a.Category, entity.NormalizeCategory),
		Color:    normalizeOptional(a.Color, entity.NormalizeColor),
		Size:     normalizeOptional(a.Size, entity.NormalizeSize),
		Name:     normalizeOptional(a.Name, nil),
	}
	if a.Page != nil {
		q.Page = *a.Page
	}
	return q
}

func normalizeOptional(v *string, normalize func(string) string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	if s == "" || normalize == nil {
		return s
	}
	return normalize(s)
}

func appliedFilters(q commerce.SearchQuery) map[string]string {
	filters := map[string]string{}
	for key, value := range map[string]string{
		"category": q.Category,
		"color":    q.Color,
		"size":     q.Size,
		"name":     q.Name,
	} {
		if value != "" {
			filters[key] = value
		}
	}
	return filters
}

func newSearchProducts(backend Backend) (Operation, error) {
	failures := failureText{
		timeout:    msgSearchTimeout,
		status:     "Error del servidor",
		unexpected: "Error inesperado en la búsqueda",
	}
	return newOperation(
		NameSearchProducts,
		"Busca productos en el backend con filtros avanzados. Soporta paginación y múltiples filtros simultáneos.",
		searchParams,
		func(ctx context.Context, args SearchArgs) (Outcome, error) {
			query := args.Query()
			result, err := backend.SearchProducts(ctx, query)
			if err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: renderSearch(result),
				Effects: &contractx.ToolEffects{Filters: appliedFilters(query)},
			}, nil
		},
	)
}

func renderSearch(result *commerce.SearchResult) string {
	if result == nil || len(result.Data) == 0 {
		return msgNoProducts
	}

	meta := result.Meta
	if meta.Page < 1 {
		meta.Page = 1
	}
	if meta.PageCount < 1 {
		meta.PageCount = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Productos encontrados (%d resultados):\n", meta.ItemCount)
	for i, p := range result.Data {
		if i > 0 {
			b.WriteByte('\n')
		}
		price := "N/A"
		if len(p.Variants) > 0 {
			price = p.Variants[0].Price.String()
		}
		fmt.Fprintf(&b, "• %s (ID: %s) - $%s - %s", orDefault(p.Name, "Sin nombre"), p.ID, price, p.Category)
	}
	fmt.Fprintf(&b, "\n\nPágina %d de %d", meta.Page, meta.PageCount)
	if meta.HasNextPage {
		b.WriteString("\n")
		b.WriteString(msgMoreResults)
	}
	return b.String()
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
