package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
)

type ProductArgs struct {
	ProductID string `json:"product_id"`
}

func (a ProductArgs) Validate() error {
	if strings.TrimSpace(a.ProductID) == "" {
		return validationError("Necesitas proporcionar un product_id válido.")
	}
	return nil
}

func newGetProductDetails(backend Backend) (Operation, error) {
	return newOperation(
		NameGetProductDetails,
		"Obtiene detalles completos de un producto específico, incluyendo descripción y disponibilidad de cada variante (talla, color, precio, stock).",
		[]Param{
			{Name: "product_id", Type: schema.String, Desc: "ID del producto", Required: true},
		},
		func(ctx context.Context, args ProductArgs) (Outcome, error) {
			id := strings.TrimSpace(args.ProductID)
			failures := failureText{
				notFound:   fmt.Sprintf("No se encontró el producto con ID %s", id),
				status:     "Error obteniendo producto",
				unexpected: "Error inesperado obteniendo producto",
			}
			product, err := backend.GetProduct(ctx, id)
			if err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{Summary: renderProduct(product)}, nil
		},
	)
}

func renderProduct(p *commerce.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 **%s**\n", orDefault(p.Name, "Sin nombre"))
	fmt.Fprintf(&b, "📂 Categoría: %s\n", orDefault(p.Category, "N/A"))
	fmt.Fprintf(&b, "📋 Descripción: %s\n", orDefault(p.Description, "Sin descripción"))
	b.WriteString("\n🎽 **Variantes disponibles:**\n")

	if len(p.Variants) == 0 {
		b.WriteString("No hay variantes disponibles")
		return b.String()
	}

	var available, unavailable []string
	for _, v := range p.Variants {
		line := fmt.Sprintf("  • Talla %s - %s - $%s - Stock: %d (variante ID: %s)",
			orDefault(v.Size, "N/A"), orDefault(v.Color, "N/A"), v.Price, v.Stock, v.ID)
		if v.Available() {
			available = append(available, line+" ✅")
		} else {
			unavailable = append(unavailable, line+" ❌")
		}
	}

	groups := make([]string, 0, 2)
	if len(available) > 0 {
		groups = append(groups, "🟢 **Disponibles:**\n"+strings.Join(available, "\n"))
	}
	if len(unavailable) > 0 {
		groups = append(groups, "🔴 **No disponibles:**\n"+strings.Join(unavailable, "\n"))
	}
	b.WriteString(strings.Join(groups, "\n\n"))
	return b.String()
}
