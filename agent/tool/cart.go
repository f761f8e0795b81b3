package tool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/pretty"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
)

var cartIDParam = Param{Name: "cart_id", Type: schema.String, Desc: "ID del carrito", Required: true}

func requireCartID(cartID string) error {
	if strings.TrimSpace(cartID) == "" {
		return errCartIDRequired
	}
	return nil
}

type CreateCartArgs struct{}

func (CreateCartArgs) Validate() error { return nil }

type AddItemArgs struct {
	CartID           string `json:"cart_id"`
	ProductVariantID int    `json:"product_variant_id"`
	Qty              *int   `json:"qty"`
}

func (a AddItemArgs) Validate() error {
	if err := requireCartID(a.CartID); err != nil {
		return err
	}
	if a.Qty != nil && *a.Qty < 1 {
		return validationError("La cantidad debe ser mayor a 0")
	}
	return nil
}

// Quantity applies the default of one unit.
func (a AddItemArgs) Quantity() int {
	if a.Qty == nil {
		return 1
	}
	return *a.Qty
}

type UpdateItemArgs struct {
	CartID string `json:"cart_id"`
	ItemID int    `json:"item_id"`
	Qty    int    `json:"qty"`
}

func (a UpdateItemArgs) Validate() error {
	if err := requireCartID(a.CartID); err != nil {
		return err
	}
	if a.Qty < 0 {
		return validationError("La cantidad no puede ser negativa")
	}
	return nil
}

type CartMetadataArgs struct {
	CartID   string         `json:"cart_id"`
	CartData map[string]any `json:"cart_data"`
}

func (a CartMetadataArgs) Validate() error {
	if err := requireCartID(a.CartID); err != nil {
		return err
	}
	if a.CartData == nil {
		return validationError("Necesitas proporcionar cart_data con los campos a actualizar.")
	}
	return nil
}

type CartArgs struct {
	CartID string `json:"cart_id"`
}

func (a CartArgs) Validate() error {
	return requireCartID(a.CartID)
}

func cartEffects(cartID string) *contractx.ToolEffects {
	return &contractx.ToolEffects{CartID: cartID}
}

func newCreateCart(backend Backend, now func() time.Time) (Operation, error) {
	failures := failureText{
		status:     "Error creando carrito",
		unexpected: "Error inesperado creando carrito",
	}
	return newOperation(
		NameCreateCart,
		"Crea un nuevo carrito de compras para el usuario. Retorna el ID del carrito creado.",
		nil,
		func(ctx context.Context, _ CreateCartArgs) (Outcome, error) {
			cart, err := backend.CreateCart(ctx, now())
			if err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: fmt.Sprintf("🛒 ¡Carrito creado exitosamente! ID: %s\nYa puedes empezar a agregar productos.", cart.ID),
				Effects: cartEffects(cart.ID.String()),
			}, nil
		},
	)
}

func newAddItemToCart(backend Backend) (Operation, error) {
	failures := failureText{
		notFound:   "Carrito o variante de producto no encontrada",
		status:     "Error agregando item al carrito",
		unexpected: "Error inesperado agregando item",
	}
	return newOperation(
		NameAddItemToCart,
		"Agrega un item al carrito usando el ID de la variante del producto.",
		[]Param{
			cartIDParam,
			{Name: "product_variant_id", Type: schema.Integer, Desc: "ID de la variante del producto a agregar", Required: true},
			{Name: "qty", Type: schema.Integer, Desc: "Cantidad del producto (por defecto 1)"},
		},
		func(ctx context.Context, args AddItemArgs) (Outcome, error) {
			cartID := strings.TrimSpace(args.CartID)
			qty := args.Quantity()
			if err := backend.AddCartItem(ctx, cartID, args.ProductVariantID, qty); err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: fmt.Sprintf("✅ Item agregado al carrito ID %s: Variante %d (cantidad: %d)", cartID, args.ProductVariantID, qty),
				Effects: cartEffects(cartID),
			}, nil
		},
	)
}

func newUpdateCartItem(backend Backend) (Operation, error) {
	failures := failureText{
		notFound:   "Carrito o item no encontrado",
		status:     "Error actualizando item",
		unexpected: "Error inesperado actualizando item",
	}
	return newOperation(
		NameUpdateCartItem,
		"Actualiza la cantidad de un item del carrito. item_id es el ID del item del carrito, no el de la variante.",
		[]Param{
			cartIDParam,
			{Name: "item_id", Type: schema.Integer, Desc: "ID del item en el carrito", Required: true},
			{Name: "qty", Type: schema.Integer, Desc: "Nueva cantidad del item", Required: true},
		},
		func(ctx context.Context, args UpdateItemArgs) (Outcome, error) {
			cartID := strings.TrimSpace(args.CartID)
			if err := backend.UpdateCartItem(ctx, cartID, args.ItemID, args.Qty); err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: fmt.Sprintf("✅ Item actualizado en carrito ID %s: Item %d ahora tiene cantidad %d", cartID, args.ItemID, args.Qty),
				Effects: cartEffects(cartID),
			}, nil
		},
	)
}

func newUpdateCartMetadata(backend Backend) (Operation, error) {
	failures := failureText{
		notFound:   "Carrito no encontrado",
		status:     "Error actualizando carrito",
		unexpected: "Error inesperado actualizando carrito",
	}
	return newOperation(
		NameUpdateCartMetadata,
		"Actualiza los metadatos del carrito (no los items).",
		[]Param{
			cartIDParam,
			{Name: "cart_data", Type: schema.Object, Desc: "Campos del carrito a actualizar (ej: metadatos, fechas)", Required: true},
		},
		func(ctx context.Context, args CartMetadataArgs) (Outcome, error) {
			cartID := strings.TrimSpace(args.CartID)
			if err := backend.UpdateCart(ctx, cartID, args.CartData); err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: fmt.Sprintf("✅ Carrito ID %s actualizado correctamente", cartID),
				Effects: cartEffects(cartID),
			}, nil
		},
	)
}

func newGetCartDetails(backend Backend) (Operation, error) {
	failures := failureText{
		notFound:   "Carrito no encontrado",
		status:     "Error obteniendo carrito",
		unexpected: "Error inesperado obteniendo carrito",
	}
	return newOperation(
		NameGetCartDetails,
		"Obtiene el estado completo del carrito: items, cantidades, precios y total.",
		[]Param{cartIDParam},
		func(ctx context.Context, args CartArgs) (Outcome, error) {
			cartID := strings.TrimSpace(args.CartID)
			cart, raw, err := backend.GetCart(ctx, cartID)
			if err != nil {
				return Outcome{}, failures.wrap(err)
			}
			return Outcome{
				Summary: renderCart(cartID, cart, raw),
				Effects: cartEffects(cartID),
			}, nil
		},
	)
}

func renderCart(cartID string, cart *commerce.Cart, raw []byte) string {
	if cart == nil || len(cart.Items) == 0 {
		return fmt.Sprintf("🛒 El carrito ID %s está vacío.", cartID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 **Carrito ID %s:**\n", cartID)
	fmt.Fprintf(&b, "- Total de items: %d\n", len(cart.Items))
	b.WriteString("- Items detallados:")
	for _, item := range cart.Items {
		name, productID := "Producto", "N/A"
		if p := item.Variant.Product; p != nil {
			name = orDefault(p.Name, name)
			productID = orDefault(p.ID.String(), productID)
		}
		fmt.Fprintf(&b, "\n  • %s (ID: %s) - Item ID: %s", name, productID, item.ID)
		fmt.Fprintf(&b, "\n    Variante: Talla %s - Color %s",
			orDefault(item.Variant.Size, "N/A"), orDefault(item.Variant.Color, "N/A"))
		fmt.Fprintf(&b, "\n    Cantidad: %d × $%s = $%.2f", item.Qty, item.Variant.Price, item.LineTotal())
	}
	fmt.Fprintf(&b, "\n\n💰 **Total estimado: $%.2f**", cart.Total())
	if len(raw) > 0 {
		b.WriteString("\n\n🔍 **Datos completos del carrito:** ")
		b.Write(bytes.TrimRight(pretty.Pretty(raw), "\n"))
	}
	return b.String()
}
