package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
)

// Backend is the commerce API surface the operations call.
type Backend interface {
	SearchProducts(ctx context.Context, q commerce.SearchQuery) (*commerce.SearchResult, error)
	GetProduct(ctx context.Context, productID string) (*commerce.Product, error)
	CreateCart(ctx context.Context, createdAt time.Time) (*commerce.Cart, error)
	GetCart(ctx context.Context, cartID string) (*commerce.Cart, []byte, error)
	AddCartItem(ctx context.Context, cartID string, variantID int, qty int) error
	UpdateCartItem(ctx context.Context, cartID string, itemID int, qty int) error
	UpdateCart(ctx context.Context, cartID string, data map[string]any) error
}

var _ Backend = (*commerce.Client)(nil)

// Catalog is the explicit registry of shopping operations.
type Catalog struct {
	ops    []Operation
	byName map[Name]Operation
}

var _ contractx.ToolGateway = (*Catalog)(nil)

func NewCatalog(backend Backend, now func() time.Time) (*Catalog, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if now == nil {
		now = time.Now
	}

	builders := []func() (Operation, error){
		func() (Operation, error) { return newSearchProducts(backend) },
		func() (Operation, error) { return newGetProductDetails(backend) },
		func() (Operation, error) { return newCreateCart(backend, now) },
		func() (Operation, error) { return newAddItemToCart(backend) },
		func() (Operation, error) { return newUpdateCartItem(backend) },
		func() (Operation, error) { return newUpdateCartMetadata(backend) },
		func() (Operation, error) { return newGetCartDetails(backend) },
	}

	c := &Catalog{byName: make(map[Name]Operation, len(builders))}
	for _, build := range builders {
		op, err := build()
		if err != nil {
			return nil, err
		}
		if _, dup := c.byName[op.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool=%s", op.Name())
		}
		c.ops = append(c.ops, op)
		c.byName[op.Name()] = op
	}
	return c, nil
}

// Infos returns the model-facing declarations in registration order.
func (c *Catalog) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(c.ops))
	for _, op := range c.ops {
		info, _ := op.Info(context.Background())
		infos = append(infos, info)
	}
	return infos
}

func (c *Catalog) Lookup(name string) (Operation, bool) {
	op, ok := c.byName[Name(name)]
	return op, ok
}

// Execute runs the requests in order. Tool failures become ToolResult.Error;
// only a done context aborts the batch.
func (c *Catalog) Execute(ctx context.Context, requests []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(requests))
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.execute(ctx, req))
	}
	return results, nil
}

func (c *Catalog) execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	result := contractx.ToolResult{ID: req.ID, Tool: req.Tool}

	op, ok := c.Lookup(req.Tool)
	if !ok {
		result.Error = fmt.Sprintf("tool=%s is unavailable", req.Tool)
		return result
	}

	raw, err := json.Marshal(req.Args)
	if err != nil {
		result.Error = validationError("Argumentos inválidos para %s: %v", req.Tool, err).Message
		return result
	}

	start := time.Now()
	out, err := op.Invoke(ctx, string(raw))
	event := log.Debug().Str("tool", req.Tool).Dur("elapsed", time.Since(start))
	if err != nil {
		toolErr := asToolError(err)
		event.Str("kind", string(toolErr.Kind)).Int("code", toolErr.Code).Msg("tool call failed")
		result.Error = toolErr.Message
		return result
	}
	event.Msg("tool call succeeded")

	result.Result = out.Summary
	result.Effects = out.Effects
	return result
}

func asToolError(err error) *Error {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return failureText{status: "Error del servidor", unexpected: "Error inesperado"}.wrap(err)
}
