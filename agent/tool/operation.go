package tool

import (
	"context"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

// Name identifies one variant of the closed operation set.
type Name string

const (
	NameSearchProducts     Name = "search_products"
	NameGetProductDetails  Name = "get_product_details"
	NameCreateCart         Name = "create_cart"
	NameAddItemToCart      Name = "add_item_to_cart"
	NameUpdateCartItem     Name = "update_cart_item"
	NameUpdateCartMetadata Name = "update_cart_metadata"
	NameGetCartDetails     Name = "get_cart_details"
)

// Outcome is the rendered summary of a successful call plus its structured effects.
type Outcome struct {
	Summary string
	Effects *contractx.ToolEffects
}

// Operation is a schema-described callable the agent runtime may invoke.
type Operation interface {
	einotool.BaseTool
	Name() Name
	Invoke(ctx context.Context, argumentsInJSON string) (Outcome, error)
}

type validatable interface {
	Validate() error
}

// operation binds a typed argument struct to its validate-then-execute function.
type operation[A validatable] struct {
	name       Name
	desc       string
	params     []Param
	argsSchema *gojsonschema.Schema
	run        func(ctx context.Context, args A) (Outcome, error)
}

var _ Operation = (*operation[SearchArgs])(nil)

func newOperation[A validatable](
	name Name,
	desc string,
	params []Param,
	run func(ctx context.Context, args A) (Outcome, error),
) (*operation[A], error) {
	argsSchema, err := compileArgsSchema(params)
	if err != nil {
		return nil, fmt.Errorf("compile args schema for tool=%s: %w", name, err)
	}
	return &operation[A]{
		name:       name,
		desc:       desc,
		params:     params,
		argsSchema: argsSchema,
		run:        run,
	}, nil
}

func (o *operation[A]) Name() Name {
	return o.name
}

func (o *operation[A]) Info(context.Context) (*schema.ToolInfo, error) {
	return o.info(), nil
}

func (o *operation[A]) info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        string(o.name),
		Desc:        o.desc,
		ParamsOneOf: paramsOneOf(o.params),
	}
}

func (o *operation[A]) Invoke(ctx context.Context, argumentsInJSON string) (Outcome, error) {
	args, err := decodeArgs[A](o.name, o.argsSchema, argumentsInJSON)
	if err != nil {
		return Outcome{}, err
	}
	if err := args.Validate(); err != nil {
		return Outcome{}, err
	}
	return o.run(ctx, args)
}
