package shopper

import (
	"context"
	"errors"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

type fakeToolCallingModel struct {
	mu        sync.Mutex
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	boundTo   []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.boundTo = tools
	return f, nil
}

type fakeToolbox struct {
	calls   [][]contractx.ToolRequest
	results map[string]contractx.ToolResult
	err     error
}

func (f *fakeToolbox) Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{Name: "search_products", Desc: "search"},
		{Name: "create_cart", Desc: "create"},
	}
}

func (f *fakeToolbox) Execute(ctx context.Context, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	f.calls = append(f.calls, reqs)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]contractx.ToolResult, 0, len(reqs))
	for _, r := range reqs {
		res := f.results[r.Tool]
		res.ID = r.ID
		res.Tool = r.Tool
		out = append(out, res)
	}
	return out, nil
}

func toolCall(id, name, args string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}})
}

func newTestShopper(t *testing.T, model *fakeToolCallingModel, tools *fakeToolbox, cfg Config) *Shopper {
	t.Helper()
	s, err := New(context.Background(), model, tools, "Eres un asistente de compras.", cfg)
	require.NoError(t, err)
	return s
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{}
	tools := &fakeToolbox{}

	_, err := New(context.Background(), nil, tools, "prompt", Config{})
	require.Error(t, err)
	_, err = New(context.Background(), model, nil, "prompt", Config{})
	require.Error(t, err)
	_, err = New(context.Background(), model, tools, "  ", Config{})
	require.ErrorIs(t, err, contractx.ErrPromptMissing)

	s := newTestShopper(t, model, tools, Config{})
	assert.Equal(t, defaultMaxSteps, s.maxSteps)
	assert.Len(t, model.boundTo, 2)
}

func TestRunAnswersWithoutTools(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage("¡Hola! ¿Qué buscas hoy?", nil),
	}}
	tools := &fakeToolbox{}
	s := newTestShopper(t, model, tools, Config{})

	resp, err := s.Run(context.Background(), contractx.AgentRequest{SessionID: "s-1", UserMessage: "hola"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "¡Hola! ¿Qué buscas hoy?", resp.Messages[0].Content)
	assert.Empty(t, resp.ToolResults)
	assert.Empty(t, tools.calls)

	require.Len(t, model.inputs, 1)
	input := model.inputs[0]
	require.Len(t, input, 2)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Equal(t, "Eres un asistente de compras.", input[0].Content)
	assert.Equal(t, "hola", input[1].Content)
}

func TestRunExecutesToolCalls(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("call_1", "search_products", `{"name":"camisa","color":"roja","size":"M"}`),
		schema.AssistantMessage("Encontré una camisa roja en talla M por $25.00.", nil),
	}}
	tools := &fakeToolbox{results: map[string]contractx.ToolResult{
		"search_products": {
			Result:  "Productos encontrados (1 resultados):\n• Camisa (ID: 1) - $25.00 - clothing",
			Effects: &contractx.ToolEffects{Filters: map[string]string{"color": "red"}},
		},
	}}
	s := newTestShopper(t, model, tools, Config{})

	history := []*schema.Message{schema.UserMessage("hola"), schema.AssistantMessage("¡Hola!", nil)}
	resp, err := s.Run(context.Background(), contractx.AgentRequest{
		SessionID:   "s-1",
		UserMessage: "busco una camisa roja talla M",
		History:     history,
		Context:     contractx.SessionContext{CartID: "3", Preferences: map[string]string{"preferred_size": "M"}},
	})
	require.NoError(t, err)

	require.Len(t, tools.calls, 1)
	require.Len(t, tools.calls[0], 1)
	call := tools.calls[0][0]
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "search_products", call.Tool)
	assert.Equal(t, map[string]any{"name": "camisa", "color": "roja", "size": "M"}, call.Args)

	require.Len(t, resp.Messages, 3)
	assert.Len(t, resp.Messages[0].ToolCalls, 1)
	assert.Equal(t, schema.Tool, resp.Messages[1].Role)
	assert.Equal(t, "call_1", resp.Messages[1].ToolCallID)
	assert.Contains(t, resp.Messages[1].Content, "Camisa (ID: 1)")
	assert.Equal(t, "Encontré una camisa roja en talla M por $25.00.", resp.Messages[2].Content)
	require.Len(t, resp.ToolResults, 1)
	assert.Equal(t, "red", resp.ToolResults[0].Effects.Filters["color"])

	require.Len(t, model.inputs, 2)
	first := model.inputs[0]
	require.Len(t, first, 5)
	assert.Equal(t, schema.System, first[1].Role)
	assert.Contains(t, first[1].Content, "Carrito activo: ID 3")
	assert.Contains(t, first[1].Content, "preferred_size=M")
	assert.Equal(t, "hola", first[2].Content)
	assert.Equal(t, "busco una camisa roja talla M", first[4].Content)

	second := model.inputs[1]
	require.Len(t, second, 7)
	assert.Equal(t, schema.Tool, second[6].Role)
}

func TestRunToolErrorsReachTheModel(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("call_1", "create_cart", ``),
		schema.AssistantMessage("No pude crear el carrito.", nil),
	}}
	tools := &fakeToolbox{results: map[string]contractx.ToolResult{
		"create_cart": {Error: "Error creando carrito: 500"},
	}}
	s := newTestShopper(t, model, tools, Config{})

	resp, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "crea un carrito"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, "Error creando carrito: 500", resp.Messages[1].Content)
	assert.Equal(t, map[string]any{}, tools.calls[0][0].Args)
}

func TestRunSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *schema.Message
	}{
		{name: "empty tool name", msg: toolCall("c", " ", `{}`)},
		{name: "arguments not json", msg: toolCall("c", "search_products", `{"name":`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			model := &fakeToolCallingModel{responses: []*schema.Message{tt.msg}}
			tools := &fakeToolbox{}
			s := newTestShopper(t, model, tools, Config{})

			_, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "hola"})
			require.ErrorIs(t, err, contractx.ErrSchemaViolation)
			assert.Empty(t, tools.calls)
		})
	}
}

func TestRunReportsUnknownToolToModel(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("c1", "math.evaluate", `{"expr":"1+1"}`),
		schema.AssistantMessage("Solo puedo ayudarte con productos y carritos.", nil),
	}}
	tools := &fakeToolbox{results: map[string]contractx.ToolResult{
		"math.evaluate": {Error: "tool=math.evaluate is unavailable"},
	}}
	s := newTestShopper(t, model, tools, Config{})

	resp, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "cuánto es 1+1"})
	require.NoError(t, err)

	require.Len(t, tools.calls, 1)
	assert.Equal(t, "math.evaluate", tools.calls[0][0].Tool)
	require.Len(t, resp.Messages, 3)
	assert.Equal(t, schema.Tool, resp.Messages[1].Role)
	assert.Equal(t, "tool=math.evaluate is unavailable", resp.Messages[1].Content)
	assert.Equal(t, "c1", resp.Messages[1].ToolCallID)
	assert.Equal(t, "Solo puedo ayudarte con productos y carritos.", resp.Messages[2].Content)

	// The model sees the failure on its second step.
	require.Len(t, model.inputs, 2)
	last := model.inputs[1]
	assert.Equal(t, "tool=math.evaluate is unavailable", last[len(last)-1].Content)
}

func TestRunModelFailure(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{err: errors.New("upstream 502")}
	s := newTestShopper(t, model, &fakeToolbox{}, Config{})

	_, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "hola"})
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
	assert.NotErrorIs(t, err, contractx.ErrSchemaViolation)
}

func TestRunStepLimit(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("c1", "create_cart", `{}`),
		toolCall("c2", "create_cart", `{}`),
		toolCall("c3", "create_cart", `{}`),
	}}
	tools := &fakeToolbox{results: map[string]contractx.ToolResult{"create_cart": {Result: "ok"}}}
	s := newTestShopper(t, model, tools, Config{MaxSteps: 2})

	_, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "crea carritos"})
	require.ErrorIs(t, err, contractx.ErrStepLimit)
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
	assert.Len(t, tools.calls, 2)
}

func TestRunGatewayFailure(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{responses: []*schema.Message{toolCall("c1", "create_cart", `{}`)}}
	tools := &fakeToolbox{err: context.DeadlineExceeded}
	s := newTestShopper(t, model, tools, Config{})

	_, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "crea un carrito"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunValidatesRequest(t *testing.T) {
	t.Parallel()

	model := &fakeToolCallingModel{}
	s := newTestShopper(t, model, &fakeToolbox{}, Config{})

	_, err := s.Run(context.Background(), contractx.AgentRequest{UserMessage: "  "})
	require.ErrorIs(t, err, contractx.ErrValidation)

	_, err = s.Run(context.Background(), contractx.AgentRequest{UserMessage: "hola", History: []*schema.Message{nil}})
	require.ErrorIs(t, err, contractx.ErrValidation)
	assert.Empty(t, model.inputs)
}

func TestContextMessage(t *testing.T) {
	t.Parallel()

	assert.Nil(t, contextMessage(contractx.SessionContext{}))

	msg := contextMessage(contractx.SessionContext{
		ActiveFilters: map[string]string{"size": "M", "color": "red"},
	})
	require.NotNil(t, msg)
	assert.Equal(t, "Contexto de la sesión:\n- Filtros de la última búsqueda: color=red, size=M", msg.Content)
}
