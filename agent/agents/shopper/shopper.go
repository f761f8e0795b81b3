package shopper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

// Toolbox is the tool surface the shopper binds to its model.
type Toolbox interface {
	contractx.ToolGateway
	Infos() []*schema.ToolInfo
}

// Shopper is a ReAct agent: it lets the model call shopping tools until the
// model answers in plain text or the step budget runs out.
type Shopper struct {
	modelRunner   compose.Runnable[map[string]any, *schema.Message]
	runtimeRunner compose.Runnable[contractx.AgentRequest, contractx.AgentResponse]
	tools         contractx.ToolGateway
	maxSteps      int
	tracer        trace.Tracer
}

var _ contractx.Agent = (*Shopper)(nil)

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools Toolbox,
	systemPrompt string,
	cfg Config,
) (*Shopper, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("toolbox is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: shopper system prompt", contractx.ErrPromptMissing)
	}

	infos := tools.Infos()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind shopping tools: %v", contractx.ErrModelInvoke, err)
	}
	modelRunner, err := compileModelGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile model graph: %v", contractx.ErrModelInvoke, err)
	}

	s := &Shopper{
		modelRunner: modelRunner,
		tools:       tools,
		maxSteps:    cfg.maxSteps(),
		tracer:      otel.Tracer("chative/shopper"),
	}

	runtimeRunner, err := compileRuntimeGraph(ctx, s.loop)
	if err != nil {
		return nil, fmt.Errorf("%w: compile runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	s.runtimeRunner = runtimeRunner

	return s, nil
}

func (s *Shopper) Run(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "Shopper.Run", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.Int("history.size", len(req.History)),
	))
	defer span.End()

	out, err := s.runtimeRunner.Invoke(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return contractx.AgentResponse{}, err
	}
	span.SetAttributes(attribute.Int("tool.calls", len(out.ToolResults)))
	return out, nil
}

func (s *Shopper) loop(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	conversation := make([]*schema.Message, 0, len(req.History)+4)
	if msg := contextMessage(req.Context); msg != nil {
		conversation = append(conversation, msg)
	}
	conversation = append(conversation, req.History...)
	conversation = append(conversation, schema.UserMessage(req.UserMessage))

	var resp contractx.AgentResponse
	for step := 1; step <= s.maxSteps; step++ {
		msg, err := s.modelRunner.Invoke(ctx, map[string]any{historyKey: conversation})
		if err != nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: step %d: %v", contractx.ErrModelInvoke, step, err)
		}
		if msg == nil {
			return contractx.AgentResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}
		if msg.Role == "" {
			msg.Role = schema.Assistant
		}

		requests, err := toToolRequests(msg.ToolCalls)
		if err != nil {
			return contractx.AgentResponse{}, err
		}

		conversation = append(conversation, msg)
		resp.Messages = append(resp.Messages, msg)
		if len(requests) == 0 {
			return resp, nil
		}

		results, err := s.tools.Execute(ctx, requests)
		if err != nil {
			return contractx.AgentResponse{}, fmt.Errorf("execute tools: %w", err)
		}
		log.Debug().
			Str("session_id", req.SessionID).
			Int("step", step).
			Int("tool_calls", len(results)).
			Msg("shopper executed tools")

		for _, r := range results {
			toolMsg := schema.ToolMessage(r.Content(), r.ID)
			conversation = append(conversation, toolMsg)
			resp.Messages = append(resp.Messages, toolMsg)
		}
		resp.ToolResults = append(resp.ToolResults, results...)
	}

	return contractx.AgentResponse{}, fmt.Errorf("%w: %w: after %d steps", contractx.ErrModelInvoke, contractx.ErrStepLimit, s.maxSteps)
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			ID:   call.ID,
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}

// contextMessage tells the model what the session already knows. It is
// rebuilt every turn and never stored in the history.
func contextMessage(c contractx.SessionContext) *schema.Message {
	var lines []string
	if c.CartID != "" {
		lines = append(lines, "Carrito activo: ID "+c.CartID)
	}
	if len(c.Preferences) > 0 {
		lines = append(lines, "Preferencias del usuario: "+joinSorted(c.Preferences))
	}
	if len(c.ActiveFilters) > 0 {
		lines = append(lines, "Filtros de la última búsqueda: "+joinSorted(c.ActiveFilters))
	}
	if len(lines) == 0 {
		return nil
	}
	return schema.SystemMessage("Contexto de la sesión:\n- " + strings.Join(lines, "\n- "))
}

func joinSorted(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ", ")
}
