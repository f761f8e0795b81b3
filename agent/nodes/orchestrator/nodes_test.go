package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/state"
)

var turnTime = time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

type stubAgent struct {
	resp contractx.AgentResponse
	err  error
	reqs []contractx.AgentRequest
}

func (s *stubAgent) Run(_ context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) Load(context.Context, string) (*statex.SessionState, error) {
	return nil, f.loadErr
}

func (f failingStore) Save(context.Context, *statex.SessionState) error {
	return f.saveErr
}

func (f failingStore) Delete(context.Context, string) error {
	return nil
}

func newGraphState(t *testing.T, text string) *GraphState {
	t.Helper()
	in, err := ValidateRequest(GraphInput{SessionID: "s1", Text: text}, func() time.Time { return turnTime })
	require.NoError(t, err)
	return in
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return turnTime.In(time.FixedZone("X", 3600)) }

	_, err := ValidateRequest(GraphInput{SessionID: "  ", Text: "hola"}, now)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = ValidateRequest(GraphInput{SessionID: "s1", Text: " \n "}, now)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	in, err := ValidateRequest(GraphInput{SessionID: " s1 ", Text: "  hola  "}, now)
	require.NoError(t, err)
	assert.Equal(t, "s1", in.SessionID)
	assert.Equal(t, "hola", in.Text)
	assert.Equal(t, time.UTC, in.Now.Location())
	assert.True(t, in.Now.Equal(turnTime))
}

func TestLoadOrCreateState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := statex.NewMemoryStore()

	in, err := LoadOrCreateState(ctx, newGraphState(t, "hola"), store)
	require.NoError(t, err)
	require.NotNil(t, in.Session)
	assert.Equal(t, "s1", in.Session.SessionID)
	assert.True(t, in.Session.CreatedAt.Equal(turnTime))

	existing := statex.NewSessionState("s1", turnTime)
	existing.CartID = "42"
	require.NoError(t, store.Save(ctx, existing))

	in, err = LoadOrCreateState(ctx, newGraphState(t, "hola"), store)
	require.NoError(t, err)
	assert.Equal(t, "42", in.Session.CartID)

	boom := errors.New("redis down")
	_, err = LoadOrCreateState(ctx, newGraphState(t, "hola"), failingStore{loadErr: boom})
	assert.ErrorIs(t, err, boom)
}

func TestRecordTurnFeedsAgentContext(t *testing.T) {
	t.Parallel()

	in, err := LoadOrCreateState(context.Background(), newGraphState(t, "busco una camisa roja talla M"), statex.NewMemoryStore())
	require.NoError(t, err)

	in, err = RecordTurn(in)
	require.NoError(t, err)
	require.Len(t, in.Session.SearchHistory, 1)

	agent := &stubAgent{resp: contractx.AgentResponse{Messages: []*schema.Message{schema.AssistantMessage("ok", nil)}}}
	in, err = RunAgent(context.Background(), in, agent, 10)
	require.NoError(t, err)

	require.Len(t, agent.reqs, 1)
	req := agent.reqs[0]
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, "busco una camisa roja talla M", req.UserMessage)
	assert.Empty(t, req.History)
	assert.Equal(t, "red", req.Context.Preferences[statex.PreferredColor])
	assert.Equal(t, "M", req.Context.Preferences[statex.PreferredSize])
	assert.Len(t, in.Response.Messages, 1)
}

func TestFailedAgentRunStillRecordsTurn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := statex.NewMemoryStore()

	in, err := LoadOrCreateState(ctx, newGraphState(t, "quiero algo azul talla L"), store)
	require.NoError(t, err)
	in, err = RecordTurn(in)
	require.NoError(t, err)

	agent := &stubAgent{err: contractx.ErrModelInvoke}
	in, err = RunAgent(ctx, in, agent, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, in.AgentErr, contractx.ErrModelInvoke)

	in, err = ApplyToolEffects(in)
	require.NoError(t, err)
	assert.Empty(t, in.Session.Messages)

	in, err = SaveState(ctx, in, store)
	require.NoError(t, err)

	_, err = FinalizeReply(in)
	assert.ErrorIs(t, err, contractx.ErrModelInvoke)

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, saved.SearchHistory, 1)
	assert.Equal(t, "quiero algo azul talla L", saved.SearchHistory[0].Query)
	assert.Equal(t, map[string]string{statex.PreferredColor: "blue", statex.PreferredSize: "L"}, saved.Preferences)
	assert.Empty(t, saved.Messages)
}

func TestRunAgentRequiresSession(t *testing.T) {
	t.Parallel()

	_, err := RunAgent(context.Background(), &GraphState{}, &stubAgent{}, 10)
	assert.ErrorIs(t, err, contractx.ErrValidation)
}

func TestApplyToolEffectsAndSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := statex.NewMemoryStore()

	in, err := LoadOrCreateState(ctx, newGraphState(t, "crea un carrito"), store)
	require.NoError(t, err)

	in.Response = contractx.AgentResponse{
		Messages: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{{ID: "c1"}}),
			schema.ToolMessage("Carrito creado", "c1"),
			schema.AssistantMessage("Listo, tu carrito es el 7.", nil),
		},
		ToolResults: []contractx.ToolResult{
			{ID: "c1", Tool: "create_cart", Result: "Carrito creado", Effects: &contractx.ToolEffects{CartID: "7"}},
		},
	}

	in, err = ApplyToolEffects(in)
	require.NoError(t, err)
	assert.Equal(t, "7", in.Session.CartID)
	require.Len(t, in.Session.Messages, 4)
	assert.Equal(t, schema.User, in.Session.Messages[0].Role)
	assert.Equal(t, "crea un carrito", in.Session.Messages[0].Content)

	_, err = SaveState(ctx, in, store)
	require.NoError(t, err)

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "7", saved.CartID)
	assert.Len(t, saved.Messages, 4)
	assert.True(t, saved.UpdatedAt.Equal(turnTime))
}

func TestSaveStateError(t *testing.T) {
	t.Parallel()

	in, err := LoadOrCreateState(context.Background(), newGraphState(t, "hola"), statex.NewMemoryStore())
	require.NoError(t, err)

	boom := errors.New("write refused")
	_, err = SaveState(context.Background(), in, failingStore{saveErr: boom})
	assert.ErrorIs(t, err, boom)
}

func TestFinalizeReply(t *testing.T) {
	t.Parallel()

	out, err := FinalizeReply(&GraphState{Response: contractx.AgentResponse{
		Messages: []*schema.Message{schema.AssistantMessage("  Hola!  ", nil)},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Hola!", out.Reply)

	_, err = FinalizeReply(&GraphState{})
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = FinalizeReply(&GraphState{Response: contractx.AgentResponse{
		Messages: []*schema.Message{schema.AssistantMessage("   ", nil)},
	}})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
