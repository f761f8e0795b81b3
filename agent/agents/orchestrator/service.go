package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrEmptyReply     = nodex.ErrEmptyReply
)

const (
	replyEmpty          = "Lo siento, no pude procesar tu mensaje correctamente."
	replySchemaPrefix   = "Hubo un problema interpretando tu mensaje: "
	replyInternalPrefix = "Error procesando tu mensaje: "
)

type Config struct {
	// HistoryLimit caps how many stored messages are replayed to the agent.
	// Zero or less replays the whole conversation.
	HistoryLimit int
}

// SessionInfo summarizes a stored session.
type SessionInfo struct {
	SessionID    string            `json:"session_id"`
	MessageCount int               `json:"message_count"`
	LastActivity time.Time         `json:"last_activity"`
	CartID       string            `json:"cart_id,omitempty"`
	Preferences  map[string]string `json:"preferences,omitempty"`
}

type Orchestrator struct {
	store statex.Store
	agent contractx.Agent

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyLimit int
	locks        *sessionLocks
	tracer       trace.Tracer

	now func() time.Time
}

func New(store statex.Store, agent contractx.Agent, cfg Config) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if agent == nil {
		return nil, errors.New("agent is required")
	}

	o := &Orchestrator{
		store:        store,
		agent:        agent,
		historyLimit: cfg.HistoryLimit,
		locks:        newSessionLocks(),
		tracer:       otel.Tracer("chative/orchestrator"),
		now:          time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one conversational turn. Turns of the same session are
// processed one at a time.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)

	ctx, span := o.tracer.Start(ctx, "Orchestrator.HandleMessage",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := o.locks.lock(sessionID)
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out.Reply, nil
}

// Chat is HandleMessage for end users: failures become a user-facing reply
// instead of an error.
func (o *Orchestrator) Chat(ctx context.Context, sessionID string, text string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session_id", sessionID).Interface("panic", r).Msg("turn panicked")
			reply = replyInternalPrefix + fmt.Sprint(r)
		}
	}()

	reply, err := o.HandleMessage(ctx, sessionID, text)
	if err == nil {
		return reply
	}

	switch {
	case errors.Is(err, ErrEmptyReply):
		log.Warn().Str("session_id", sessionID).Msg("agent returned an empty reply")
		return replyEmpty
	case errors.Is(err, contractx.ErrSchemaViolation):
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return replySchemaPrefix + describe(err)
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return replyInternalPrefix + describe(err)
	}
}

func (o *Orchestrator) SessionInfo(ctx context.Context, sessionID string) (SessionInfo, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SessionInfo{}, ErrInvalidSession
	}

	st, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("load session=%s: %w", sessionID, err)
	}

	return SessionInfo{
		SessionID:    st.SessionID,
		MessageCount: len(st.Messages),
		LastActivity: st.LastActivity(),
		CartID:       st.CartID,
		Preferences:  st.Preferences,
	}, nil
}

// describe keeps the first line of an error and strips the graph runtime's
// "[Kind] " prefix so replies stay readable.
func describe(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	for strings.HasPrefix(msg, "[") {
		j := strings.Index(msg, "] ")
		if j < 0 {
			break
		}
		msg = msg[j+2:]
	}
	return strings.TrimSpace(msg)
}
