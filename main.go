package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/agents/shopper"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/api"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/llm"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/tool"
	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
	configx "github.com/tanpawarit/Chative-Shopping-Assistant/pkg/config"
	_ "github.com/tanpawarit/Chative-Shopping-Assistant/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Shopping-Assistant/pkg/openrouter"
)

type AppConfig struct {
	SessionStore string `envconfig:"SESSION_STORE" default:"memory"`
}

var (
	addrFlag      = flag.String("addr", "", "serve HTTP on this address instead of the interactive prompt")
	sessionFlag   = flag.String("session", "", "session id for the interactive prompt (random when empty)")
	preflightFlag = flag.Bool("preflight", false, "check the model credentials before starting")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("shopping assistant stopped")
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	commerceCfg := configx.MustNew[commerce.Config]("")
	llmCfg := configx.MustNew[llm.Config]("OPENROUTER")
	agentCfg := configx.MustNew[shopper.Config]("AGENT")

	if err := llmCfg.Validate(); err != nil {
		return err
	}
	routerCfg := llmCfg.OpenRouter()

	if *preflightFlag {
		if err := openrouterx.Ping(ctx, openrouterx.NewClient(routerCfg), routerCfg.Model); err != nil {
			return err
		}
		log.Info().Str("model", routerCfg.Model).Msg("model preflight ok")
	}

	store, err := newStore(appCfg.SessionStore)
	if err != nil {
		return err
	}

	backend, err := commerce.NewClient(*commerceCfg)
	if err != nil {
		return fmt.Errorf("commerce client: %w", err)
	}
	catalog, err := tool.NewCatalog(backend, time.Now)
	if err != nil {
		return err
	}

	chatModel, err := routerCfg.New(ctx)
	if err != nil {
		return err
	}
	agent, err := shopper.New(ctx, chatModel, catalog, prompt.LoadPromptSet().Shopper, *agentCfg)
	if err != nil {
		return err
	}

	assistant, err := orchestrator.New(store, agent, orchestrator.Config{HistoryLimit: agentCfg.HistoryLimit})
	if err != nil {
		return err
	}

	log.Info().
		Str("backend", commerceCfg.BaseURL).
		Str("model", routerCfg.Model).
		Str("store", appCfg.SessionStore).
		Msg("shopping assistant ready")

	if addr := strings.TrimSpace(*addrFlag); addr != "" {
		return serve(ctx, addr, api.NewHandler(assistant).Routes())
	}

	sessionID := strings.TrimSpace(*sessionFlag)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return runREPL(ctx, os.Stdin, os.Stdout, sessionID, assistant)
}

func newStore(kind string) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return statex.NewMemoryStore(), nil
	case "upstash":
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, err
		}
		return statex.NewUpstashRedisStore(*cfg)
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE=%q (want memory or upstash)", kind)
	}
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
