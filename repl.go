package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tanpawarit/Chative-Shopping-Assistant/agent/agents/orchestrator"
	statex "github.com/tanpawarit/Chative-Shopping-Assistant/agent/state"
)

const replBanner = `🛍️  Asistente de compras
Escribe tu mensaje, "info" para ver la sesión o "salir" para terminar.`

type chatter interface {
	Chat(ctx context.Context, sessionID string, text string) string
	SessionInfo(ctx context.Context, sessionID string) (orchestrator.SessionInfo, error)
}

// runREPL reads one message per line until EOF, an exit word or ctx ends.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, sessionID string, assistant chatter) error {
	fmt.Fprintln(out, replBanner)
	fmt.Fprintf(out, "Sesión: %s\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n👤 Tú: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "salir", "exit", "quit":
			fmt.Fprintln(out, "👋 ¡Hasta luego!")
			return nil
		case "info":
			printSessionInfo(ctx, out, sessionID, assistant)
			continue
		}

		fmt.Fprintf(out, "🤖 Asistente: %s\n", assistant.Chat(ctx, sessionID, line))
	}
}

func printSessionInfo(ctx context.Context, out io.Writer, sessionID string, assistant chatter) {
	info, err := assistant.SessionInfo(ctx, sessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		fmt.Fprintln(out, "📊 La sesión todavía no tiene mensajes.")
		return
	case err != nil:
		fmt.Fprintf(out, "❌ No se pudo leer la sesión: %v\n", err)
		return
	}

	cart := info.CartID
	if cart == "" {
		cart = "ninguno"
	}
	fmt.Fprintf(out, "📊 Sesión %s\n   Mensajes: %d\n   Última actividad: %s\n   Carrito: %s\n",
		info.SessionID, info.MessageCount, info.LastActivity.Format("2006-01-02 15:04:05"), cart)
}
