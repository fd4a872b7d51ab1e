package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"casedeck/internal/config"
	"casedeck/internal/events"
	"casedeck/internal/httpserver"
	mcpserver "casedeck/internal/mcp"
	"casedeck/internal/runner"
	"casedeck/internal/schedule"
)

// ServeCmd runs the local API server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API server and workflow scheduler",
	Long: "Starts the REST server on :3456 (configurable via http_bind) together " +
		"with the schedule runner. When stdin is a pipe, also speaks MCP over " +
		"stdio so editor agents can drive the tools directly.",
	Run: func(cmd *cobra.Command, args []string) {
		RunServe()
	},
}

// RunServe is the single entry point for `casedeck serve`.
//
// Always starts (single port :3456):
//   - HTTP REST server + workflow scheduler
//   - stdio MCP when stdin is a pipe (e.g. spawned by an editor agent)
func RunServe() {
	// Detect whether we were spawned with a pipe on stdin (MCP mode).
	stdioMCP := isStdinPipe()

	// When stdio MCP is active, redirect all log/print output to stderr so we
	// don't corrupt the JSON-RPC stream on stdout.
	var out io.Writer = os.Stdout
	if stdioMCP {
		out = os.Stderr
		log.SetOutput(os.Stderr)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.HTTPTokens) == 0 {
		token, err := generateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
			os.Exit(1)
		}
		cfg.HTTPTokens = []string{token}
		if saveErr := config.SaveConfig(cfg); saveErr != nil {
			fmt.Fprintf(os.Stderr, "[warn] could not save generated token: %v\n", saveErr)
		}
		fmt.Fprintf(out, "Generated token: %s\n", token)
		fmt.Fprintf(out, "(saved to ~/.casedeck/config.json — use this token in API clients)\n")
	}

	httpAddr := cfg.HTTPBind
	if httpAddr == "" {
		httpAddr = ":3456"
	}

	client := mustClient()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := events.NewBus()

	// ── Scheduler (goroutine) ─────────────────────────────────────────────────
	sched := schedule.New(runner.New(client, bus))
	if err := sched.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "[scheduler] start error: %v\n", err)
	} else {
		defer sched.Stop()
		fmt.Fprintf(out, "Workflow scheduler started\n")
	}

	// ── HTTP REST server (goroutine) ─────────────────────────────────────────
	fmt.Fprintf(out, "HTTP server listening on %s\n", httpAddr)
	httpServer := httpserver.NewHTTPServer(client, cfg.HTTPTokens, Version, bus)
	go func() {
		if err := httpServer.ListenAndServe(httpAddr); err != nil && err.Error() != "http: Server closed" {
			fmt.Fprintf(os.Stderr, "[http] error: %v\n", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		_ = httpServer.Shutdown(shutCtx)
	}()

	// ── stdio MCP (blocking) or wait for signal ───────────────────────────────
	if stdioMCP {
		// Stdout is now exclusively for the MCP JSON-RPC protocol.
		if err := mcpserver.RunServer(client, Version); err != nil && err.Error() != "server is closing: EOF" {
			fmt.Fprintf(os.Stderr, "[mcp-stdio] error: %v\n", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
		fmt.Fprintf(out, "\nShutting down...\n")
	}
}

// isStdinPipe returns true when stdin is a pipe or file (not a terminal),
// i.e. casedeck was spawned by another process feeding it data.
func isStdinPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// generateToken returns a random 32-char hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
