package cmd

import (
	"github.com/spf13/cobra"

	"support-triage-agent/internal/infrastructure/config"
)

// serveCmd represents the serve command.
//
//nolint:gochecknoglobals // cobra command pattern requires global variable
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage HTTP server",
	Long: `Start an HTTP server exposing the triage conversation as a JSON API.

The server exposes endpoints for:
- Health checks:    GET  /health
- Readiness checks: GET  /ready
- New session:      POST /sessions
- User turn:        POST /sessions/{id}/input
- Session state:    GET  /sessions/{id}
- End session:      DELETE /sessions/{id}

Example:
  support-triage-agent serve --addr :8080
  support-triage-agent serve --redis-addr localhost:6379`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on (e.g., :8080, 0.0.0.0:9090)")
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := GetConfig(cmd)

	if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
		cfg.ListenAddr = addr
	}

	container, err := config.NewContainer(cfg)
	if err != nil {
		return err
	}

	ui := container.UIAdapter()
	adapter := container.HTTPAdapter()

	_ = ui.DisplaySystemMessage("")
	_ = ui.DisplaySystemMessage("Starting triage server on " + adapter.Addr())
	_ = ui.DisplaySystemMessage("Health check: GET http://localhost" + adapter.Addr() + "/health")
	_ = ui.DisplaySystemMessage("New session:  POST http://localhost" + adapter.Addr() + "/sessions")
	_ = ui.DisplaySystemMessage("")
	_ = ui.DisplaySystemMessage("Press Ctrl+C to stop")

	handler := InterruptHandlerFromContext(ctx)
	if handler != nil {
		go func() {
			<-handler.FirstPress()
			_ = ui.DisplaySystemMessage("\nInitiating graceful shutdown...")
		}()
	}

	// Blocks until the context is cancelled
	if err := adapter.Start(ctx); err != nil {
		return err
	}

	_ = ui.DisplaySystemMessage("Server stopped")
	return nil
}
