package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ocsf-tools/ocsf-json-schema/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated schemas over HTTP",
	Long: `Start an HTTP server exposing the loaded schema export.

Routes:
  GET  /schema/{version}/classes/{name}   class schema (?embed=true, ?profiles=a,b)
  GET  /schema/{version}/objects/{name}   object schema
  GET  /api/v1/classes                    class listing
  GET  /api/v1/objects                    object listing
  GET  /api/v1/version                    loaded schema version
  POST /api/v1/validate                   validate an event
  GET  /healthz                           liveness check

By default it listens on port 8080. Use --port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		server := api.NewServer(schema, logger)
		addr := fmt.Sprintf(":%d", viper.GetInt("port"))
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- httpServer.ListenAndServe()
		}()

		ui.Info("Serving schema %s at http://localhost%s", schema.Version, addr)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
