package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local chat gateway",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("startup", err)
	}
	defer a.Close()

	router := server.SetupRouter(a.engine, a.logger, server.RouterConfig{
		APIKey:       a.cfg.Server.APIKey,
		AllowOrigins: []string{"*"},
	})

	srv := &http.Server{
		Addr:    a.cfg.Address(),
		Handler: router,
		// No WriteTimeout: chat streams stay open for the length of a
		// model response.
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		a.logger.Info("starting inkwell gateway",
			zap.String("address", a.cfg.Address()),
			zap.String("backend", a.cfg.Backend.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("shutting down gateway")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("forced shutdown", zap.Error(err))
	}

	a.logger.Info("gateway exited")
}
