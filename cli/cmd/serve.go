package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/parites/ratesd/fetchers"
	"github.com/parites/ratesd/server"
)

const shutdownTimeout = 10 * time.Second

func serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP import server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)

			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			srv := &server.Server{
				Base:   config.Base,
				Source: fetchers.APILayer{URL: config.APIURL, APIKey: config.APIKey},
				Logger: logger,
			}

			httpServer := &http.Server{
				Addr:              config.ListenAddr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			failed := make(chan error, 1)

			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					failed <- err
				}
			}()

			logger.Info("listening",
				slog.String("addr", config.ListenAddr),
				slog.String("base", config.Base),
			)

			select {
			case err := <-failed:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return httpServer.Shutdown(shutdownCtx)
		},
	}
}
