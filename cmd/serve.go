package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the web app",
	Long: `Run the HTTP API for the web app.

With server.jwtSecret set, requests must carry an HS256 bearer token whose
sub claim is the user id. Without it the server runs in local mode and every
request acts as the configured user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr == "" {
			addr = rt.cfg.Server.Addr
		}
		srv := server.New(server.Config{
			Addr:        addr,
			JWTSecret:   rt.cfg.Server.JWTSecret,
			CORSOrigins: rt.cfg.Server.CORSOrigins,
			LocalUser:   rt.cfg.Identity(),
			Lang:        rt.lang,
			Version:     version,
		}, rt.svc, rt.logger)

		var wg sync.WaitGroup
		errChan := make(chan error, 1)
		srv.Start(&wg, errChan)

		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
		}

		rt.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		wg.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
}
