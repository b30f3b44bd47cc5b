// mockgateway is a development stand-in for the zero-trust gateway: it
// serves the REST endpoints the console pages consume and the websocket
// event channel, pushing synthetic node_status envelopes on an interval.
//
// Usage: go run ./cmd/mockgateway --addr :8443 --token devtoken
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/perimeterhq/console/internal/version"
)

func main() {
	addr := flag.String("addr", ":8443", "listen address")
	token := flag.String("token", "devtoken", "bearer token accepted on REST and channel handshakes")
	pushInterval := flag.Duration("push-interval", 3*time.Second, "interval between synthetic node_status pushes")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("mockgateway", version.String())
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := newServer(*token, logger)
	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: srv.routes(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("mock gateway listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		srv.hub.run(ctx, *pushInterval, srv.flipNode)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("mock gateway stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mock gateway stopped")
}
