// Command agentd serves the agent-key order pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banky/hl-agent/exchange"
	"github.com/banky/hl-agent/internal/config"
	"github.com/banky/hl-agent/internal/logging"
	"github.com/banky/hl-agent/internal/server"
	"github.com/banky/hl-agent/ws"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

const (
	wsReadyTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load(os.Getenv("HL_ENV_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("agentd stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	exCfg := exchange.Config{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		Logger:          logger.Named("exchange"),
		MetaCacheTTL:    cfg.MetaCacheTTL,
		Dex:             cfg.Dex,
		DefaultSlippage: mo.Some(cfg.DefaultSlippage),
		CloseMode:       cfg.CloseMode,
	}

	if cfg.UseWSMids {
		feed, err := ws.Dial(ctx, ws.Config{
			BaseURL: cfg.BaseURL,
			Dex:     cfg.Dex,
			Logger:  logger.Named("ws"),
		})
		if err != nil {
			return err
		}
		defer feed.Close()

		readyCtx, cancel := context.WithTimeout(ctx, wsReadyTimeout)
		err = feed.WaitReady(readyCtx)
		cancel()
		if err != nil {
			return err
		}
		exCfg.Prices = feed
	}

	ex := exchange.New(exCfg)
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.New(server.Config{
			Exchange:    ex,
			CORSOrigins: cfg.CORSOrigins,
			Logger:      logger.Named("http"),
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.ListenAddr),
			zap.String("base_url", cfg.BaseURL),
			zap.Bool("mainnet", ex.IsMainnet()),
			zap.Bool("ws_mids", cfg.UseWSMids),
			zap.Stringer("close_mode", cfg.CloseMode),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
