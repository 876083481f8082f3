package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/status-im/status-identity-go/cmd/status-identity-server/server"
	"github.com/status-im/status-identity-go/internal"
	"github.com/status-im/status-identity-go/internal/config"
	"github.com/status-im/status-identity-go/pkg/session"
	"github.com/status-im/status-identity-go/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.Address, "address", cfg.Address, "host:port to listen")
	flag.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "store backend: memory, file, bolt or sqlite")
	flag.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "path of the store file")
	flag.StringVar(&cfg.ChainType, "chain", cfg.ChainType, "default chain type")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write production logs to this file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("invalid config: %v\n", err)
		os.Exit(1)
	}

	kv, err := store.Open(store.Backend(cfg.StoreBackend), cfg.StorePath, cfg.StorePassphrase)
	if err != nil {
		fmt.Printf("failed to open store: %v\n", err)
		os.Exit(1)
	}

	identity, err := internal.NewIdentityContext(kv,
		internal.WithLogging(cfg.LogEnabled, cfg.LogFile),
		internal.WithChainType(cfg.Chain()),
	)
	if err != nil {
		fmt.Printf("failed to create identity context: %v\n", err)
		os.Exit(1)
	}

	logger := zap.L().Named("main")

	local, err := identity.InitializeLocal("")
	if err != nil {
		logger.Error("failed to initialize local wallet", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("local wallet ready", zap.Object("wallet", local))

	srv := server.NewServer(zap.L(), session.NewIdentityService(identity), server.RateLimitConfig{
		Interval: cfg.RateInterval,
		Burst:    cfg.RateBurst,
	})
	srv.Setup()

	err = srv.Listen(cfg.Address)
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))
		return
	}

	logger.Info("identity-server started", zap.String("address", srv.Address()))
	go handleInterrupts(srv, identity)
	srv.Serve()
}

// handleInterrupts catches interrupt signal (SIGTERM/SIGINT) and
// gracefully stops the server and closes the store.
func handleInterrupts(srv *server.Server, identity *internal.IdentityContext) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	<-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Stop(ctx)

	if err := identity.Stop(); err != nil {
		zap.L().Error("failed to close store", zap.Error(err))
	}
	_ = zap.L().Sync()
	os.Exit(0)
}
