package internal

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/status-im/status-identity-go/internal/logging"
	"github.com/status-im/status-identity-go/pkg/fingerprint"
	"github.com/status-im/status-identity-go/pkg/wallet"
	"github.com/status-im/status-identity-go/signal"
)

type Option func(*IdentityContext)

// WithChainType sets the chain used when a caller does not name one.
func WithChainType(chain wallet.ChainType) Option {
	return func(k *IdentityContext) {
		k.chain = chain
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(k *IdentityContext) {
		k.now = now
	}
}

// WithFingerprint replaces the environment collector used on first run.
func WithFingerprint(collect func() fingerprint.Fingerprint) Option {
	return func(k *IdentityContext) {
		k.collect = collect
	}
}

// WithPublisher replaces signal.Send as the sink for status changes.
func WithPublisher(publish func(typ string, event interface{})) Option {
	return func(k *IdentityContext) {
		k.publish = publish
	}
}

func WithLogging(enabled bool, filePath string) Option {
	return func(k *IdentityContext) {
		var logger *zap.Logger

		defer func() {
			zap.ReplaceGlobals(logger)
			k.logger = zap.L().Named("identity")
		}()

		var err error
		logger, err = logging.Build(enabled, filePath)

		if err != nil {
			fmt.Printf("failed to initialize log: %v\n", err)
			logger = zap.NewNop()
		}
	}
}

func defaultOptions() []Option {
	return []Option{
		WithChainType(wallet.DefaultChainType),
		WithClock(time.Now),
		WithFingerprint(fingerprint.Collect),
		WithPublisher(signal.Send),
	}
}
