//go:build wireinject

package di

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/sandeepkv93/hackathon-backend/internal/app"
	"github.com/sandeepkv93/hackathon-backend/internal/config"
	"github.com/sandeepkv93/hackathon-backend/internal/service"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// InitializeApp builds the serving graph. The returned cleanup closes the
// database and redis connections.
func InitializeApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*app.App, func(), error) {
	wire.Build(
		storeSet,
		authSet,
		httpSet,
		provideObservability,
		provideLedgerReaper,
		provideApp,
	)
	return nil, nil, nil
}

// InitializeLedgerReaper builds only what the prune-ledger command needs.
func InitializeLedgerReaper(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.LedgerReaper, func(), error) {
	wire.Build(
		provideDB,
		provideRedis,
		provideLedger,
		provideLedgerReaper,
	)
	return nil, nil, nil
}
