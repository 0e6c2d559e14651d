//go:build wireinject

package bootstrap

import (
	"context"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideTrackedSymbols,
	ProvideQuoteSource,
	ProvideStore,
	ProvideCacheService,
)

// InitAPI builds the API process graph.
func InitAPI(ctx context.Context) (*App, func(), error) {
	wire.Build(
		infraSet,
		ProvideServer,
		ProvideWarmer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
