package postgres

import (
	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
)

// Module registers the PostgreSQL DBProvider.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.ResultTags(database.DBProviderGroup),
		),
	),
)
