package mysql

import (
	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
)

// Module registers the MySQL DBProvider.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewProvider,
			fx.ResultTags(database.DBProviderGroup),
		),
	),
)
