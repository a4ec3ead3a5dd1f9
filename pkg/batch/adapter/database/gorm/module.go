package gorm

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/vsatsla/pkg/batch/adapter/database"
)

// NewResolverProvider exposes the resolver and closes every connection on stop.
func NewResolverProvider(lc fx.Lifecycle, p ResolverParams) database.DBConnectionResolver {
	r := NewGormDBConnectionResolver(p)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return r.CloseAll() }})
	return r
}

// Module provides the DBConnectionResolver. Dialect modules contribute the providers.
var Module = fx.Options(
	fx.Provide(NewResolverProvider),
)
