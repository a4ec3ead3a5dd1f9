package gcs

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/vsatsla/pkg/batch/adapter/storage"
)

// Module registers the GCSProvider in the storage provider group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewGCSProvider,
		fx.As(new(storageAdapter.StorageProvider)),
		fx.ResultTags(storageAdapter.ProviderGroup),
	)),
)
