// Package reference serves read-only GST reference data.
package reference

import "go.uber.org/fx"

var Module = fx.Module("reference",
	fx.Provide(NewRepository),
)
