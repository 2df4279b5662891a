package invoice

import (
	"github.com/smallbiznis/gstbook/internal/invoice/numbering"
	"github.com/smallbiznis/gstbook/internal/invoice/repository"
	"github.com/smallbiznis/gstbook/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(
		repository.Provide,
		repository.ProvideItems,
		repository.ProvideSequences,
		numbering.NewSequencer,
		service.NewService,
	),
)
