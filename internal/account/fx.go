package account

import (
	"github.com/navlink/navlink/internal/account/repository"
	"github.com/navlink/navlink/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
