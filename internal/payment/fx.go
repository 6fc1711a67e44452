package payment

import (
	"github.com/navlink/navlink/internal/config"
	"github.com/navlink/navlink/internal/payment/domain"
	"github.com/navlink/navlink/internal/payment/paymongo"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(func(cfg config.Config) domain.Gateway {
		return paymongo.New(cfg.PaymongoBaseURL, cfg.PaymongoSecretKey)
	}),
)
