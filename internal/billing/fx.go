package billing

import (
	"github.com/navlink/navlink/internal/billing/repository"
	"github.com/navlink/navlink/internal/billing/service"
	"github.com/navlink/navlink/internal/notification"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		repository.Provide,
		func(n *notification.BillNotifier) service.Notifier { return n },
		service.New,
	),
)
