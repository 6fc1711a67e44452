package providers

import (
	"github.com/navlink/navlink/internal/providers/email"
	"github.com/navlink/navlink/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
