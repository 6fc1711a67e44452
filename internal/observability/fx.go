package observability

import (
	"github.com/navlink/navlink/internal/config"
	"github.com/navlink/navlink/internal/observability/logger"
	"github.com/navlink/navlink/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		metrics.New,
	),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.AppName,
		Environment:         cfg.Environment,
		Version:             cfg.AppVersion,
		Level:               "info",
		Format:              "json",
		IncludeCaller:       true,
		IncludeStackOnError: !cfg.IsProduction(),
	}
}
