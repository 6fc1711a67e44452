package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds runtime billing knobs that operators tune without a
// redeploy: the gateway service-charge gross-up and the grace windows used
// when computing monthly period dates.
type BillingConfig struct {
	// ServiceChargePercent is the gateway transaction fee in percent.
	// The checkout amount is grossed up so the billed total survives the fee:
	// total / (1 - percent/100).
	ServiceChargePercent float64 `mapstructure:"serviceChargePercent"`

	// FiberCutOffGraceDays is added to the fiber period end to produce the
	// cut-off date.
	FiberCutOffGraceDays int `mapstructure:"fiberCutOffGraceDays"`

	// P2PAnchorDay shifts the peer-to-peer billing window from the month
	// boundary.
	P2PAnchorDay int `mapstructure:"p2pAnchorDay"`

	// P2PCutOffDay is the day-of-month offset for the peer-to-peer cut-off.
	P2PCutOffDay int `mapstructure:"p2pCutOffDay"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		ServiceChargePercent: 2.5,
		FiberCutOffGraceDays: 5,
		P2PAnchorDay:         19,
		P2PCutOffDay:         24,
	}
}

// BillingConfigHolder exposes the current BillingConfig and hot-reloads it
// when the backing file changes.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/navlink")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NAVLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.serviceChargePercent", defaults.ServiceChargePercent)
	v.SetDefault("billing.fiberCutOffGraceDays", defaults.FiberCutOffGraceDays)
	v.SetDefault("billing.p2pAnchorDay", defaults.P2PAnchorDay)
	v.SetDefault("billing.p2pCutOffDay", defaults.P2PCutOffDay)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	if v, ok := h.current.Load().(BillingConfig); ok {
		return v
	}
	return DefaultBillingConfig()
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.ServiceChargePercent < 0 || cfg.ServiceChargePercent >= 100 {
		return errors.New("billing.serviceChargePercent must be in [0, 100)")
	}
	if cfg.FiberCutOffGraceDays < 0 {
		return errors.New("billing.fiberCutOffGraceDays cannot be negative")
	}
	return nil
}
