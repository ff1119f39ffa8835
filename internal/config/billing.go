package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the operational billing knobs that ops may tune
// without a redeploy. It lives in billing.yml next to the binary or in
// the mounted config volume and is hot reloaded on change.
type BillingConfig struct {
	// PaymentTermsDays is the default net terms applied when an invoice
	// is created without an explicit due date.
	PaymentTermsDays int `mapstructure:"paymentTermsDays"`

	// OverdueSweep controls the background poll that flips Sent
	// invoices past their due date.
	OverdueSweep OverdueSweepConfig `mapstructure:"overdueSweep"`
}

type OverdueSweepConfig struct {
	IntervalSeconds int `mapstructure:"intervalSeconds"`
	BatchSize       int `mapstructure:"batchSize"`
	TimeoutSeconds  int `mapstructure:"timeoutSeconds"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		PaymentTermsDays: 30,
		OverdueSweep: OverdueSweepConfig{
			IntervalSeconds: 60,
			BatchSize:       50,
			TimeoutSeconds:  30,
		},
	}
}

func (c OverdueSweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c OverdueSweepConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/billwise/config") // Volume-mounted config
	v.AddConfigPath("/etc/billwise")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("BILLWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.paymentTermsDays", defaults.PaymentTermsDays)
	v.SetDefault("billing.overdueSweep.intervalSeconds", defaults.OverdueSweep.IntervalSeconds)
	v.SetDefault("billing.overdueSweep.batchSize", defaults.OverdueSweep.BatchSize)
	v.SetDefault("billing.overdueSweep.timeoutSeconds", defaults.OverdueSweep.TimeoutSeconds)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
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

	if found {
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
	}

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.PaymentTermsDays <= 0 {
		return errors.New("billing.paymentTermsDays must be positive")
	}
	if cfg.OverdueSweep.IntervalSeconds <= 0 {
		return errors.New("billing.overdueSweep.intervalSeconds must be positive")
	}
	if cfg.OverdueSweep.BatchSize <= 0 {
		return errors.New("billing.overdueSweep.batchSize must be positive")
	}
	if cfg.OverdueSweep.TimeoutSeconds <= 0 {
		return errors.New("billing.overdueSweep.timeoutSeconds must be positive")
	}
	return nil
}
