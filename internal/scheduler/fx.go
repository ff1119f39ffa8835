package scheduler

import (
	"context"

	"go.uber.org/fx"

	"github.com/billwise/billwise/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideConfig, New),
	fx.Invoke(Run),
)

type configParams struct {
	fx.In

	Billing *config.BillingConfigHolder `optional:"true"`
}

func provideConfig(p configParams) Config {
	if p.Billing == nil {
		return DefaultConfig()
	}
	sweep := p.Billing.Get().OverdueSweep
	return Config{
		RunInterval:  sweep.Interval(),
		BatchSize:    sweep.BatchSize,
		SweepTimeout: sweep.Timeout(),
	}.withDefaults()
}

func Run(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(runCtx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
