package user

import (
	"go.uber.org/fx"

	"github.com/billwise/billwise/internal/user/service"
)

var Module = fx.Module("user.service",
	fx.Provide(service.NewService),
)
